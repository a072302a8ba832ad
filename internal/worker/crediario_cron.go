package worker

// crediario_cron.go
// Periodically counts overdue crediário installments and publishes them as
// gauges, so a dashboard can alert on them without scanning the API.

import (
	"context"
	"time"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/metrics"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

type contadorAtrasadas interface {
	ContarParcelasAtrasadas(ctx context.Context, ref time.Time) (int64, decimal.Decimal, error)
}

// CrediarioCronConfig holds all dependencies for the overdue scan.
type CrediarioCronConfig struct {
	Spec    string // cron expression or descriptor, e.g. "@every 1h"
	Vendas  contadorAtrasadas
	Metrics *metrics.Metrics
	Now     func() time.Time
}

// StartCrediarioCron runs one scan immediately, then schedules the rest.
// The scheduler stops when ctx is cancelled.
func StartCrediarioCron(ctx context.Context, cfg CrediarioCronConfig) (*cron.Cron, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	c := cron.New(cron.WithParser(cronParser))
	if _, err := c.AddFunc(cfg.Spec, func() { verificarAtrasadas(ctx, cfg) }); err != nil {
		return nil, err
	}

	verificarAtrasadas(ctx, cfg)
	c.Start()
	log.Info().Str("spec", cfg.Spec).Msg("crediario_cron: started")

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		log.Info().Msg("crediario_cron: shutting down")
	}()
	return c, nil
}

func verificarAtrasadas(ctx context.Context, cfg CrediarioCronConfig) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("crediario_cron: recovered")
		}
	}()

	qtd, valor, err := cfg.Vendas.ContarParcelasAtrasadas(ctx, cfg.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("crediario_cron: failed to count overdue installments")
		return
	}
	cfg.Metrics.ParcelasAtrasadas(qtd, valor)
	if qtd > 0 {
		log.Info().Int64("parcelas", qtd).Str("valor", valor.StringFixed(2)).Msg("crediario_cron: overdue installments")
	}
}
