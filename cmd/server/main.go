package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/config"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/dto"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/infra"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/metrics"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/realtime"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/repository"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/router"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/service"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

// vendasStreamLimit bounds the sales snapshot pushed to stream subscribers.
const vendasStreamLimit = 200

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logCloser := infra.SetupLogger(cfg)
	defer logCloser.Close()

	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := infra.NewDatabase(ctx, cfg.DatabaseURL, !cfg.IsProduction() && cfg.LogLevel == "debug")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// ── Infrastructure ───────────────────────────────────────────────────────
	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)
	hub := realtime.NewHub(realtime.NewRedisBroker(rdb))
	insightsCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("insights"))

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	produtoRepo := repository.NewProdutoRepository(db)
	vendaRepo := repository.NewVendaRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	configRepo := repository.NewConfiguracaoRepository(db)
	movRepo := repository.NewMovimentoEstoqueRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	var gerador service.GeradorTexto
	if cfg.InsightsURL != "" {
		gerador = infra.NewInsightClient(cfg.InsightsURL, cfg.InsightsAPIKey, insightsCB)
	}

	authSvc := service.NewAuthService(usuarioRepo, cfg)
	produtoSvc := service.NewProdutoService(produtoRepo, movRepo, configRepo, rdb, hub)
	clienteSvc := service.NewClienteService(clienteRepo, hub)
	configSvc := service.NewConfiguracaoService(configRepo, hub)
	insightSvc := service.NewInsightService(vendaRepo, gerador)
	vendaSvc := service.NewVendaService(service.VendaServiceParams{
		Vendas:           vendaRepo,
		Produtos:         produtoRepo,
		Movimentos:       movRepo,
		Clientes:         clienteRepo,
		Configuracao:     configRepo,
		Dispatcher:       dispatcher,
		Notificador:      hub,
		Cache:            rdb,
		Metrics:          m,
		BloquearSemSaldo: cfg.EstoqueBloquearSemSaldo,
	})

	// ── Realtime collections ─────────────────────────────────────────────────
	hub.Registrar(realtime.ColecaoProdutos, func(ctx context.Context) (any, error) {
		return produtoSvc.ListarTodos(ctx)
	})
	hub.Registrar(realtime.ColecaoClientes, func(ctx context.Context) (any, error) {
		return clienteSvc.Listar(ctx, dto.ClienteFilter{})
	})
	hub.Registrar(realtime.ColecaoVendas, func(ctx context.Context) (any, error) {
		return vendaSvc.ListarVendas(ctx, dto.VendaFilter{Page: 1, Limit: vendasStreamLimit})
	})
	hub.Registrar(realtime.ColecaoConfiguracoes, func(ctx context.Context) (any, error) {
		return configSvc.Obter(ctx)
	})

	// ── Background work ──────────────────────────────────────────────────────
	// Receipts are always rendered; they are only mailed when SMTP is configured.
	recibos := worker.NewReciboWorker(vendaRepo, configRepo, nil, cfg.PDFStoragePath)
	if mailer.Enabled() {
		recibos = worker.NewReciboWorker(vendaRepo, configRepo, dispatcher, cfg.PDFStoragePath)
	}
	worker.StartWorkerPool(ctx, rdb, worker.WorkerHandlers{
		Recibo:  recibos,
		Email:   worker.NewEmailWorker(mailer),
		Metrics: m,
	}, cfg.WorkerPoolSize)

	if _, err := worker.StartCrediarioCron(ctx, worker.CrediarioCronConfig{
		Spec:    cfg.CrediarioCron,
		Vendas:  vendaRepo,
		Metrics: m,
	}); err != nil {
		log.Fatal().Err(err).Str("spec", cfg.CrediarioCron).Msg("invalid CREDIARIO_CRON")
	}

	r := router.New(cfg, router.Deps{
		DB:           db,
		Redis:        rdb,
		Metrics:      m,
		Gatherer:     registry,
		InsightsCB:   insightsCB,
		Hub:          hub,
		Auth:         authSvc,
		Vendas:       vendaSvc,
		Produtos:     produtoSvc,
		Clientes:     clienteSvc,
		Configuracao: configSvc,
		Insights:     insightSvc,
	})

	// No WriteTimeout: /v1/stream responses stay open for the whole session.
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("vendas-pos listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	// Cancelling ctx closes open streams and stops workers and the cron.
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	if err := rdb.Close(); err != nil {
		log.Warn().Err(err).Msg("redis close")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("server exited")
}
