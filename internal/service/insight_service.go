package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/dto"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/repository"

	"github.com/rs/zerolog/log"
)

// MaxVendasInsight bounds how many recent sales are summarized per request.
const MaxVendasInsight = 50

// GeradorTexto produces free text from a prompt; *infra.InsightClient implements it.
type GeradorTexto interface {
	Gerar(ctx context.Context, prompt string) (string, error)
}

type InsightService interface {
	Gerar(ctx context.Context) (*dto.InsightResponse, error)
}

type insightService struct {
	vendas  repository.VendaRepository
	gerador GeradorTexto
}

// NewInsightService returns a service that answers ErrInsightsDesabilitado
// when gerador is nil.
func NewInsightService(vendas repository.VendaRepository, gerador GeradorTexto) InsightService {
	return &insightService{vendas: vendas, gerador: gerador}
}

func (s *insightService) Gerar(ctx context.Context) (*dto.InsightResponse, error) {
	if s.gerador == nil {
		return nil, ErrInsightsDesabilitado
	}
	vendas, err := s.vendas.ListRecentes(ctx, MaxVendasInsight)
	if err != nil {
		return nil, err
	}
	if len(vendas) == 0 {
		return &dto.InsightResponse{Texto: "Ainda não há vendas para analisar."}, nil
	}

	var b strings.Builder
	b.WriteString("Você é um consultor de varejo. Analise as vendas recentes de uma loja ")
	b.WriteString("e responda em português, em até 5 frases, com tendências e sugestões práticas.\n")
	b.WriteString("data;metodo;total;itens\n")
	for _, v := range vendas {
		nomes := make([]string, 0, len(v.Itens))
		for _, it := range v.Itens {
			nomes = append(nomes, fmt.Sprintf("%dx %s", it.Quantidade, it.Nome))
		}
		fmt.Fprintf(&b, "%s;%s;%s;%s\n",
			v.CreatedAt.In(time.Local).Format("2006-01-02 15:04"),
			v.MetodoPagamento,
			v.Total.StringFixed(2),
			strings.Join(nomes, ", "))
	}

	texto, err := s.gerador.Gerar(ctx, b.String())
	if err != nil {
		log.Warn().Err(err).Msg("insights: generation failed")
		return nil, fmt.Errorf("%w: %v", ErrInsightsIndisponivel, err)
	}
	return &dto.InsightResponse{Texto: strings.TrimSpace(texto), VendasAnalisadas: len(vendas)}, nil
}
