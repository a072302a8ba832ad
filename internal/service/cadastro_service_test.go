package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/dto"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/model"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/realtime"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Clientes ─────────────────────────────────────────────────────────────────

func TestClienteService_CriarEAtualizar(t *testing.T) {
	repo := newStubClienteRepo()
	notif := &notificadorFake{}
	svc := service.NewClienteService(repo, notif)

	c, err := svc.Criar(context.Background(), dto.CriarClienteRequest{Nome: " Maria Silva ", Contato: "(11) 99999-0000"})
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", c.Nome)

	contato := "maria@example.com"
	id := uuid.MustParse(c.ID)
	atualizado, err := svc.Atualizar(context.Background(), id, dto.AtualizarClienteRequest{Contato: &contato})
	require.NoError(t, err)
	assert.Equal(t, "Maria Silva", atualizado.Nome)
	assert.Equal(t, contato, atualizado.Contato)
	assert.Equal(t, []string{realtime.ColecaoClientes, realtime.ColecaoClientes}, notif.colecoes)

	lista, err := svc.Listar(context.Background(), dto.ClienteFilter{Busca: "maria"})
	require.NoError(t, err)
	assert.Len(t, lista, 1)
}

func TestClienteService_Inexistente(t *testing.T) {
	svc := service.NewClienteService(newStubClienteRepo(), nil)
	_, err := svc.ObterPorID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrClienteNaoEncontrado)

	nome := "Outro"
	_, err = svc.Atualizar(context.Background(), uuid.New(), dto.AtualizarClienteRequest{Nome: &nome})
	assert.ErrorIs(t, err, service.ErrClienteNaoEncontrado)
}

// ── Configurações ────────────────────────────────────────────────────────────

func TestConfiguracaoService(t *testing.T) {
	repo := &stubConfigRepo{}
	notif := &notificadorFake{}
	svc := service.NewConfiguracaoService(repo, notif)

	padrao, err := svc.Obter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.NomeEmpresaPadrao, padrao.NomeEmpresa)

	salvo, err := svc.Salvar(context.Background(), dto.ConfiguracaoRequest{
		NomeEmpresa: " Tenda da Ana ",
		PixQRURL:    "https://pix.example.com/qr",
	})
	require.NoError(t, err)
	assert.Equal(t, "Tenda da Ana", salvo.NomeEmpresa)
	assert.Equal(t, model.ConfiguracaoID, repo.cfg.ID)
	assert.Equal(t, []string{realtime.ColecaoConfiguracoes}, notif.colecoes)

	lido, err := svc.Obter(context.Background())
	require.NoError(t, err)
	assert.Equal(t, *salvo, *lido)
}

// ── Insights ─────────────────────────────────────────────────────────────────

type geradorFake struct {
	prompt string
	texto  string
	err    error
}

func (g *geradorFake) Gerar(_ context.Context, prompt string) (string, error) {
	g.prompt = prompt
	return g.texto, g.err
}

func seedVenda(repo *stubVendaRepo, status string, total string, itens ...model.VendaItem) *model.Venda {
	v := &model.Venda{
		ID:              uuid.New(),
		Status:          status,
		MetodoPagamento: model.MetodoPix,
		Total:           decimal.RequireFromString(total),
		CreatedAt:       time.Now().UTC(),
		Itens:           itens,
	}
	repo.vendas[v.ID] = v
	return v
}

func TestInsightService_Desabilitado(t *testing.T) {
	svc := service.NewInsightService(newStubVendaRepo(), nil)
	_, err := svc.Gerar(context.Background())
	assert.ErrorIs(t, err, service.ErrInsightsDesabilitado)
}

func TestInsightService_SemVendas(t *testing.T) {
	gerador := &geradorFake{texto: "nunca chamado"}
	svc := service.NewInsightService(newStubVendaRepo(), gerador)

	resp, err := svc.Gerar(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, resp.VendasAnalisadas)
	assert.Empty(t, gerador.prompt)
}

func TestInsightService_MontaPromptComVendasFinalizadas(t *testing.T) {
	repo := newStubVendaRepo()
	seedVenda(repo, model.VendaFinalizada, "59.80", model.VendaItem{Nome: "Camiseta", Quantidade: 2})
	seedVenda(repo, model.VendaCancelada, "10.00", model.VendaItem{Nome: "Meia", Quantidade: 1})
	gerador := &geradorFake{texto: "  Camisetas vendem bem.  "}
	svc := service.NewInsightService(repo, gerador)

	resp, err := svc.Gerar(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Camisetas vendem bem.", resp.Texto)
	assert.Equal(t, 1, resp.VendasAnalisadas)
	assert.Contains(t, gerador.prompt, ";pix;59.80;2x Camiseta")
	assert.False(t, strings.Contains(gerador.prompt, "Meia"))
}

func TestInsightService_FalhaDoGerador(t *testing.T) {
	repo := newStubVendaRepo()
	seedVenda(repo, model.VendaFinalizada, "10.00")
	svc := service.NewInsightService(repo, &geradorFake{err: errors.New("503 upstream")})

	_, err := svc.Gerar(context.Background())
	assert.ErrorIs(t, err, service.ErrInsightsIndisponivel)
}
