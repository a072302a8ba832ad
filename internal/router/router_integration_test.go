//go:build integration

package router_test

// Full HTTP cycle against real Postgres and Redis started with testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/config"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/dto"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/infra"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/metrics"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/model"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/realtime"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/repository"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/router"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/service"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const codigoSupervisor = "9999"

// ── Helpers ──────────────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	admin  string // access token
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.server.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, status int, dest any) {
	t.Helper()
	defer resp.Body.Close()
	if !assert.Equal(t, status, resp.StatusCode) {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("unexpected body: %s", b)
	}
	if dest != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
	}
}

// ── Setup ────────────────────────────────────────────────────────────────────

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	pgC, err := tcPostgres.Run(ctx, "postgres:16-alpine",
		tcPostgres.WithDatabase("tenda_test"),
		tcPostgres.WithUsername("tenda"),
		tcPostgres.WithPassword("tenda"),
		tcPostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(context.Background()) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(context.Background()) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		PDFStoragePath:     t.TempDir(),
		CancelamentoCodigo: codigoSupervisor,
	}

	db, err := infra.NewDatabase(ctx, cfg.DatabaseURL, false)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(ctx, cfg.RedisURL)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	hub := realtime.NewHub(realtime.NewRedisBroker(rdb))
	dispatcher := worker.NewDispatcher(rdb)

	usuarioRepo := repository.NewUsuarioRepository(db)
	produtoRepo := repository.NewProdutoRepository(db)
	vendaRepo := repository.NewVendaRepository(db)
	clienteRepo := repository.NewClienteRepository(db)
	configRepo := repository.NewConfiguracaoRepository(db)
	movRepo := repository.NewMovimentoEstoqueRepository(db)

	authSvc := service.NewAuthService(usuarioRepo, cfg)
	produtoSvc := service.NewProdutoService(produtoRepo, movRepo, configRepo, rdb, hub)
	clienteSvc := service.NewClienteService(clienteRepo, hub)
	configSvc := service.NewConfiguracaoService(configRepo, hub)
	vendaSvc := service.NewVendaService(service.VendaServiceParams{
		Vendas:       vendaRepo,
		Produtos:     produtoRepo,
		Movimentos:   movRepo,
		Clientes:     clienteRepo,
		Configuracao: configRepo,
		Dispatcher:   dispatcher,
		Notificador:  hub,
		Cache:        rdb,
		Metrics:      m,
	})
	hub.Registrar(realtime.ColecaoProdutos, func(ctx context.Context) (any, error) {
		return produtoSvc.ListarTodos(ctx)
	})

	worker.StartWorkerPool(ctx, rdb, worker.WorkerHandlers{
		Recibo:  worker.NewReciboWorker(vendaRepo, configRepo, nil, cfg.PDFStoragePath),
		Metrics: m,
	}, cfg.WorkerPoolSize)

	_, err = authSvc.CriarUsuario(ctx, dto.CriarUsuarioRequest{
		Username: "dono", Nome: "Dona da Loja", Pin: "1234", Rol: model.RolAdmin,
	})
	require.NoError(t, err)
	_, err = authSvc.CriarUsuario(ctx, dto.CriarUsuarioRequest{
		Username: "caixa", Nome: "Caixa Um", Pin: "4321", Rol: model.RolVendedor,
	})
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	engine := router.New(cfg, router.Deps{
		DB:           db,
		Redis:        rdb,
		Metrics:      m,
		Gatherer:     registry,
		Hub:          hub,
		Auth:         authSvc,
		Vendas:       vendaSvc,
		Produtos:     produtoSvc,
		Clientes:     clienteSvc,
		Configuracao: configSvc,
		Insights:     service.NewInsightService(vendaRepo, nil),
	})
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)

	env := &testEnv{server: srv}
	env.admin = env.login(t, "dono", "1234")
	return env
}

func (e *testEnv) login(t *testing.T, username, pin string) string {
	t.Helper()
	var resp dto.LoginResponse
	decodeJSON(t, e.do(t, http.MethodPost, "/v1/auth/login", dto.LoginRequest{Username: username, Pin: pin}, ""),
		http.StatusOK, &resp)
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_CicloDeVenda(t *testing.T) {
	env := setupTestEnv(t)
	caixa := env.login(t, "caixa", "4321")

	// Operators cannot touch the catalog.
	resp := env.do(t, http.MethodPost, "/v1/produtos", map[string]any{"nome": "X", "codigo": "X1"}, caixa)
	decodeJSON(t, resp, http.StatusForbidden, nil)

	var produto dto.ProdutoResponse
	decodeJSON(t, env.do(t, http.MethodPost, "/v1/produtos", map[string]any{
		"nome": "Camiseta Básica", "codigo": "7891000100103",
		"preco_compra": "4,00", "preco_venda": "10.00", "quantidade": 3,
	}, env.admin), http.StatusCreated, &produto)

	var preco dto.PrecoResponse
	decodeJSON(t, env.do(t, http.MethodGet, "/v1/precos/7891000100103", nil, ""), http.StatusOK, &preco)
	assert.Equal(t, "10", preco.PrecoVenda.String())

	var cliente dto.ClienteResponse
	decodeJSON(t, env.do(t, http.MethodPost, "/v1/clientes", dto.CriarClienteRequest{Nome: "Maria Souza"}, caixa),
		http.StatusCreated, &cliente)

	item := map[string]any{
		"produto_id": produto.ID, "nome": produto.Nome, "codigo": produto.Codigo,
		"preco_unitario": "10.00", "quantidade": 2,
	}

	// Crediário: 20.00 + 5.5% = 21.10 in two installments of 10.55.
	var crediario dto.VendaResponse
	decodeJSON(t, env.do(t, http.MethodPost, "/v1/vendas", map[string]any{
		"itens": []any{item}, "cliente_id": cliente.ID,
		"metodo_pagamento": "crediario", "numero_parcelas": 2,
	}, caixa), http.StatusCreated, &crediario)
	assert.Equal(t, "21.1", crediario.Total.String())
	require.Len(t, crediario.Parcelas, 2)
	assert.Equal(t, "10.55", crediario.Parcelas[0].Valor.String())
	assert.False(t, crediario.ConflitoEstoque)

	// Only one unit left: the second sale clamps stock at zero and is flagged.
	var pix dto.VendaResponse
	decodeJSON(t, env.do(t, http.MethodPost, "/v1/vendas", map[string]any{
		"itens": []any{item}, "metodo_pagamento": "pix",
	}, caixa), http.StatusCreated, &pix)
	assert.True(t, pix.ConflitoEstoque)

	decodeJSON(t, env.do(t, http.MethodGet, "/v1/produtos/"+produto.ID, nil, caixa), http.StatusOK, &produto)
	assert.Equal(t, 0, produto.Quantidade)

	var parcela dto.ParcelaResponse
	decodeJSON(t, env.do(t, http.MethodPatch, "/v1/vendas/"+crediario.ID+"/parcelas/1",
		dto.AtualizarParcelaRequest{Status: "pago"}, caixa), http.StatusOK, &parcela)
	assert.Equal(t, "pago", parcela.Status)

	// Void needs a supervisor code.
	resp = env.do(t, http.MethodPost, "/v1/vendas/"+crediario.ID+"/cancelar",
		dto.CancelarVendaRequest{CodigoAutorizacao: "0000"}, caixa)
	decodeJSON(t, resp, http.StatusForbidden, nil)

	var cancelada dto.VendaResponse
	decodeJSON(t, env.do(t, http.MethodPost, "/v1/vendas/"+crediario.ID+"/cancelar",
		dto.CancelarVendaRequest{CodigoAutorizacao: codigoSupervisor}, caixa), http.StatusOK, &cancelada)
	assert.Equal(t, "cancelada", cancelada.Status)
	assert.NotNil(t, cancelada.CanceladaEm)

	// Voiding again changes nothing.
	decodeJSON(t, env.do(t, http.MethodPost, "/v1/vendas/"+crediario.ID+"/cancelar",
		dto.CancelarVendaRequest{CodigoAutorizacao: codigoSupervisor}, caixa), http.StatusOK, nil)

	decodeJSON(t, env.do(t, http.MethodGet, "/v1/produtos/"+produto.ID, nil, caixa), http.StatusOK, &produto)
	assert.Equal(t, 2, produto.Quantidade)

	resp = env.do(t, http.MethodPatch, "/v1/vendas/"+crediario.ID+"/parcelas/2",
		dto.AtualizarParcelaRequest{Status: "pago"}, caixa)
	decodeJSON(t, resp, http.StatusConflict, nil)

	var lista dto.VendaListResponse
	decodeJSON(t, env.do(t, http.MethodGet, "/v1/vendas?status=finalizada", nil, caixa), http.StatusOK, &lista)
	require.Equal(t, int64(1), lista.Total)
	assert.Equal(t, pix.ID, lista.Data[0].ID)

	var resumo dto.ResumoResponse
	decodeJSON(t, env.do(t, http.MethodGet, "/v1/vendas/resumo", nil, caixa), http.StatusOK, &resumo)
	assert.Equal(t, int64(1), resumo.QuantidadeVendas)
	assert.Equal(t, int64(1), resumo.Canceladas)

	resp = env.do(t, http.MethodGet, "/v1/vendas/"+pix.ID+"/recibo.pdf", nil, caixa)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))

	resp = env.do(t, http.MethodGet, "/metrics", nil, "")
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `tenda_vendas_finalizadas_total{metodo="pix"} 1`)
}

func TestE2E_StreamRecebeSnapshotAposMudanca(t *testing.T) {
	env := setupTestEnv(t)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, env.server.URL+"/v1/stream/produtos", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+env.admin)
	resp, err := env.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	linhas := bufio.NewScanner(resp.Body)
	proximoSnapshot := func() string {
		for linhas.Scan() {
			if l := linhas.Text(); strings.HasPrefix(l, "data:") {
				return l
			}
		}
		t.Fatalf("stream closed: %v", linhas.Err())
		return ""
	}

	assert.Contains(t, proximoSnapshot(), `"versao":1`)

	decodeJSON(t, env.do(t, http.MethodPost, "/v1/produtos", map[string]any{
		"nome": "Boné", "codigo": "BONE01", "preco_venda": 25, "quantidade": 1,
	}, env.admin), http.StatusCreated, nil)

	snap := proximoSnapshot()
	assert.Contains(t, snap, `"versao":2`)
	assert.Contains(t, snap, "BONE01")
}

func TestE2E_ColecaoDesconhecida(t *testing.T) {
	env := setupTestEnv(t)
	resp := env.do(t, http.MethodGet, "/v1/stream/inexistente", nil, env.admin)
	decodeJSON(t, resp, http.StatusNotFound, nil)
}
