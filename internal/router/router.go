package router

import (
	"time"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/config"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/handler"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/infra"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/metrics"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/middleware"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/model"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/realtime"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps is everything the HTTP layer needs. Services are built by the
// composition root because the workers and the realtime hub share them.
type Deps struct {
	DB         *gorm.DB
	Redis      *redis.Client
	Metrics    *metrics.Metrics
	Gatherer   prometheus.Gatherer
	InsightsCB *infra.CircuitBreaker
	Hub        *realtime.Hub

	Auth         service.AuthService
	Vendas       service.VendaService
	Produtos     service.ProdutoService
	Clientes     service.ClienteService
	Configuracao service.ConfiguracaoService
	Insights     service.InsightService
}

// New returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, d Deps) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Metrics))
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(d.Auth)
	usuariosH := handler.NewUsuariosHandler(d.Auth)
	vendasH := handler.NewVendasHandler(d.Vendas, d.Auth)
	produtosH := handler.NewProdutosHandler(d.Produtos)
	precosH := handler.NewPrecosHandler(d.Produtos)
	clientesH := handler.NewClientesHandler(d.Clientes)
	configH := handler.NewConfiguracoesHandler(d.Configuracao)
	insightsH := handler.NewInsightsHandler(d.Insights)
	streamH := handler.NewStreamHandler(d.Hub)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, d.InsightsCB))
	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Price check kiosk, no auth
	r.GET("/v1/precos/:codigo", precosH.Consultar)

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW, middleware.RequireRole(model.RolVendedor, model.RolAdmin))
	{
		v1.POST("/vendas", vendasH.Finalizar)
		v1.GET("/vendas", vendasH.Listar)
		v1.GET("/vendas/export.csv", vendasH.ExportarCSV)
		v1.GET("/vendas/resumo", vendasH.Resumo)
		v1.GET("/vendas/:id", vendasH.Obter)
		v1.GET("/vendas/:id/recibo.pdf", vendasH.Recibo)
		// The supervisor code in the body is the authorization, so operators may call it.
		v1.POST("/vendas/:id/cancelar", vendasH.Cancelar)
		v1.PATCH("/vendas/:id/parcelas/:numero", vendasH.AtualizarParcela)
		v1.GET("/crediario", vendasH.Crediario)
		v1.POST("/carrinho/totais", vendasH.CarrinhoTotais)

		// Catalog reads for the register
		v1.GET("/produtos", produtosH.Listar)
		v1.GET("/produtos/codigo/:codigo", produtosH.ObterPorCodigo)
		v1.GET("/produtos/:id", produtosH.Obter)

		v1.GET("/clientes", clientesH.Listar)
		v1.POST("/clientes", clientesH.Criar)
		v1.PUT("/clientes/:id", clientesH.Atualizar)

		v1.GET("/configuracoes", configH.Obter)
		v1.GET("/stream/:colecao", streamH.Assinar)
		v1.POST("/insights", insightsH.Gerar)

		// Write operations: admin only
		admin := v1.Group("", middleware.RequireRole(model.RolAdmin))
		{
			admin.POST("/produtos", produtosH.Criar)
			admin.PUT("/produtos/:id", produtosH.Atualizar)
			admin.DELETE("/produtos/:id", produtosH.Remover)
			admin.PATCH("/produtos/:id/estoque", produtosH.AjustarEstoque)
			admin.GET("/produtos/:id/movimentos", produtosH.Movimentos)
			admin.GET("/produtos/etiquetas.pdf", produtosH.EtiquetasTodos)
			admin.GET("/produtos/:id/etiquetas.pdf", produtosH.Etiquetas)

			admin.PUT("/configuracoes", configH.Salvar)
			admin.GET("/filas", handler.Filas(d.Redis))

			admin.POST("/usuarios", usuariosH.Criar)
			admin.GET("/usuarios", usuariosH.Listar)
			admin.DELETE("/usuarios/:id", usuariosH.Desativar)
			admin.PATCH("/usuarios/:id/reativar", usuariosH.Reativar)
		}
	}

	// Swagger UI: only enabled outside production
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
