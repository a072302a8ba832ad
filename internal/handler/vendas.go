package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/apierror"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/dto"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/service"

	"github.com/gin-gonic/gin"
)

type VendasHandler struct {
	svc  service.VendaService
	auth service.AuthService
}

func NewVendasHandler(svc service.VendaService, auth service.AuthService) *VendasHandler {
	return &VendasHandler{svc: svc, auth: auth}
}

// Finalizar godoc
// @Summary      Finalizar venda
// @Description  Registra a venda, baixa o estoque e gera as parcelas do crediário numa única transação.
// @Tags         vendas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.FinalizarVendaRequest true "Carrinho e pagamento"
// @Success      201  {object} dto.VendaResponse
// @Failure      400  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/vendas [post]
func (h *VendasHandler) Finalizar(c *gin.Context) {
	var req dto.FinalizarVendaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.FinalizarVenda(c.Request.Context(), operador(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Cancelar godoc
// @Summary      Cancelar venda
// @Description  Exige autorização de supervisor (PIN, código da loja ou crachá). Devolve os itens ao estoque; cancelar de novo não tem efeito.
// @Tags         vendas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "UUID da venda"
// @Param        body body dto.CancelarVendaRequest true "Código de autorização"
// @Success      200  {object} dto.VendaResponse
// @Failure      403  {object} apierror.APIError
// @Failure      404  {object} apierror.APIError
// @Router       /v1/vendas/{id}/cancelar [post]
func (h *VendasHandler) Cancelar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CancelarVendaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	aut, err := h.auth.Autorizar(c.Request.Context(), req.CodigoAutorizacao)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.svc.CancelarVenda(c.Request.Context(), id, aut); err != nil {
		respondError(c, err)
		return
	}
	resp, err := h.svc.ObterVenda(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AtualizarParcela godoc
// @Summary      Marcar parcela como paga ou pendente
// @Tags         vendas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path string                      true "UUID da venda"
// @Param        numero path int                         true "Número da parcela"
// @Param        body   body dto.AtualizarParcelaRequest true "Novo status"
// @Success      200    {object} dto.ParcelaResponse
// @Failure      404    {object} apierror.APIError
// @Failure      409    {object} apierror.APIError
// @Router       /v1/vendas/{id}/parcelas/{numero} [patch]
func (h *VendasHandler) AtualizarParcela(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	numero, err := strconv.Atoi(c.Param("numero"))
	if err != nil || numero < 1 {
		c.JSON(http.StatusBadRequest, apierror.New("Número de parcela inválido"))
		return
	}
	var req dto.AtualizarParcelaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AtualizarParcela(c.Request.Context(), id, numero, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obter godoc
// @Summary      Obter venda
// @Tags         vendas
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "UUID da venda"
// @Success      200 {object} dto.VendaResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/vendas/{id} [get]
func (h *VendasHandler) Obter(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObterVenda(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Listar godoc
// @Summary      Listar vendas
// @Description  Lista paginada, mais recentes primeiro, filtrável por status, período e cliente.
// @Tags         vendas
// @Produce      json
// @Security     BearerAuth
// @Param        status     query string false "finalizada | cancelada"
// @Param        de         query string false "Data inicial (YYYY-MM-DD)"
// @Param        ate        query string false "Data final (YYYY-MM-DD)"
// @Param        cliente_id query string false "UUID do cliente"
// @Param        page       query int    false "Página"
// @Param        limit      query int    false "Itens por página"
// @Success      200        {object} dto.VendaListResponse
// @Router       /v1/vendas [get]
func (h *VendasHandler) Listar(c *gin.Context) {
	var filter dto.VendaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarVendas(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ExportarCSV godoc
// @Summary      Exportar vendas em CSV
// @Tags         vendas
// @Produce      text/csv
// @Security     BearerAuth
// @Param        status query string false "finalizada | cancelada"
// @Param        de     query string false "Data inicial (YYYY-MM-DD)"
// @Param        ate    query string false "Data final (YYYY-MM-DD)"
// @Success      200
// @Router       /v1/vendas/export.csv [get]
func (h *VendasHandler) ExportarCSV(c *gin.Context) {
	var filter dto.VendaFilter
	if !bindQuery(c, &filter) {
		return
	}
	nome := fmt.Sprintf("vendas_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="`+nome+`"`)
	if err := h.svc.ExportarCSV(c.Request.Context(), filter, c.Writer); err != nil {
		if !c.Writer.Written() {
			respondError(c, err)
			return
		}
		_ = c.Error(err)
	}
}

// Resumo godoc
// @Summary      Resumo de vendas do período
// @Description  Faturamento, taxas, ticket médio e totais por forma de pagamento. Sem datas, usa o dia corrente.
// @Tags         vendas
// @Produce      json
// @Security     BearerAuth
// @Param        de  query string false "Data inicial (YYYY-MM-DD)"
// @Param        ate query string false "Data final (YYYY-MM-DD)"
// @Success      200 {object} dto.ResumoResponse
// @Router       /v1/vendas/resumo [get]
func (h *VendasHandler) Resumo(c *gin.Context) {
	var filter dto.ResumoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Resumo(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Recibo godoc
// @Summary      Comprovante da venda em PDF
// @Tags         vendas
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id  path string true "UUID da venda"
// @Success      200
// @Failure      404 {object} apierror.APIError
// @Router       /v1/vendas/{id}/recibo.pdf [get]
func (h *VendasHandler) Recibo(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	pdf, err := h.svc.Recibo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="recibo_%s.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Crediario godoc
// @Summary      Vendas no crediário
// @Description  Saldo pago e pendente de cada venda no crediário, com parcelas atrasadas.
// @Tags         vendas
// @Produce      json
// @Security     BearerAuth
// @Param        cliente_id query string false "UUID do cliente"
// @Param        pendentes  query bool   false "Apenas vendas com parcelas pendentes"
// @Success      200        {array} dto.CrediarioResponse
// @Router       /v1/crediario [get]
func (h *VendasHandler) Crediario(c *gin.Context) {
	var filter dto.CrediarioFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarCrediario(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CarrinhoTotais godoc
// @Summary      Calcular totais do carrinho
// @Description  Subtotal, taxa, troco e parcelas sem registrar nada. Valor insuficiente é sinalizado na resposta.
// @Tags         vendas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CarrinhoTotaisRequest true "Linhas e pagamento"
// @Success      200  {object} dto.CarrinhoTotaisResponse
// @Router       /v1/carrinho/totais [post]
func (h *VendasHandler) CarrinhoTotais(c *gin.Context) {
	var req dto.CarrinhoTotaisRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CalcularCarrinho(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
