package handler

import (
	"net/http"
	"strconv"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/dto"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const movimentosLimitPadrao = 50

type ProdutosHandler struct{ svc service.ProdutoService }

func NewProdutosHandler(svc service.ProdutoService) *ProdutosHandler {
	return &ProdutosHandler{svc: svc}
}

// Criar godoc
// @Summary      Cadastrar produto
// @Tags         produtos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CriarProdutoRequest true "Dados do produto"
// @Success      201  {object} dto.ProdutoResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/produtos [post]
func (h *ProdutosHandler) Criar(c *gin.Context) {
	var req dto.CriarProdutoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Criar(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar produtos
// @Tags         produtos
// @Produce      json
// @Security     BearerAuth
// @Param        q     query string false "Busca por nome ou código"
// @Param        page  query int    false "Página"
// @Param        limit query int    false "Itens por página"
// @Success      200   {object} dto.ProdutoListResponse
// @Router       /v1/produtos [get]
func (h *ProdutosHandler) Listar(c *gin.Context) {
	var filter dto.ProdutoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Obter godoc
// @Summary      Obter produto
// @Tags         produtos
// @Produce      json
// @Security     BearerAuth
// @Param        id  path string true "UUID do produto"
// @Success      200 {object} dto.ProdutoResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/produtos/{id} [get]
func (h *ProdutosHandler) Obter(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObterPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ObterPorCodigo godoc
// @Summary      Buscar produto pelo código lido no caixa
// @Tags         produtos
// @Produce      json
// @Security     BearerAuth
// @Param        codigo path string true "Código de barras ou interno"
// @Success      200    {object} dto.ProdutoResponse
// @Failure      404    {object} apierror.APIError
// @Router       /v1/produtos/codigo/{codigo} [get]
func (h *ProdutosHandler) ObterPorCodigo(c *gin.Context) {
	resp, err := h.svc.ObterPorCodigo(c.Request.Context(), c.Param("codigo"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Atualizar godoc
// @Summary      Atualizar produto
// @Description  Altera nome, código e preços. O estoque só muda pelo ajuste de estoque.
// @Tags         produtos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                       true "UUID do produto"
// @Param        body body dto.AtualizarProdutoRequest true "Campos alterados"
// @Success      200  {object} dto.ProdutoResponse
// @Failure      404  {object} apierror.APIError
// @Router       /v1/produtos/{id} [put]
func (h *ProdutosHandler) Atualizar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AtualizarProdutoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Atualizar(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Remover godoc
// @Summary      Remover produto
// @Description  Vendas já registradas mantêm o snapshot do produto.
// @Tags         produtos
// @Security     BearerAuth
// @Param        id  path string true "UUID do produto"
// @Success      204
// @Failure      404 {object} apierror.APIError
// @Router       /v1/produtos/{id} [delete]
func (h *ProdutosHandler) Remover(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Remover(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AjustarEstoque godoc
// @Summary      Ajuste manual de estoque
// @Tags         produtos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                     true "UUID do produto"
// @Param        body body dto.AjustarEstoqueRequest true "Delta e motivo"
// @Success      200  {object} dto.ProdutoResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/produtos/{id}/estoque [patch]
func (h *ProdutosHandler) AjustarEstoque(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AjustarEstoqueRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AjustarEstoque(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Movimentos godoc
// @Summary      Histórico de estoque do produto
// @Tags         produtos
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string true  "UUID do produto"
// @Param        limit query int    false "Máximo de movimentos"
// @Success      200   {array} dto.MovimentoEstoqueResponse
// @Router       /v1/produtos/{id}/movimentos [get]
func (h *ProdutosHandler) Movimentos(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(movimentosLimitPadrao)))
	if err != nil || limit < 1 || limit > 500 {
		limit = movimentosLimitPadrao
	}
	resp, err := h.svc.ListarMovimentos(c.Request.Context(), id, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EtiquetasTodos godoc
// @Summary      Folha de etiquetas de todos os produtos
// @Tags         produtos
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        copias query int false "Etiquetas por produto"
// @Success      200
// @Router       /v1/produtos/etiquetas.pdf [get]
func (h *ProdutosHandler) EtiquetasTodos(c *gin.Context) {
	h.etiquetas(c, nil)
}

// Etiquetas godoc
// @Summary      Folha de etiquetas de um produto
// @Tags         produtos
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id     path  string true  "UUID do produto"
// @Param        copias query int    false "Quantidade de etiquetas"
// @Success      200
// @Failure      404    {object} apierror.APIError
// @Router       /v1/produtos/{id}/etiquetas.pdf [get]
func (h *ProdutosHandler) Etiquetas(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	h.etiquetas(c, &id)
}

func (h *ProdutosHandler) etiquetas(c *gin.Context, id *uuid.UUID) {
	var q dto.EtiquetasQuery
	if !bindQuery(c, &q) {
		return
	}
	pdf, err := h.svc.Etiquetas(c.Request.Context(), id, q.Copias)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="etiquetas.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
