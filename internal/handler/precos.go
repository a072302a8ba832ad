package handler

import (
	"net/http"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/service"

	"github.com/gin-gonic/gin"
)

// PrecosHandler serves the public price check used by the in-store kiosk.
// No authentication and no side effects; answers come from the Redis cache
// when warm.
type PrecosHandler struct{ svc service.ProdutoService }

func NewPrecosHandler(svc service.ProdutoService) *PrecosHandler { return &PrecosHandler{svc: svc} }

// Consultar godoc
// @Summary Consulta de preço por código (sem autenticação)
// @Tags precos
// @Produce json
// @Param codigo path string true "Código de barras ou interno"
// @Success 200 {object} dto.PrecoResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/precos/{codigo} [get]
func (h *PrecosHandler) Consultar(c *gin.Context) {
	resp, err := h.svc.ConsultarPreco(c.Request.Context(), c.Param("codigo"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
