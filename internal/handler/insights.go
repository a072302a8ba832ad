package handler

import (
	"net/http"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/service"

	"github.com/gin-gonic/gin"
)

type InsightsHandler struct{ svc service.InsightService }

func NewInsightsHandler(svc service.InsightService) *InsightsHandler {
	return &InsightsHandler{svc: svc}
}

// Gerar godoc
// @Summary Análise das vendas recentes
// @Description Envia um resumo das últimas vendas ao serviço de texto externo. Indisponível quando não configurado.
// @Tags insights
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.InsightResponse
// @Failure 503 {object} apierror.APIError
// @Router /v1/insights [post]
func (h *InsightsHandler) Gerar(c *gin.Context) {
	resp, err := h.svc.Gerar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
