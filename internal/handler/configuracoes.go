package handler

import (
	"net/http"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/dto"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/service"

	"github.com/gin-gonic/gin"
)

type ConfiguracoesHandler struct{ svc service.ConfiguracaoService }

func NewConfiguracoesHandler(svc service.ConfiguracaoService) *ConfiguracoesHandler {
	return &ConfiguracoesHandler{svc: svc}
}

// Obter godoc
// @Summary Configurações da loja
// @Tags configuracoes
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.ConfiguracaoResponse
// @Router /v1/configuracoes [get]
func (h *ConfiguracoesHandler) Obter(c *gin.Context) {
	resp, err := h.svc.Obter(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Salvar godoc
// @Summary Salvar configurações da loja
// @Tags configuracoes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.ConfiguracaoRequest true "Nome, logo e QR do PIX"
// @Success 200 {object} dto.ConfiguracaoResponse
// @Router /v1/configuracoes [put]
func (h *ConfiguracoesHandler) Salvar(c *gin.Context) {
	var req dto.ConfiguracaoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Salvar(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
