package handler

import (
	"io"
	"time"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/realtime"

	"github.com/gin-gonic/gin"
)

const streamKeepAlive = 25 * time.Second

type StreamHandler struct{ hub *realtime.Hub }

func NewStreamHandler(hub *realtime.Hub) *StreamHandler { return &StreamHandler{hub: hub} }

// Assinar godoc
// @Summary Stream de snapshots de uma coleção (SSE)
// @Description Envia o conteúdo atual da coleção e um novo snapshot a cada alteração confirmada.
// @Tags stream
// @Produce text/event-stream
// @Security BearerAuth
// @Param colecao path string true "produtos | clientes | vendas | configuracoes"
// @Success 200
// @Failure 404 {object} apierror.APIError
// @Router /v1/stream/{colecao} [get]
func (h *StreamHandler) Assinar(c *gin.Context) {
	snapshots, err := h.hub.Assinar(c.Request.Context(), c.Param("colecao"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return false
			}
			c.SSEvent("snapshot", snap)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"em": time.Now().UTC()})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
