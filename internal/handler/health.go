package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/infra"
	"github.com/comercialplay2018-crypto/vendas-pos-tenda/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity; never exposes credentials or internals.
// The insights breaker is informative only: an open breaker does not fail the check.
func Health(db *gorm.DB, rdb *redis.Client, insightsCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		if rdb == nil || rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		body := gin.H{
			"ok":    status == http.StatusOK,
			"db":    dbStatus,
			"redis": redisStatus,
		}
		if insightsCB != nil {
			body["insights"] = insightsCB.State().String()
		}
		c.JSON(status, body)
	}
}

// Filas godoc
// @Summary Tamanho das filas de falhas (DLQ)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int64
// @Router /v1/filas [get]
func Filas(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		tamanhos, err := worker.DLQLengths(c.Request.Context(), rdb)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"dlq": tamanhos})
	}
}
