package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     h.cfg.ProjectName,
		"api_prefix":  h.cfg.APIPrefix,
		"environment": h.cfg.Environment,
	})
}

// Health pings the database and Redis. Either failing makes the whole
// service unhealthy.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "healthy", http.StatusOK
	checks := gin.H{"database": "ok", "cache": "ok"}

	if err := h.store.Ping(ctx); err != nil {
		slog.Error("health check: database", "error", err)
		checks["database"] = err.Error()
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	if err := h.cache.Ping(ctx); err != nil {
		slog.Error("health check: cache", "error", err)
		checks["cache"] = err.Error()
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
		"time":   h.now(),
	})
}
