// Package api wires the internal HTTP surface the Nexus gateway calls.
package api

import (
	"urbandept/backend/internal/api/handler"
	"urbandept/backend/internal/auth"
	"urbandept/backend/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter binds the complaint operations behind the service token gate.
// Health and metrics endpoints stay outside the gate.
func NewRouter(h *handler.Handler, verifier *auth.Verifier, m *metrics.Collector, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger(logger, m))

	r.GET("/health", h.Health)
	r.GET("/health/ready", h.Ready)
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	internal := r.Group("/", handler.ServiceAuth(verifier, m, logger))
	{
		internal.POST("/complaints", h.Ingest)
		internal.POST("/update-status", h.UpdateStatus)
		internal.GET("/complaints/citizen", h.ByCitizen)
		internal.GET("/complaints", h.List)
		internal.GET("/complaints/:id", h.ByID)
	}

	return r
}
