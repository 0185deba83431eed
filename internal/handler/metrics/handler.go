package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type Handler struct {
	m *metrics.Metrics
}

func NewHandler(m *metrics.Metrics) *Handler {
	return &Handler{m: m}
}

// Handler exposes the application registry in the Prometheus text format.
func (h *Handler) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(h.m.Registry, promhttp.HandlerOpts{Registry: h.m.Registry}))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/metrics", h.Handler())
}
