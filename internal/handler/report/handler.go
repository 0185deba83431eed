package report

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/service/report"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *report.Service
}

func NewHandler(service *report.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reports := r.Group("/reports")
	{
		reports.GET("/dashboard", h.Dashboard)
		reports.GET("/summary", h.Summary)
		reports.GET("/revenue", h.Revenue)
		reports.GET("/appointment-types", h.AppointmentTypes)
		reports.GET("/status", h.StatusBreakdown)
		reports.GET("/treatment-outcomes", h.TreatmentOutcomes)
		reports.GET("/trends", h.MonthlyTrends)
		reports.GET("/age-groups", h.AgeGroups)
		reports.GET("/full", h.Full)
	}
}

func respond(c *gin.Context, data interface{}, err error) {
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, data)
}

func (h *Handler) Dashboard(c *gin.Context) {
	stats, err := h.service.Dashboard(c.Request.Context())
	respond(c, stats, err)
}

// Summary takes ?range=week|month|quarter|year, month by default.
func (h *Handler) Summary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), c.Query("range"))
	respond(c, summary, err)
}

func (h *Handler) Revenue(c *gin.Context) {
	revenue, err := h.service.Revenue(c.Request.Context())
	respond(c, revenue, err)
}

func (h *Handler) AppointmentTypes(c *gin.Context) {
	types, err := h.service.AppointmentTypes(c.Request.Context())
	respond(c, types, err)
}

func (h *Handler) StatusBreakdown(c *gin.Context) {
	breakdown, err := h.service.StatusBreakdown(c.Request.Context())
	respond(c, breakdown, err)
}

func (h *Handler) TreatmentOutcomes(c *gin.Context) {
	outcomes, err := h.service.TreatmentOutcomes(c.Request.Context())
	respond(c, outcomes, err)
}

func (h *Handler) MonthlyTrends(c *gin.Context) {
	months := 0
	if raw := c.Query("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 24 {
			httputil.Error(c, errors.Validation("months must be between 1 and 24", err))
			return
		}
		months = n
	}
	trends, err := h.service.MonthlyTrends(c.Request.Context(), months)
	respond(c, trends, err)
}

func (h *Handler) AgeGroups(c *gin.Context) {
	groups, err := h.service.AgeGroups(c.Request.Context())
	respond(c, groups, err)
}

func (h *Handler) Full(c *gin.Context) {
	full, err := h.service.Full(c.Request.Context(), c.Query("range"))
	respond(c, full, err)
}
