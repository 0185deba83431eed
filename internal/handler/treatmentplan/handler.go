package treatmentplan

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/treatmentplan"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	handler.Resource[model.TreatmentPlan]
	service *treatmentplan.Service
}

func NewHandler(service *treatmentplan.Service) *Handler {
	return &Handler{Resource: handler.NewResource[model.TreatmentPlan](service), service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	plans := r.Group("/treatment-plans")
	h.Mount(plans, handler.PatientFilter(h.Resource, h.service.ByPatient))

	milestones := plans.Group("/:id/milestones")
	{
		milestones.POST("", h.AddMilestone)
		milestones.PUT("/:milestoneId/status", h.UpdateMilestoneStatus)
		milestones.DELETE("/:milestoneId", h.DeleteMilestone)
	}
}

func (h *Handler) AddMilestone(c *gin.Context) {
	planID, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	var m model.Milestone
	if err := c.ShouldBindJSON(&m); err != nil {
		httputil.BindError(c, err)
		return
	}
	created, err := h.service.AddMilestone(c.Request.Context(), planID, m)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.Created(c, created)
}

func (h *Handler) UpdateMilestoneStatus(c *gin.Context) {
	planID, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	milestoneID, ok := httputil.IDParam(c, "milestoneId")
	if !ok {
		return
	}
	var req model.MilestoneStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}
	updated, err := h.service.UpdateMilestoneStatus(c.Request.Context(), planID, milestoneID, req.Status, req.Notes)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, updated)
}

func (h *Handler) DeleteMilestone(c *gin.Context) {
	planID, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	milestoneID, ok := httputil.IDParam(c, "milestoneId")
	if !ok {
		return
	}
	if err := h.service.DeleteMilestone(c.Request.Context(), planID, milestoneID); err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, gin.H{"deleted": milestoneID})
}
