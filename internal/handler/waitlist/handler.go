package waitlist

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/waitlist"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *waitlist.Service
}

func NewHandler(service *waitlist.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	w := r.Group("/waitlist")
	{
		w.GET("", h.Queue)
		w.POST("", h.Enroll)
		w.POST("/process", h.ProcessNext)
		w.GET("/stats", h.Stats)
		w.GET("/position/:patientId", h.Position)
		w.PUT("/:id/priority", h.UpdatePriority)
		w.DELETE("/:id", h.Remove)
	}
}

func (h *Handler) Enroll(c *gin.Context) {
	var req model.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}
	entry, err := h.service.Enroll(c.Request.Context(), req)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.Created(c, entry)
}

func (h *Handler) Queue(c *gin.Context) {
	httputil.OK(c, h.service.Queue())
}

// ProcessNext offers the slot in the body to the best waiting entry. Data is
// null when nobody is waiting.
func (h *Handler) ProcessNext(c *gin.Context) {
	var slot model.Slot
	if err := c.ShouldBindJSON(&slot); err != nil {
		httputil.BindError(c, err)
		return
	}
	entry, err := h.service.ProcessNext(c.Request.Context(), slot)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, gin.H{"notified": entry})
}

func (h *Handler) Stats(c *gin.Context) {
	httputil.OK(c, h.service.Stats())
}

func (h *Handler) Position(c *gin.Context) {
	patientID, ok := httputil.IDParam(c, "patientId")
	if !ok {
		return
	}
	pos, found := h.service.Position(patientID)
	if !found {
		httputil.Error(c, errors.NotFound("waitlist entry", nil))
		return
	}
	httputil.OK(c, gin.H{
		"patientId":         patientID,
		"position":          pos,
		"estimatedWaitTime": waitlist.EstimateWaitTime(pos - 1),
	})
}

type priorityRequest struct {
	Priority string `json:"priority" binding:"required,priority"`
}

func (h *Handler) UpdatePriority(c *gin.Context) {
	id, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	var req priorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}
	entry, err := h.service.UpdatePriority(c.Request.Context(), id, req.Priority)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, entry)
}

func (h *Handler) Remove(c *gin.Context) {
	id, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	removed, err := h.service.Remove(c.Request.Context(), id)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, removed)
}
