package reminder

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/reminder"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	service *reminder.Service
	now     func() time.Time
}

func NewHandler(service *reminder.Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reminders := r.Group("/reminders")
	{
		reminders.GET("", h.List)
		reminders.GET("/due", h.Due)
		reminders.GET("/stats", h.Stats)
		reminders.POST("/process", h.ProcessDue)
		reminders.POST("/immediate", h.SendImmediate)
		reminders.GET("/:id", h.Get)
		reminders.POST("/:id/send", h.Send)
		reminders.POST("/:id/cancel", h.Cancel)
		reminders.PUT("/:id/message", h.UpdateMessage)
	}
}

func (h *Handler) List(c *gin.Context) {
	if c.Query("appointmentId") != "" {
		id, ok := httputil.QueryID(c, "appointmentId")
		if !ok {
			return
		}
		httputil.OK(c, h.service.ByAppointment(id))
		return
	}
	httputil.OK(c, h.service.All())
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	r, err := h.service.Get(id)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, r)
}

func (h *Handler) Due(c *gin.Context) {
	httputil.OK(c, h.service.DueReminders(h.now()))
}

func (h *Handler) Stats(c *gin.Context) {
	httputil.OK(c, h.service.Stats())
}

func (h *Handler) ProcessDue(c *gin.Context) {
	httputil.OK(c, h.service.ProcessDue(c.Request.Context(), h.now()))
}

// Send delivers a reminder now. The body may override the patient's contact
// details; an empty body uses the stored ones.
func (h *Handler) Send(c *gin.Context) {
	id, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	var contact *model.ContactInfo
	if c.Request.ContentLength != 0 {
		var body model.ContactInfo
		if err := c.ShouldBindJSON(&body); err != nil && err != io.EOF {
			httputil.BindError(c, err)
			return
		}
		contact = &body
	}
	sent, err := h.service.Send(c.Request.Context(), id, contact)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, sent)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	cancelled, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, cancelled)
}

type messageRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *Handler) UpdateMessage(c *gin.Context) {
	id, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}
	updated, err := h.service.UpdateMessage(c.Request.Context(), id, req.Message)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, updated)
}

type immediateRequest struct {
	AppointmentID int64              `json:"appointmentId" binding:"required,gt=0"`
	PatientID     int64              `json:"patientId" binding:"required,gt=0"`
	Type          string             `json:"type" binding:"omitempty,reminder_type"`
	Contact       *model.ContactInfo `json:"contactInfo"`
}

func (h *Handler) SendImmediate(c *gin.Context) {
	var req immediateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}
	sent, err := h.service.SendImmediate(c.Request.Context(), req.AppointmentID, req.PatientID, req.Type, req.Contact)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.Created(c, sent)
}
