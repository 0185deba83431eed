package appointment

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/appointment"
	"github.com/jwalitptl/clinic-api/internal/service/reminder"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	handler.Resource[model.Appointment]
	service   *appointment.Service
	reminders *reminder.Service
}

func NewHandler(service *appointment.Service, reminders *reminder.Service) *Handler {
	return &Handler{
		Resource:  handler.NewResource[model.Appointment](service),
		service:   service,
		reminders: reminders,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appointments := r.Group("/appointments")
	{
		appointments.GET("", handler.PatientFilter(h.Resource, h.service.ByPatient))
		appointments.POST("", h.Book)
		appointments.GET("/slots", h.AvailableSlots)
		appointments.GET("/:id", h.Get)
		appointments.PUT("/:id", h.Update)
		appointments.PATCH("/:id", h.Update)
		appointments.DELETE("/:id", h.Delete)
		appointments.POST("/:id/cancel", h.Cancel)
		appointments.GET("/:id/reminders", h.ListReminders)
		appointments.POST("/:id/reminders", h.ScheduleReminder)
	}
}

// Book creates the appointment and, when the body carries a "reminders"
// object, its reminders.
func (h *Handler) Book(c *gin.Context) {
	var req model.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}
	booking, err := h.service.Book(c.Request.Context(), &req.Appointment, req.Reminders)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.Created(c, booking)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	cancellation, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, cancellation)
}

type slotsQuery struct {
	Date string `form:"date" binding:"required,ymd"`
	Type string `form:"type"`
}

func (h *Handler) AvailableSlots(c *gin.Context) {
	var q slotsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.BindError(c, err)
		return
	}
	slots, err := h.service.AvailableSlots(c.Request.Context(), q.Date, q.Type)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, slots)
}

func (h *Handler) ListReminders(c *gin.Context) {
	id, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	httputil.OK(c, h.reminders.ByAppointment(id))
}

func (h *Handler) ScheduleReminder(c *gin.Context) {
	id, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	var req model.ReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}
	appt, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	scheduled, err := h.reminders.Schedule(c.Request.Context(), appt, req)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.Created(c, scheduled)
}
