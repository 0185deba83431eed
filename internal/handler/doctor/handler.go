package doctor

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/doctor"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	handler.Resource[model.Doctor]
	service *doctor.Service
}

func NewHandler(service *doctor.Service) *Handler {
	return &Handler{Resource: handler.NewResource[model.Doctor](service), service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	doctors := r.Group("/doctors")
	doctors.GET("/specialties", h.Specialties)
	h.Mount(doctors, h.ListDoctors)
}

// ListDoctors filters by ?q=, ?specialty= and ?status=.
func (h *Handler) ListDoctors(c *gin.Context) {
	var f model.DoctorFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		httputil.BindError(c, err)
		return
	}
	doctors, err := h.service.Find(c.Request.Context(), f)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, doctors)
}

func (h *Handler) Specialties(c *gin.Context) {
	specialties, err := h.service.Specialties(c.Request.Context())
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, specialties)
}
