package patient

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/patient"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	handler.Resource[model.Patient]
	service *patient.Service
}

func NewHandler(service *patient.Service) *Handler {
	return &Handler{Resource: handler.NewResource[model.Patient](service), service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	h.Mount(r.Group("/patients"), h.ListPatients)
}

// ListPatients supports ?q= search over name, email and phone.
func (h *Handler) ListPatients(c *gin.Context) {
	patients, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, patients)
}
