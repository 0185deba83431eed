package clinicalnote

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/clinicalnote"
)

type Handler struct {
	handler.Resource[model.ClinicalNote]
	service *clinicalnote.Service
}

func NewHandler(service *clinicalnote.Service) *Handler {
	return &Handler{Resource: handler.NewResource[model.ClinicalNote](service), service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	h.Mount(r.Group("/clinical-notes"), handler.PatientFilter(h.Resource, h.service.ByPatient))
}
