package billing

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/internal/handler"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/service/billing"
	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

type Handler struct {
	handler.Resource[model.BillingRecord]
	service *billing.Service
}

func NewHandler(service *billing.Service) *Handler {
	return &Handler{Resource: handler.NewResource[model.BillingRecord](service), service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	records := r.Group("/billing")
	h.Mount(records, handler.PatientFilter(h.Resource, h.service.ByPatient))
	records.POST("/:id/pay", h.ProcessPayment)
	records.GET("/:id/invoice", h.GenerateInvoice)
}

type paymentRequest struct {
	PaymentMethod string `json:"paymentMethod" binding:"required"`
}

func (h *Handler) ProcessPayment(c *gin.Context) {
	id, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.BindError(c, err)
		return
	}
	paid, err := h.service.ProcessPayment(c.Request.Context(), id, req.PaymentMethod)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, paid)
}

func (h *Handler) GenerateInvoice(c *gin.Context) {
	id, ok := httputil.IDParam(c, "id")
	if !ok {
		return
	}
	invoice, err := h.service.GenerateInvoice(c.Request.Context(), id)
	if err != nil {
		httputil.Error(c, err)
		return
	}
	httputil.OK(c, invoice)
}
