package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/crud"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
)

const invoiceURLFormat = "https://example.com/invoices/%s.pdf"

type Service struct {
	*crud.Service[model.BillingRecord]
	events messaging.Emitter
	logger *logger.Logger
	now    func() time.Time
}

func NewService(store repository.Store[model.BillingRecord], events messaging.Emitter, log *logger.Logger) *Service {
	if events == nil {
		events = messaging.NopEmitter{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		Service: crud.New(store, "billing record"),
		events:  events,
		logger:  log.With("billing"),
		now:     time.Now,
	}
}

func (s *Service) ByPatient(ctx context.Context, patientID int64) ([]model.BillingRecord, error) {
	return s.Filter(ctx, func(b *model.BillingRecord) bool { return b.PatientID == patientID })
}

// ProcessPayment marks the record paid today with the given method.
func (s *Service) ProcessPayment(ctx context.Context, id int64, method string) (*model.BillingRecord, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return nil, errors.Validation("paymentMethod is required", nil)
	}

	paid, err := s.UpdateFields(ctx, id, map[string]interface{}{
		"status":        model.BillingStatusPaid,
		"paymentMethod": method,
		"paidDate":      s.now().Format(model.DateLayout),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment processed", "billing_id", id, "amount", paid.Amount, "method", method)
	s.events.Emit(ctx, messaging.EventPaymentProcessed, paid)
	return paid, nil
}

func (s *Service) GenerateInvoice(ctx context.Context, id int64) (*model.Invoice, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.Invoice{
		InvoiceNumber: rec.InvoiceNumber,
		InvoiceURL:    fmt.Sprintf(invoiceURLFormat, rec.InvoiceNumber),
	}, nil
}
