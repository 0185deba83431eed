package repository

import (
	"context"
	"time"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// Auditor receives one entry per successful mutation.
type Auditor interface {
	Record(ctx context.Context, action, collection string, id int64, patch []byte)
}

const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

type auditedStore[T any, P model.Record[T]] struct {
	next       Store[T]
	collection string
	auditor    Auditor
	metrics    *metrics.Metrics
}

// WithAudit wraps a store so every call is timed and counted, and every
// successful mutation is handed to the auditor. Either may be nil.
func WithAudit[T any, P model.Record[T]](next Store[T], collection string, auditor Auditor, m *metrics.Metrics) Store[T] {
	return &auditedStore[T, P]{
		next:       next,
		collection: collection,
		auditor:    auditor,
		metrics:    m,
	}
}

func (s *auditedStore[T, P]) observe(op string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.StoreOperations.WithLabelValues(s.collection, op, status).Inc()
	s.metrics.StoreLatency.WithLabelValues(s.collection, op).Observe(time.Since(start).Seconds())
}

func (s *auditedStore[T, P]) audit(ctx context.Context, action string, id int64, patch []byte) {
	if s.auditor != nil {
		s.auditor.Record(ctx, action, s.collection, id, patch)
	}
}

func (s *auditedStore[T, P]) List(ctx context.Context) ([]T, error) {
	start := time.Now()
	items, err := s.next.List(ctx)
	s.observe("list", start, err)
	return items, err
}

func (s *auditedStore[T, P]) Get(ctx context.Context, id int64) (*T, error) {
	start := time.Now()
	rec, err := s.next.Get(ctx, id)
	s.observe("get", start, err)
	return rec, err
}

func (s *auditedStore[T, P]) Create(ctx context.Context, rec *T) (*T, error) {
	start := time.Now()
	created, err := s.next.Create(ctx, rec)
	s.observe(ActionCreate, start, err)
	if err == nil {
		s.audit(ctx, ActionCreate, P(created).GetID(), nil)
	}
	return created, err
}

func (s *auditedStore[T, P]) Update(ctx context.Context, id int64, patch []byte) (*T, error) {
	start := time.Now()
	updated, err := s.next.Update(ctx, id, patch)
	s.observe(ActionUpdate, start, err)
	if err == nil {
		s.audit(ctx, ActionUpdate, id, patch)
	}
	return updated, err
}

func (s *auditedStore[T, P]) Delete(ctx context.Context, id int64) (*T, error) {
	start := time.Now()
	removed, err := s.next.Delete(ctx, id)
	s.observe(ActionDelete, start, err)
	if err == nil {
		s.audit(ctx, ActionDelete, id, nil)
	}
	return removed, err
}

// Ping forwards to the wrapped backend when it supports health checks.
func (s *auditedStore[T, P]) Ping(ctx context.Context) error {
	if p, ok := s.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Audited wraps every store of the set with WithAudit.
func Audited(s Stores, auditor Auditor, m *metrics.Metrics) Stores {
	return Stores{
		Patients:       WithAudit[model.Patient](s.Patients, model.CollectionPatients, auditor, m),
		Doctors:        WithAudit[model.Doctor](s.Doctors, model.CollectionDoctors, auditor, m),
		Appointments:   WithAudit[model.Appointment](s.Appointments, model.CollectionAppointments, auditor, m),
		ClinicalNotes:  WithAudit[model.ClinicalNote](s.ClinicalNotes, model.CollectionClinicalNotes, auditor, m),
		Billing:        WithAudit[model.BillingRecord](s.Billing, model.CollectionBilling, auditor, m),
		TreatmentPlans: WithAudit[model.TreatmentPlan](s.TreatmentPlans, model.CollectionTreatmentPlans, auditor, m),
		Documents:      WithAudit[model.Document](s.Documents, model.CollectionDocuments, auditor, m),
	}
}
