package repository

import (
	"context"

	"github.com/jwalitptl/clinic-api/internal/model"
)

// Store is the CRUD contract every backend implements for one collection.
// List returns newest first. Get returns (nil, nil) when the id is absent;
// Update and Delete fail with a NotFound error instead.
type Store[T any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int64) (*T, error)
	Create(ctx context.Context, rec *T) (*T, error)
	Update(ctx context.Context, id int64, patch []byte) (*T, error)
	Delete(ctx context.Context, id int64) (*T, error)
}

// Pinger is implemented by backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Stores holds one store per collection.
type Stores struct {
	Patients       Store[model.Patient]
	Doctors        Store[model.Doctor]
	Appointments   Store[model.Appointment]
	ClinicalNotes  Store[model.ClinicalNote]
	Billing        Store[model.BillingRecord]
	TreatmentPlans Store[model.TreatmentPlan]
	Documents      Store[model.Document]
}
