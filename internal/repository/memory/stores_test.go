package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/errors"
)

// roundTrip creates rec, reads it back, deletes it and checks it is gone.
func roundTrip[T any, P model.Record[T]](t *testing.T, store repository.Store[T], rec *T, check func(t *testing.T, created *T)) {
	t.Helper()
	ctx := context.Background()

	created, err := store.Create(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), P(created).GetID())
	check(t, created)

	got, err := store.Get(ctx, P(created).GetID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created, got)

	removed, err := store.Delete(ctx, P(created).GetID())
	require.NoError(t, err)
	assert.Equal(t, created, removed)

	got, err = store.Get(ctx, P(created).GetID())
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = store.Delete(ctx, P(created).GetID())
	assert.True(t, errors.IsNotFound(err))
}

func TestStores_RoundTripEveryCollection(t *testing.T) {
	stores := NewStores(Options{Now: func() time.Time { return fixedNow }}).Repository()

	t.Run(model.CollectionPatients, func(t *testing.T) {
		roundTrip[model.Patient](t, stores.Patients, &model.Patient{FirstName: "Ada", LastName: "Lovelace"},
			func(t *testing.T, p *model.Patient) {
				assert.Equal(t, model.PatientStatusActive, p.Status)
				assert.Equal(t, "2024-06-10", p.CreatedAt)
			})
	})

	t.Run(model.CollectionDoctors, func(t *testing.T) {
		roundTrip[model.Doctor](t, stores.Doctors, &model.Doctor{Name: "Dr. Grey", Specialty: "Cardiology"},
			func(t *testing.T, d *model.Doctor) {
				assert.Equal(t, model.DoctorStatusActive, d.Status)
				assert.Equal(t, "2024-06-10", d.JoinedDate)
				assert.NotNil(t, d.Certifications)
			})
	})

	t.Run(model.CollectionAppointments, func(t *testing.T) {
		roundTrip[model.Appointment](t, stores.Appointments, &model.Appointment{PatientID: 1, Date: "2024-06-12", Time: "10:00"},
			func(t *testing.T, a *model.Appointment) {
				assert.Equal(t, model.DefaultAppointmentDuration, a.Duration)
				assert.Equal(t, model.DefaultAppointmentType, a.Type)
				assert.Equal(t, model.AppointmentStatusScheduled, a.Status)
				assert.True(t, a.CreatedAt.Equal(fixedNow))
			})
	})

	t.Run(model.CollectionClinicalNotes, func(t *testing.T) {
		roundTrip[model.ClinicalNote](t, stores.ClinicalNotes, &model.ClinicalNote{PatientID: 1},
			func(t *testing.T, n *model.ClinicalNote) {
				assert.Equal(t, "2024-06-10", n.Date)
				assert.True(t, n.CreatedAt.Equal(fixedNow))
			})
	})

	t.Run(model.CollectionBilling, func(t *testing.T) {
		roundTrip[model.BillingRecord](t, stores.Billing, &model.BillingRecord{
			PatientID: 1,
			Items:     []model.LineItem{{Description: "Consult", Quantity: 2, UnitPrice: 40}},
		}, func(t *testing.T, b *model.BillingRecord) {
			assert.Equal(t, "INV-2024-0001", b.InvoiceNumber)
			assert.Equal(t, 80.0, b.Amount)
			assert.Equal(t, model.BillingStatusDraft, b.Status)
			assert.Equal(t, "2024-06-10", b.Date)
		})
	})

	t.Run(model.CollectionTreatmentPlans, func(t *testing.T) {
		roundTrip[model.TreatmentPlan](t, stores.TreatmentPlans, &model.TreatmentPlan{PatientID: 1, Title: "Rehab"},
			func(t *testing.T, p *model.TreatmentPlan) {
				assert.Equal(t, model.PlanStatusActive, p.Status)
				assert.Equal(t, "2024-06-10", p.StartDate)
				assert.NotNil(t, p.Milestones)
			})
	})

	t.Run(model.CollectionDocuments, func(t *testing.T) {
		roundTrip[model.Document](t, stores.Documents, &model.Document{PatientID: 1, Name: "xray.png"},
			func(t *testing.T, d *model.Document) {
				assert.Equal(t, model.DefaultDocumentCategory, d.Category)
				assert.True(t, d.UploadedAt.Equal(fixedNow))
			})
	})
}
