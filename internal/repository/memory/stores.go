package memory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
)

// Stores is the full set of in-memory collections.
type Stores struct {
	Patients       *Store[model.Patient, *model.Patient]
	Doctors        *Store[model.Doctor, *model.Doctor]
	Appointments   *Store[model.Appointment, *model.Appointment]
	ClinicalNotes  *Store[model.ClinicalNote, *model.ClinicalNote]
	Billing        *Store[model.BillingRecord, *model.BillingRecord]
	TreatmentPlans *Store[model.TreatmentPlan, *model.TreatmentPlan]
	Documents      *Store[model.Document, *model.Document]
}

func NewStores(opts Options) *Stores {
	return &Stores{
		Patients:       NewStore[model.Patient](model.CollectionPatients, opts),
		Doctors:        NewStore[model.Doctor](model.CollectionDoctors, opts),
		Appointments:   NewStore[model.Appointment](model.CollectionAppointments, opts),
		ClinicalNotes:  NewStore[model.ClinicalNote](model.CollectionClinicalNotes, opts),
		Billing:        NewStore[model.BillingRecord](model.CollectionBilling, opts),
		TreatmentPlans: NewStore[model.TreatmentPlan](model.CollectionTreatmentPlans, opts),
		Documents:      NewStore[model.Document](model.CollectionDocuments, opts),
	}
}

func (s *Stores) Repository() repository.Stores {
	return repository.Stores{
		Patients:       s.Patients,
		Doctors:        s.Doctors,
		Appointments:   s.Appointments,
		ClinicalNotes:  s.ClinicalNotes,
		Billing:        s.Billing,
		TreatmentPlans: s.TreatmentPlans,
		Documents:      s.Documents,
	}
}

type seeder interface {
	Seed(raw json.RawMessage) error
}

func (s *Stores) seeders() map[string]seeder {
	return map[string]seeder{
		model.CollectionPatients:       s.Patients,
		model.CollectionDoctors:        s.Doctors,
		model.CollectionAppointments:   s.Appointments,
		model.CollectionClinicalNotes:  s.ClinicalNotes,
		model.CollectionBilling:        s.Billing,
		model.CollectionTreatmentPlans: s.TreatmentPlans,
		model.CollectionDocuments:      s.Documents,
	}
}

// LoadSeed reads a JSON object keyed by collection name, each value an
// array of records, and replaces those collections.
func (s *Stores) LoadSeed(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to decode seed data: %w", err)
	}

	seeders := s.seeders()
	for name, raw := range doc {
		sd, ok := seeders[name]
		if !ok {
			return fmt.Errorf("unknown collection %q in seed data", name)
		}
		if err := sd.Seed(raw); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stores) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	return s.LoadSeed(data)
}
