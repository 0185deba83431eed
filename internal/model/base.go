package model

import (
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Collection names, shared by every storage backend.
const (
	CollectionPatients       = "patients"
	CollectionDoctors        = "doctors"
	CollectionAppointments   = "appointments"
	CollectionClinicalNotes  = "clinical_notes"
	CollectionBilling        = "billing"
	CollectionTreatmentPlans = "treatment_plans"
	CollectionDocuments      = "documents"
)

// Base contains common fields for all models
type Base struct {
	ID int64 `json:"id" db:"id"`
}

func (b *Base) GetID() int64 { return b.ID }

func (b *Base) SetID(id int64) { b.ID = id }

// Record is satisfied by a pointer to any stored entity type. Stores assign
// the id first and then call ApplyDefaults with the creation time.
type Record[T any] interface {
	*T
	GetID() int64
	SetID(id int64)
	ApplyDefaults(now time.Time)
}

// DateRange is an inclusive range of calendar days.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether the YYYY-MM-DD date falls inside the range.
// Unparseable dates never match.
func (r DateRange) Contains(date string) bool {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return false
	}
	from := r.From.Format(DateLayout)
	to := r.To.Format(DateLayout)
	day := d.Format(DateLayout)
	return day >= from && day <= to
}

func today(now time.Time) string {
	return now.Format(DateLayout)
}
