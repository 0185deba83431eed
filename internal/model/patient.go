package model

import (
	"strings"
	"time"
)

const (
	PatientStatusActive   = "Active"
	PatientStatusInactive = "Inactive"
)

type Patient struct {
	Base
	FirstName          string `json:"firstName" binding:"required"`
	LastName           string `json:"lastName" binding:"required"`
	Email              string `json:"email" binding:"omitempty,email"`
	Phone              string `json:"phone"`
	DateOfBirth        string `json:"dateOfBirth" binding:"omitempty,ymd"`
	Address            string `json:"address"`
	EmergencyContact   string `json:"emergencyContact"`
	MedicalHistory     string `json:"medicalHistory"`
	Allergies          string `json:"allergies"`
	CurrentMedications string `json:"currentMedications"`
	Status             string `json:"status"`
	CreatedAt          string `json:"createdAt"`
	LastVisit          string `json:"lastVisit"`
}

// ApplyDefaults stamps createdAt and lastVisit with the creation day.
func (p *Patient) ApplyDefaults(now time.Time) {
	p.CreatedAt = today(now)
	p.LastVisit = today(now)
	if p.Status == "" {
		p.Status = PatientStatusActive
	}
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Matches is the case-insensitive search used by the patient list.
func (p *Patient) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.FullName()), q) ||
		strings.Contains(strings.ToLower(p.Email), q) ||
		strings.Contains(p.Phone, q)
}
