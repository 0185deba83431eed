package model

import (
	"strings"
	"time"
)

const (
	DoctorStatusActive   = "Active"
	DoctorStatusInactive = "Inactive"
	DoctorStatusOnLeave  = "On Leave"
)

type Doctor struct {
	Base
	Name            string   `json:"name" binding:"required"`
	Specialty       string   `json:"specialty" binding:"required"`
	Email           string   `json:"email" binding:"omitempty,email"`
	Phone           string   `json:"phone"`
	LicenseNumber   string   `json:"licenseNumber"`
	YearsExperience int      `json:"yearsExperience" binding:"gte=0"`
	Status          string   `json:"status" binding:"omitempty,oneof=Active Inactive 'On Leave'"`
	Department      string   `json:"department"`
	Education       string   `json:"education"`
	Certifications  []string `json:"certifications"`
	ConsultationFee float64  `json:"consultationFee" binding:"gte=0"`
	Availability    string   `json:"availability"`
	Bio             string   `json:"bio"`
	JoinedDate      string   `json:"joinedDate"`
}

func (d *Doctor) ApplyDefaults(now time.Time) {
	if d.Status == "" {
		d.Status = DoctorStatusActive
	}
	if d.JoinedDate == "" {
		d.JoinedDate = today(now)
	}
	if d.Certifications == nil {
		d.Certifications = []string{}
	}
}

func (d *Doctor) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(d.Name), q) ||
		strings.Contains(strings.ToLower(d.Specialty), q) ||
		strings.Contains(strings.ToLower(d.Department), q) ||
		strings.Contains(strings.ToLower(d.Email), q)
}

// DoctorFilter narrows a doctor listing; empty fields match everything.
type DoctorFilter struct {
	Query     string `form:"q"`
	Specialty string `form:"specialty"`
	Status    string `form:"status"`
}
