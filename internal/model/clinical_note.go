package model

import "time"

type ClinicalNote struct {
	Base
	PatientID      int64     `json:"patientId" binding:"required,gt=0"`
	AppointmentID  int64     `json:"appointmentId" binding:"gte=0"`
	DoctorID       int64     `json:"doctorId" binding:"gte=0"`
	Date           string    `json:"date" binding:"omitempty,ymd"`
	ChiefComplaint string    `json:"chiefComplaint"`
	Symptoms       string    `json:"symptoms"`
	Diagnosis      string    `json:"diagnosis"`
	Treatment      string    `json:"treatment"`
	FollowUp       string    `json:"followUp"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (n *ClinicalNote) ApplyDefaults(now time.Time) {
	if n.Date == "" {
		n.Date = today(now)
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
}
