package model

import (
	"fmt"
	"time"
)

const (
	AppointmentStatusScheduled = "Scheduled"
	AppointmentStatusConfirmed = "Confirmed"
	AppointmentStatusCompleted = "Completed"
	AppointmentStatusCancelled = "Cancelled"
)

const (
	DefaultAppointmentType     = "General"
	DefaultAppointmentDuration = 30
)

type Appointment struct {
	Base
	PatientID int64     `json:"patientId" binding:"required,gt=0"`
	DoctorID  int64     `json:"doctorId" binding:"gte=0"`
	Date      string    `json:"date" binding:"required,ymd"`
	Time      string    `json:"time" binding:"required,hhmm"`
	Duration  int       `json:"duration" binding:"gte=0"`
	Type      string    `json:"type"`
	Status    string    `json:"status" binding:"omitempty,oneof=Scheduled Confirmed Completed Cancelled"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"createdAt"`
}

func (a *Appointment) ApplyDefaults(now time.Time) {
	if a.Duration == 0 {
		a.Duration = DefaultAppointmentDuration
	}
	if a.Type == "" {
		a.Type = DefaultAppointmentType
	}
	if a.Status == "" {
		a.Status = AppointmentStatusScheduled
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
}

func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}

// StartsAt combines date and time in the clinic's location.
func (a *Appointment) StartsAt(loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout+" "+TimeLayout, a.Date+" "+a.Time, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid appointment date/time %q %q: %w", a.Date, a.Time, err)
	}
	return t, nil
}

// Slot is a bookable appointment window, also what a waitlisted patient is
// offered when an appointment is freed.
type Slot struct {
	Date     string `json:"date,omitempty" binding:"omitempty,ymd"`
	Time     string `json:"time,omitempty" binding:"omitempty,hhmm"`
	Type     string `json:"type,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

// SlotFor describes the window an appointment occupies.
func SlotFor(a *Appointment) Slot {
	return Slot{Date: a.Date, Time: a.Time, Type: a.Type, Duration: a.Duration}
}

// BookingRequest is an appointment plus the reminders to create with it.
type BookingRequest struct {
	Appointment
	Reminders *ReminderConfig `json:"reminders"`
}

type Booking struct {
	Appointment *Appointment `json:"appointment"`
	Reminders   []Reminder   `json:"reminders"`
}

// Cancellation reports what freeing an appointment's slot triggered.
type Cancellation struct {
	Appointment        *Appointment   `json:"appointment"`
	CancelledReminders []Reminder     `json:"cancelledReminders"`
	WaitlistNotified   *WaitlistEntry `json:"waitlistNotified,omitempty"`
}
