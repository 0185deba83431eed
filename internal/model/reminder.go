package model

import "time"

const (
	ReminderTypeEmail = "email"
	ReminderTypeSMS   = "sms"
	ReminderTypeBoth  = "both"
)

// Reminder offsets, in minutes before the appointment.
const (
	TimingDayBefore  = 24 * 60
	TimingHourBefore = 60
	TimingThirtyMin  = 30
	TimingImmediate  = 0

	MinCustomTiming = 15
	MaxCustomTiming = 24 * 60
)

const (
	ReminderScheduled = "scheduled"
	ReminderSent      = "sent"
	ReminderRetry     = "retry"
	ReminderFailed    = "failed"
	ReminderCancelled = "cancelled"
)

const DefaultMaxAttempts = 3

type Reminder struct {
	ID             int64           `json:"id"`
	AppointmentID  int64           `json:"appointmentId"`
	PatientID      int64           `json:"patientId"`
	Type           string          `json:"type"`
	Timing         int             `json:"timing"`
	CustomTiming   *int            `json:"customTiming"`
	Message        string          `json:"message"`
	ScheduledFor   time.Time       `json:"scheduledFor"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	SentAt         *time.Time      `json:"sentAt"`
	DeliveryStatus *DeliveryStatus `json:"deliveryStatus"`
	Attempts       int             `json:"attempts"`
	MaxAttempts    int             `json:"maxAttempts"`
	LastError      string          `json:"lastError,omitempty"`
}

// Sendable reports whether a send attempt may still be made.
func (r *Reminder) Sendable() bool {
	return r.Status == ReminderScheduled || r.Status == ReminderRetry
}

// DeliveryResult describes one simulated or real transport send.
type DeliveryResult struct {
	Type      string `json:"type"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject,omitempty"`
	MessageID string `json:"messageId"`
	Status    string `json:"status"`
}

type DeliveryStatus struct {
	Success   bool            `json:"success"`
	MessageID string          `json:"messageId"`
	Email     *DeliveryResult `json:"email,omitempty"`
	SMS       *DeliveryResult `json:"sms,omitempty"`
}

// ContactInfo overrides the recipient addresses for a send.
type ContactInfo struct {
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone"`
}

// ReminderConfig selects which reminders to create for an appointment.
type ReminderConfig struct {
	Type          string `json:"type" binding:"omitempty,reminder_type"`
	DayBefore     bool   `json:"dayBefore"`
	HourBefore    bool   `json:"hourBefore"`
	CustomTime    bool   `json:"customTime"`
	CustomMinutes int    `json:"customMinutes"`
}

func (c ReminderConfig) Any() bool {
	return c.DayBefore || c.HourBefore || c.CustomTime
}

// ReminderRequest schedules a single reminder.
type ReminderRequest struct {
	Type         string `json:"type" binding:"omitempty,reminder_type"`
	Timing       int    `json:"timing" binding:"gte=0"`
	CustomTiming *int   `json:"customTiming"`
	Message      string `json:"message"`
}

type ReminderStats struct {
	Total       int    `json:"total"`
	Sent        int    `json:"sent"`
	Pending     int    `json:"pending"`
	Failed      int    `json:"failed"`
	SuccessRate string `json:"successRate"`
}

// SendOutcome is the per-reminder result of a batch send.
type SendOutcome struct {
	ReminderID int64     `json:"reminderId"`
	Success    bool      `json:"success"`
	Reminder   *Reminder `json:"reminder,omitempty"`
	Error      string    `json:"error,omitempty"`
}
