package model

import "time"

const (
	WaitlistWaiting  = "waiting"
	WaitlistNotified = "notified"
)

const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

var priorityRank = map[string]int{
	PriorityUrgent: 0,
	PriorityHigh:   1,
	PriorityNormal: 2,
	PriorityLow:    3,
}

// PriorityRank orders priorities, lowest rank first. ok is false for
// unknown priorities.
func PriorityRank(p string) (rank int, ok bool) {
	rank, ok = priorityRank[p]
	return rank, ok
}

type WaitlistEntry struct {
	ID                int64      `json:"id"`
	PatientID         int64      `json:"patientId"`
	AppointmentType   string     `json:"appointmentType"`
	PreferredDate     *string    `json:"preferredDate"`
	PreferredTime     *string    `json:"preferredTime"`
	EnrolledAt        time.Time  `json:"enrolledAt"`
	Status            string     `json:"status"`
	Priority          string     `json:"priority"`
	NotificationsSent int        `json:"notificationsSent"`
	NotifiedAt        *time.Time `json:"notifiedAt,omitempty"`
	AvailableSlot     *Slot      `json:"availableSlot,omitempty"`
}

// WaitlistView is an entry as shown in the queue listing.
type WaitlistView struct {
	WaitlistEntry
	Position          int    `json:"position"`
	EstimatedWaitTime string `json:"estimatedWaitTime"`
}

type EnrollRequest struct {
	PatientID       int64   `json:"patientId" binding:"required,gt=0"`
	AppointmentType string  `json:"appointmentType" binding:"required"`
	PreferredDate   *string `json:"preferredDate" binding:"omitempty,ymd"`
	PreferredTime   *string `json:"preferredTime" binding:"omitempty,hhmm"`
}

type WaitlistStats struct {
	TotalWaiting int    `json:"totalWaiting"`
	UrgentCount  int    `json:"urgentCount"`
	AvgWaitTime  string `json:"avgWaitTime"`
	QueueLength  int    `json:"queueLength"`
}
