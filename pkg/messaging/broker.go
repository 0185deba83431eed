package messaging

import (
	"context"
	"time"
)

// DefaultChannel is where domain events are published.
const DefaultChannel = "clinic.events"

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Event is the envelope every domain event is published in.
type Event struct {
	Type       string      `json:"type"`
	Payload    interface{} `json:"payload"`
	OccurredAt time.Time   `json:"occurredAt"`
}

// Emitter is what services depend on to announce state changes.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{})
}

// Event types
const (
	EventAppointmentCreated   = "appointment.created"
	EventAppointmentCancelled = "appointment.cancelled"
	EventWaitlistEnrolled     = "waitlist.enrolled"
	EventWaitlistNotified     = "waitlist.notified"
	EventWaitlistRemoved      = "waitlist.removed"
	EventReminderScheduled    = "reminder.scheduled"
	EventReminderSent         = "reminder.sent"
	EventReminderFailed       = "reminder.failed"
	EventReminderCancelled    = "reminder.cancelled"
	EventDocumentAttached     = "document.attached"
	EventPaymentProcessed     = "billing.paid"
)
