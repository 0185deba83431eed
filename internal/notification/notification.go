// Package notification delivers reminder messages by email and SMS.
package notification

import (
	"context"
	"fmt"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

const (
	ReminderSubject = "Appointment Reminder"

	StatusDelivered = "delivered"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// EmailSender delivers one email. An empty To means the sender's fallback
// recipient.
type EmailSender interface {
	SendEmail(ctx context.Context, msg Message) (*model.DeliveryResult, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) (*model.DeliveryResult, error)
}

type Senders struct {
	Email EmailSender
	SMS   SMSSender
}

// NewSenders picks the transports for the configured mode. SMS is always
// simulated.
func NewSenders(cfg config.NotificationsConfig, log *logger.Logger) (Senders, error) {
	sms := NewSimulatedSMS(cfg.SimulatedDelay, cfg.DefaultPhone, log)

	switch cfg.Mode {
	case "", config.NotifySimulated:
		return Senders{
			Email: NewSimulatedEmail(cfg.SimulatedDelay, cfg.DefaultEmail, log),
			SMS:   sms,
		}, nil
	case config.NotifySMTP:
		return Senders{
			Email: NewSMTPSender(cfg.SMTP, cfg.DefaultEmail, log),
			SMS:   sms,
		}, nil
	default:
		return Senders{}, fmt.Errorf("unknown notification mode %q", cfg.Mode)
	}
}
