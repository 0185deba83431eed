package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

const (
	fallbackEmail = "patient@example.com"
	fallbackPhone = "+1234567890"
)

// sleep waits d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// SimulatedEmail pretends to deliver after a fixed delay. Every send
// succeeds unless the context ends first.
type SimulatedEmail struct {
	delay    time.Duration
	fallback string
	log      *logger.Logger
}

func NewSimulatedEmail(delay time.Duration, fallback string, log *logger.Logger) *SimulatedEmail {
	if fallback == "" {
		fallback = fallbackEmail
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SimulatedEmail{delay: delay, fallback: fallback, log: log.With("email")}
}

func (s *SimulatedEmail) SendEmail(ctx context.Context, msg Message) (*model.DeliveryResult, error) {
	if err := sleep(ctx, s.delay); err != nil {
		return nil, err
	}
	to := msg.To
	if to == "" {
		to = s.fallback
	}
	subject := msg.Subject
	if subject == "" {
		subject = ReminderSubject
	}
	res := &model.DeliveryResult{
		Type:      model.ReminderTypeEmail,
		Recipient: to,
		Subject:   subject,
		MessageID: "email_" + uuid.NewString(),
		Status:    StatusDelivered,
	}
	s.log.Debug("simulated email sent", "to", to, "message_id", res.MessageID)
	return res, nil
}

type SimulatedSMS struct {
	delay    time.Duration
	fallback string
	log      *logger.Logger
}

func NewSimulatedSMS(delay time.Duration, fallback string, log *logger.Logger) *SimulatedSMS {
	if fallback == "" {
		fallback = fallbackPhone
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SimulatedSMS{delay: delay, fallback: fallback, log: log.With("sms")}
}

func (s *SimulatedSMS) SendSMS(ctx context.Context, to, body string) (*model.DeliveryResult, error) {
	if err := sleep(ctx, s.delay); err != nil {
		return nil, err
	}
	if to == "" {
		to = s.fallback
	}
	res := &model.DeliveryResult{
		Type:      model.ReminderTypeSMS,
		Recipient: to,
		MessageID: "sms_" + uuid.NewString(),
		Status:    StatusDelivered,
	}
	s.log.Debug("simulated sms sent", "to", to, "message_id", res.MessageID)
	return res, nil
}
