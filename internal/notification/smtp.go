package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/circuitbreaker"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

const (
	smtpMaxFailures = 5
	smtpCooldown    = 30 * time.Second
)

// SMTPSender delivers email through a real mail server. After repeated
// failures it stops dialing for a cooldown and fails immediately.
type SMTPSender struct {
	dialer   dialer
	breaker  *circuitbreaker.CircuitBreaker
	from     string
	fallback string
	log      *logger.Logger
}

func NewSMTPSender(cfg config.SMTPConfig, fallback string, log *logger.Logger) *SMTPSender {
	if fallback == "" {
		fallback = fallbackEmail
	}
	if log == nil {
		log = logger.Nop()
	}
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		breaker: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "smtp",
			MaxFailures: smtpMaxFailures,
			Timeout:     smtpCooldown,
		}),
		from:     cfg.From,
		fallback: fallback,
		log:      log.With("smtp"),
	}
}

func (s *SMTPSender) SendEmail(ctx context.Context, msg Message) (*model.DeliveryResult, error) {
	if err := ctx.Err(); err != nil {
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

	domain := "localhost"
	if at := strings.LastIndex(s.from, "@"); at >= 0 {
		domain = s.from[at+1:]
	}
	id := fmt.Sprintf("%s@%s", uuid.NewString(), domain)

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetHeader("Message-ID", "<"+id+">")
	m.SetBody("text/plain", msg.Body)

	err := s.breaker.Execute(func() error {
		return s.dialer.DialAndSend(m)
	})
	if err != nil {
		s.log.Error(err, "smtp delivery failed", "to", to)
		return nil, fmt.Errorf("failed to send email: %w", err)
	}

	return &model.DeliveryResult{
		Type:      model.ReminderTypeEmail,
		Recipient: to,
		Subject:   subject,
		MessageID: id,
		Status:    StatusDelivered,
	}, nil
}
