package notification

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/circuitbreaker"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

func TestSimulatedEmail_Fallbacks(t *testing.T) {
	s := NewSimulatedEmail(0, "", nil)

	res, err := s.SendEmail(context.Background(), Message{Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, model.ReminderTypeEmail, res.Type)
	assert.Equal(t, "patient@example.com", res.Recipient)
	assert.Equal(t, ReminderSubject, res.Subject)
	assert.Equal(t, StatusDelivered, res.Status)
	assert.True(t, strings.HasPrefix(res.MessageID, "email_"))
}

func TestSimulatedSMS(t *testing.T) {
	s := NewSimulatedSMS(0, "", nil)

	res, err := s.SendSMS(context.Background(), "+15550100", "hi")
	require.NoError(t, err)
	assert.Equal(t, "+15550100", res.Recipient)
	assert.Empty(t, res.Subject)
	assert.True(t, strings.HasPrefix(res.MessageID, "sms_"))

	res, err = s.SendSMS(context.Background(), "", "hi")
	require.NoError(t, err)
	assert.Equal(t, "+1234567890", res.Recipient)
}

func TestSimulated_DelayHonorsContext(t *testing.T) {
	s := NewSimulatedEmail(time.Hour, "", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := s.SendEmail(ctx, Message{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func TestSMTPSender(t *testing.T) {
	d := &fakeDialer{}
	s := NewSMTPSender(config.SMTPConfig{From: "clinic@example.org"}, "", logger.Nop())
	s.dialer = d

	res, err := s.SendEmail(context.Background(), Message{To: "ada@example.com", Body: "See you"})
	require.NoError(t, err)
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"ada@example.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{ReminderSubject}, d.sent[0].GetHeader("Subject"))
	assert.True(t, strings.HasSuffix(res.MessageID, "@example.org"))

	d.err = errors.New("connection refused")
	_, err = s.SendEmail(context.Background(), Message{To: "ada@example.com"})
	assert.Error(t, err)
}

func TestSMTPSender_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	d := &fakeDialer{err: errors.New("connection refused")}
	s := NewSMTPSender(config.SMTPConfig{From: "clinic@example.org"}, "", nil)
	s.dialer = d

	for i := 0; i < smtpMaxFailures; i++ {
		_, err := s.SendEmail(context.Background(), Message{To: "ada@example.com"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, circuitbreaker.ErrOpen)
	}

	d.err = nil
	_, err := s.SendEmail(context.Background(), Message{To: "ada@example.com"})
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Empty(t, d.sent)
}

func TestNewSenders(t *testing.T) {
	senders, err := NewSenders(config.NotificationsConfig{Mode: config.NotifySimulated}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SimulatedEmail{}, senders.Email)

	senders, err = NewSenders(config.NotificationsConfig{Mode: config.NotifySMTP, SMTP: config.SMTPConfig{Host: "mail", Port: 25}}, nil)
	require.NoError(t, err)
	assert.IsType(t, &SMTPSender{}, senders.Email)
	assert.IsType(t, &SimulatedSMS{}, senders.SMS)

	_, err = NewSenders(config.NotificationsConfig{Mode: "pigeon"}, nil)
	assert.Error(t, err)
}
