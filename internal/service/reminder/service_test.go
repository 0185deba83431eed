package reminder

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/notification"
	"github.com/jwalitptl/clinic-api/internal/repository/memory"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type fakeEmail struct {
	mu   sync.Mutex
	err  error
	sent []notification.Message
}

func (f *fakeEmail) SendEmail(ctx context.Context, msg notification.Message) (*model.DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, msg)
	return &model.DeliveryResult{Type: "email", Recipient: msg.To, Subject: msg.Subject, MessageID: "email_1", Status: "delivered"}, nil
}

type fakeSMS struct {
	mu sync.Mutex
	to []string
}

func (f *fakeSMS) SendSMS(_ context.Context, to, _ string) (*model.DeliveryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to = append(f.to, to)
	return &model.DeliveryResult{Type: "sms", Recipient: to, MessageID: "sms_1", Status: "delivered"}, nil
}

var fixedNow = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	email    *fakeEmail
	sms      *fakeSMS
	patients *memory.Store[model.Patient, *model.Patient]
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		email:    &fakeEmail{},
		sms:      &fakeSMS{},
		patients: memory.NewStore[model.Patient](model.CollectionPatients, memory.Options{}),
		metrics:  metrics.New("test"),
	}
	f.svc = NewService(notification.Senders{Email: f.email, SMS: f.sms}, f.patients, time.UTC, nil, f.metrics, nil)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func appointment() *model.Appointment {
	a := &model.Appointment{PatientID: 3, Date: "2024-06-10", Time: "14:00", Type: "Consultation"}
	a.ID = 7
	return a
}

func TestScheduleForAppointment_DayBefore(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.ScheduleForAppointment(context.Background(), appointment(), model.ReminderConfig{DayBefore: true})
	require.NoError(t, err)
	require.Len(t, created, 1)

	r := created[0]
	assert.Equal(t, time.Date(2024, 6, 9, 14, 0, 0, 0, time.UTC), r.ScheduledFor)
	assert.Equal(t, model.TimingDayBefore, r.Timing)
	assert.Equal(t, model.ReminderTypeEmail, r.Type)
	assert.Equal(t, model.ReminderScheduled, r.Status)
	assert.Equal(t, 3, r.MaxAttempts)
	assert.Equal(t, int64(7), r.AppointmentID)
	assert.Equal(t, int64(3), r.PatientID)
	assert.Equal(t,
		"Reminder: You have an appointment scheduled for Consultation in 24 hours. Date: 2024-06-10 at 14:00. Please arrive 15 minutes early.",
		r.Message)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RemindersScheduled))
}

func TestScheduleForAppointment_AllOptions(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.ScheduleForAppointment(context.Background(), appointment(), model.ReminderConfig{
		Type: model.ReminderTypeBoth, DayBefore: true, HourBefore: true, CustomTime: true, CustomMinutes: 90,
	})
	require.NoError(t, err)
	require.Len(t, created, 3)

	assert.Equal(t, time.Date(2024, 6, 10, 13, 0, 0, 0, time.UTC), created[1].ScheduledFor)
	custom := created[2]
	assert.Equal(t, time.Date(2024, 6, 10, 12, 30, 0, 0, time.UTC), custom.ScheduledFor)
	require.NotNil(t, custom.CustomTiming)
	assert.Equal(t, 90, *custom.CustomTiming)
	assert.Contains(t, custom.Message, "in 90 minutes")

	ids := map[int64]bool{}
	for _, r := range created {
		ids[r.ID] = true
	}
	assert.Len(t, ids, 3)
}

func TestScheduleForAppointment_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, minutes := range []int{0, 14, 1441} {
		_, err := f.svc.ScheduleForAppointment(ctx, appointment(), model.ReminderConfig{CustomTime: true, CustomMinutes: minutes})
		assert.True(t, errors.IsValidation(err), "minutes %d", minutes)
	}

	_, err := f.svc.ScheduleForAppointment(ctx, appointment(), model.ReminderConfig{Type: "pager", DayBefore: true})
	assert.True(t, errors.IsValidation(err))

	bad := appointment()
	bad.Time = "2pm"
	_, err = f.svc.ScheduleForAppointment(ctx, bad, model.ReminderConfig{DayBefore: true})
	assert.True(t, errors.IsValidation(err))

	none, err := f.svc.ScheduleForAppointment(ctx, appointment(), model.ReminderConfig{})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.Empty(t, f.svc.All())
}

func TestSend_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.ScheduleForAppointment(ctx, appointment(), model.ReminderConfig{Type: model.ReminderTypeBoth, DayBefore: true})
	require.NoError(t, err)

	sent, err := f.svc.Send(ctx, created[0].ID, &model.ContactInfo{Email: "ada@example.com", Phone: "+15550100"})
	require.NoError(t, err)
	assert.Equal(t, model.ReminderSent, sent.Status)
	assert.Equal(t, 1, sent.Attempts)
	require.NotNil(t, sent.SentAt)
	require.NotNil(t, sent.DeliveryStatus)
	assert.True(t, sent.DeliveryStatus.Success)
	assert.Equal(t, "ada@example.com", sent.DeliveryStatus.Email.Recipient)
	assert.Equal(t, "+15550100", sent.DeliveryStatus.SMS.Recipient)
	assert.Equal(t, notification.ReminderSubject, f.email.sent[0].Subject)

	_, err = f.svc.Send(ctx, created[0].ID, nil)
	assert.True(t, errors.IsAlreadySent(err))

	_, err = f.svc.Send(ctx, 999, nil)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RemindersSent.WithLabelValues("both")))
}

func TestSend_ContactFromPatientRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p, err := f.patients.Create(ctx, &model.Patient{FirstName: "Ada", Email: "ada@clinic.test", Phone: "+15550111"})
	require.NoError(t, err)

	appt := appointment()
	appt.PatientID = p.ID
	created, err := f.svc.ScheduleForAppointment(ctx, appt, model.ReminderConfig{Type: model.ReminderTypeSMS, HourBefore: true})
	require.NoError(t, err)

	_, err = f.svc.Send(ctx, created[0].ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"+15550111"}, f.sms.to)
}

func TestSend_FailsThenClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.email.err = stderrors.New("mailbox unavailable")

	created, err := f.svc.ScheduleForAppointment(ctx, appointment(), model.ReminderConfig{DayBefore: true})
	require.NoError(t, err)
	id := created[0].ID

	r, err := f.svc.Send(ctx, id, nil)
	require.Error(t, err)
	assert.Equal(t, model.ReminderRetry, r.Status)
	assert.Equal(t, 1, r.Attempts)
	assert.Contains(t, r.LastError, "mailbox unavailable")

	r, err = f.svc.Send(ctx, id, nil)
	require.Error(t, err)
	assert.Equal(t, model.ReminderRetry, r.Status)

	r, err = f.svc.Send(ctx, id, nil)
	require.Error(t, err)
	assert.Equal(t, model.ReminderFailed, r.Status)
	assert.Equal(t, 3, r.Attempts)
	assert.Nil(t, r.SentAt)

	_, err = f.svc.Send(ctx, id, nil)
	assert.True(t, errors.IsConflict(err))
	got, err := f.svc.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Attempts)
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.RemindersFailed.WithLabelValues("email")))
}

func TestSend_RetryThenSucceeds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.email.err = stderrors.New("timeout")

	created, err := f.svc.ScheduleForAppointment(ctx, appointment(), model.ReminderConfig{DayBefore: true})
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, created[0].ID, nil)
	require.Error(t, err)

	f.email.err = nil
	r, err := f.svc.Send(ctx, created[0].ID, nil)
	require.NoError(t, err)
	assert.Equal(t, model.ReminderSent, r.Status)
	assert.Equal(t, 2, r.Attempts)
	assert.Empty(t, r.LastError)
}

func TestCancelForAppointment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.ScheduleForAppointment(ctx, appointment(), model.ReminderConfig{DayBefore: true, HourBefore: true})
	require.NoError(t, err)
	require.Len(t, created, 2)

	other := appointment()
	other.ID = 8
	_, err = f.svc.ScheduleForAppointment(ctx, other, model.ReminderConfig{DayBefore: true})
	require.NoError(t, err)

	// Reminders are independent: cancelling one leaves the other.
	_, err = f.svc.Cancel(ctx, created[0].ID)
	require.NoError(t, err)
	second, err := f.svc.Get(created[1].ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReminderScheduled, second.Status)

	cancelled := f.svc.CancelForAppointment(ctx, 7)
	require.Len(t, cancelled, 1)
	assert.Equal(t, created[1].ID, cancelled[0].ID)

	assert.Empty(t, f.svc.CancelForAppointment(ctx, 7))
	for _, r := range f.svc.ByAppointment(7) {
		assert.Equal(t, model.ReminderCancelled, r.Status)
	}
	assert.Equal(t, model.ReminderScheduled, f.svc.ByAppointment(8)[0].Status)

	_, err = f.svc.Send(ctx, created[1].ID, nil)
	assert.True(t, errors.IsConflict(err))
	_, err = f.svc.Cancel(ctx, created[1].ID)
	assert.True(t, errors.IsConflict(err))
}

func TestDueRemindersAndProcessDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.ScheduleForAppointment(ctx, appointment(), model.ReminderConfig{DayBefore: true, HourBefore: true})
	require.NoError(t, err)

	dayBefore := created[0].ScheduledFor
	assert.Empty(t, f.svc.DueReminders(dayBefore.Add(-time.Second)))
	due := f.svc.DueReminders(dayBefore)
	require.Len(t, due, 1)
	assert.Equal(t, created[0].ID, due[0].ID)

	outcomes := f.svc.ProcessDue(ctx, dayBefore)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Success)
	assert.Empty(t, f.svc.DueReminders(dayBefore))

	f.email.err = stderrors.New("down")
	outcomes = f.svc.ProcessDue(ctx, created[1].ScheduledFor)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Success)
	assert.NotEmpty(t, outcomes[0].Error)

	// Retry reminders are not due, but the next round retries them.
	assert.Empty(t, f.svc.DueReminders(created[1].ScheduledFor))
	require.Len(t, f.svc.Retryable(created[1].ScheduledFor), 1)

	f.email.err = nil
	outcomes = f.svc.ProcessDue(ctx, created[1].ScheduledFor)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Success)
	assert.Equal(t, model.ReminderSent, outcomes[0].Reminder.Status)
	assert.Equal(t, 2, outcomes[0].Reminder.Attempts)
	assert.Empty(t, f.svc.ProcessDue(ctx, created[1].ScheduledFor))
}

func TestProcessDue_StopsRetryingAtMaxAttempts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.email.err = stderrors.New("down")

	created, err := f.svc.ScheduleForAppointment(ctx, appointment(), model.ReminderConfig{DayBefore: true})
	require.NoError(t, err)
	at := created[0].ScheduledFor

	for round := 1; round <= 3; round++ {
		outcomes := f.svc.ProcessDue(ctx, at)
		require.Len(t, outcomes, 1, "round %d", round)
		assert.False(t, outcomes[0].Success)
	}

	got, err := f.svc.Get(created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReminderFailed, got.Status)
	assert.Equal(t, 3, got.Attempts)
	assert.Empty(t, f.svc.ProcessDue(ctx, at))
	assert.Empty(t, f.svc.Retryable(at))
}

func TestSend_CancelledContextKeepsReminder(t *testing.T) {
	f := newFixture(t)

	created, err := f.svc.ScheduleForAppointment(context.Background(), appointment(), model.ReminderConfig{DayBefore: true})
	require.NoError(t, err)
	id := created[0].ID

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, err := f.svc.Send(ctx, id, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, model.ReminderScheduled, r.Status)
	assert.Equal(t, 0, r.Attempts)
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.RemindersFailed.WithLabelValues("email")))

	at := time.Date(2024, 6, 9, 15, 0, 0, 0, time.UTC)
	require.Len(t, f.svc.DueReminders(at), 1)
	outcomes := f.svc.ProcessDue(context.Background(), at)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Success)
	assert.Equal(t, 1, outcomes[0].Reminder.Attempts)
}

func TestSendImmediateAndSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r, err := f.svc.SendImmediate(ctx, 7, 3, "", nil)
	require.NoError(t, err)
	assert.Equal(t, model.ReminderSent, r.Status)
	assert.Equal(t, model.TimingImmediate, r.Timing)
	assert.Equal(t, fixedNow, r.ScheduledFor)
	require.NotNil(t, r.DeliveryStatus)
	assert.NotNil(t, r.DeliveryStatus.Email)
	assert.Nil(t, r.DeliveryStatus.SMS)

	single, err := f.svc.Schedule(ctx, appointment(), model.ReminderRequest{})
	require.NoError(t, err)
	assert.Equal(t, model.TimingDayBefore, single.Timing)

	custom := 45
	single, err = f.svc.Schedule(ctx, appointment(), model.ReminderRequest{CustomTiming: &custom, Message: "See you"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 10, 13, 15, 0, 0, time.UTC), single.ScheduledFor)
	assert.Equal(t, "See you", single.Message)

	tooSoon := 5
	_, err = f.svc.Schedule(ctx, appointment(), model.ReminderRequest{CustomTiming: &tooSoon})
	assert.True(t, errors.IsValidation(err))
}

func TestUpdateMessageAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assert.Equal(t, model.ReminderStats{SuccessRate: "0"}, f.svc.Stats())

	created, err := f.svc.ScheduleForAppointment(ctx, appointment(), model.ReminderConfig{DayBefore: true, HourBefore: true, CustomTime: true, CustomMinutes: 30})
	require.NoError(t, err)

	updated, err := f.svc.UpdateMessage(ctx, created[0].ID, "Bring your insurance card")
	require.NoError(t, err)
	assert.Equal(t, "Bring your insurance card", updated.Message)

	_, err = f.svc.Send(ctx, created[0].ID, nil)
	require.NoError(t, err)
	_, err = f.svc.UpdateMessage(ctx, created[0].ID, "too late")
	assert.True(t, errors.IsConflict(err))
	_, err = f.svc.UpdateMessage(ctx, 999, "x")
	assert.True(t, errors.IsNotFound(err))

	stats := f.svc.Stats()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Sent)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, "33.3", stats.SuccessRate)
}

func TestReturnedRemindersAreCopies(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.ScheduleForAppointment(context.Background(), appointment(), model.ReminderConfig{CustomTime: true, CustomMinutes: 20})
	require.NoError(t, err)

	*created[0].CustomTiming = 999
	created[0].Status = model.ReminderSent

	got, err := f.svc.Get(created[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 20, *got.CustomTiming)
	assert.Equal(t, model.ReminderScheduled, got.Status)
}
