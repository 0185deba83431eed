// Package reminder schedules appointment reminders and delivers them through
// the notification senders. Reminders are kept in memory, in creation order.
package reminder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/notification"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

const immediateMessage = "Immediate appointment reminder"

// Service holds the reminders and sends them.
type Service struct {
	mu        sync.Mutex
	reminders []model.Reminder
	nextID    int64
	inFlight  map[int64]bool

	senders  notification.Senders
	patients repository.Store[model.Patient]
	loc      *time.Location

	events  messaging.Emitter
	metrics *metrics.Metrics
	logger  *logger.Logger
	now     func() time.Time
}

// NewService wires the scheduler. patients may be nil, in which case sends
// without explicit contact details go to the senders' fallback recipients.
func NewService(
	senders notification.Senders,
	patients repository.Store[model.Patient],
	loc *time.Location,
	events messaging.Emitter,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if events == nil {
		events = messaging.NopEmitter{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		nextID:   1,
		inFlight: make(map[int64]bool),
		senders:  senders,
		patients: patients,
		loc:      loc,
		events:   events,
		metrics:  m,
		logger:   log.With("reminder"),
		now:      time.Now,
	}
}

func copyReminder(r model.Reminder) model.Reminder {
	out := r
	if r.CustomTiming != nil {
		v := *r.CustomTiming
		out.CustomTiming = &v
	}
	if r.SentAt != nil {
		v := *r.SentAt
		out.SentAt = &v
	}
	if r.DeliveryStatus != nil {
		ds := *r.DeliveryStatus
		if ds.Email != nil {
			e := *ds.Email
			ds.Email = &e
		}
		if ds.SMS != nil {
			s := *ds.SMS
			ds.SMS = &s
		}
		out.DeliveryStatus = &ds
	}
	return out
}

func (s *Service) indexOf(id int64) int {
	for i := range s.reminders {
		if s.reminders[i].ID == id {
			return i
		}
	}
	return -1
}

func normalizeType(t string) (string, error) {
	switch t {
	case "":
		return model.ReminderTypeEmail, nil
	case model.ReminderTypeEmail, model.ReminderTypeSMS, model.ReminderTypeBoth:
		return t, nil
	default:
		return "", errors.Validation(fmt.Sprintf("unknown reminder type %q", t), nil)
	}
}

func validateCustom(minutes int) error {
	if minutes < model.MinCustomTiming || minutes > model.MaxCustomTiming {
		return errors.Validation(fmt.Sprintf("custom reminder must be between %d and %d minutes before the appointment",
			model.MinCustomTiming, model.MaxCustomTiming), nil)
	}
	return nil
}

// Message renders the reminder text for an appointment.
func Message(appt *model.Appointment, timeframe string) string {
	return fmt.Sprintf("Reminder: You have an appointment scheduled for %s in %s. Date: %s at %s. Please arrive 15 minutes early.",
		appt.Type, timeframe, appt.Date, appt.Time)
}

func timeframe(minutes int) string {
	switch minutes {
	case model.TimingDayBefore:
		return "24 hours"
	case model.TimingHourBefore:
		return "1 hour"
	default:
		return fmt.Sprintf("%d minutes", minutes)
	}
}

func (s *Service) newReminder(appt *model.Appointment, at time.Time, reminderType string, minutes int, custom bool, message string) model.Reminder {
	r := model.Reminder{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		Type:          reminderType,
		Timing:        minutes,
		Message:       message,
		ScheduledFor:  at.Add(-time.Duration(minutes) * time.Minute),
		Status:        model.ReminderScheduled,
		CreatedAt:     s.now(),
		MaxAttempts:   model.DefaultMaxAttempts,
	}
	if custom {
		m := minutes
		r.CustomTiming = &m
	}
	return r
}

// store assigns ids and appends. Callers must not hold mu.
func (s *Service) store(ctx context.Context, items []model.Reminder) []model.Reminder {
	s.mu.Lock()
	out := make([]model.Reminder, 0, len(items))
	for _, r := range items {
		r.ID = s.nextID
		s.nextID++
		s.reminders = append(s.reminders, r)
		out = append(out, copyReminder(r))
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RemindersScheduled.Add(float64(len(out)))
	}
	for i := range out {
		s.events.Emit(ctx, messaging.EventReminderScheduled, out[i])
	}
	return out
}

// ValidateConfig checks cfg without scheduling anything.
func ValidateConfig(cfg model.ReminderConfig) error {
	if _, err := normalizeType(cfg.Type); err != nil {
		return err
	}
	if cfg.CustomTime {
		return validateCustom(cfg.CustomMinutes)
	}
	return nil
}

// ScheduleForAppointment creates one reminder per enabled option in cfg,
// each scheduled that many minutes before the appointment starts.
func (s *Service) ScheduleForAppointment(ctx context.Context, appt *model.Appointment, cfg model.ReminderConfig) ([]model.Reminder, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	reminderType, _ := normalizeType(cfg.Type)
	at, err := appt.StartsAt(s.loc)
	if err != nil {
		return nil, errors.Validation("invalid appointment date or time", err)
	}

	var items []model.Reminder
	if cfg.DayBefore {
		items = append(items, s.newReminder(appt, at, reminderType, model.TimingDayBefore, false, Message(appt, timeframe(model.TimingDayBefore))))
	}
	if cfg.HourBefore {
		items = append(items, s.newReminder(appt, at, reminderType, model.TimingHourBefore, false, Message(appt, timeframe(model.TimingHourBefore))))
	}
	if cfg.CustomTime {
		items = append(items, s.newReminder(appt, at, reminderType, cfg.CustomMinutes, true, Message(appt, timeframe(cfg.CustomMinutes))))
	}
	if len(items) == 0 {
		return []model.Reminder{}, nil
	}

	created := s.store(ctx, items)
	s.logger.Info("Reminders scheduled", "appointment_id", appt.ID, "count", len(created))
	return created, nil
}

// Schedule creates a single reminder. Without a timing or custom timing it
// fires a day before the appointment.
func (s *Service) Schedule(ctx context.Context, appt *model.Appointment, req model.ReminderRequest) (*model.Reminder, error) {
	reminderType, err := normalizeType(req.Type)
	if err != nil {
		return nil, err
	}
	at, err := appt.StartsAt(s.loc)
	if err != nil {
		return nil, errors.Validation("invalid appointment date or time", err)
	}

	minutes, custom := req.Timing, false
	if req.CustomTiming != nil {
		if err := validateCustom(*req.CustomTiming); err != nil {
			return nil, err
		}
		minutes, custom = *req.CustomTiming, true
	} else if minutes == 0 {
		minutes = model.TimingDayBefore
	}

	message := req.Message
	if message == "" {
		message = Message(appt, timeframe(minutes))
	}

	created := s.store(ctx, []model.Reminder{s.newReminder(appt, at, reminderType, minutes, custom, message)})
	return &created[0], nil
}

// SendImmediate records a reminder due now and sends it straight away.
func (s *Service) SendImmediate(ctx context.Context, appointmentID, patientID int64, reminderType string, contact *model.ContactInfo) (*model.Reminder, error) {
	reminderType, err := normalizeType(reminderType)
	if err != nil {
		return nil, err
	}
	now := s.now()
	created := s.store(ctx, []model.Reminder{{
		AppointmentID: appointmentID,
		PatientID:     patientID,
		Type:          reminderType,
		Timing:        model.TimingImmediate,
		Message:       immediateMessage,
		ScheduledFor:  now,
		Status:        model.ReminderScheduled,
		CreatedAt:     now,
		MaxAttempts:   model.DefaultMaxAttempts,
	}})
	return s.Send(ctx, created[0].ID, contact)
}

// resolveContact fills blank addresses from the patient record.
func (s *Service) resolveContact(ctx context.Context, patientID int64, contact *model.ContactInfo) model.ContactInfo {
	var out model.ContactInfo
	if contact != nil {
		out = *contact
	}
	if (out.Email != "" && out.Phone != "") || s.patients == nil {
		return out
	}
	p, err := s.patients.Get(ctx, patientID)
	if err != nil {
		s.logger.Warn("Could not load patient contact details", "patient_id", patientID, "error", err.Error())
		return out
	}
	if p == nil {
		return out
	}
	if out.Email == "" {
		out.Email = p.Email
	}
	if out.Phone == "" {
		out.Phone = p.Phone
	}
	return out
}

func (s *Service) deliver(ctx context.Context, r model.Reminder, contact model.ContactInfo) (*model.DeliveryStatus, error) {
	status := &model.DeliveryStatus{MessageID: "msg_" + uuid.NewString()}

	if r.Type == model.ReminderTypeEmail || r.Type == model.ReminderTypeBoth {
		if s.senders.Email == nil {
			return nil, fmt.Errorf("no email transport configured")
		}
		res, err := s.senders.Email.SendEmail(ctx, notification.Message{
			To:      contact.Email,
			Subject: notification.ReminderSubject,
			Body:    r.Message,
		})
		if err != nil {
			return nil, fmt.Errorf("email: %w", err)
		}
		status.Email = res
	}
	if r.Type == model.ReminderTypeSMS || r.Type == model.ReminderTypeBoth {
		if s.senders.SMS == nil {
			return nil, fmt.Errorf("no sms transport configured")
		}
		res, err := s.senders.SMS.SendSMS(ctx, contact.Phone, r.Message)
		if err != nil {
			return nil, fmt.Errorf("sms: %w", err)
		}
		status.SMS = res
	}
	status.Success = true
	return status, nil
}

// Send delivers one reminder. The transport calls run without the lock; the
// outcome is recorded afterwards, so a reminder is never sent twice at once
// and attempts never exceed MaxAttempts.
func (s *Service) Send(ctx context.Context, id int64, contact *model.ContactInfo) (*model.Reminder, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, errors.NotFound("reminder", nil)
	}
	r := s.reminders[idx]
	switch {
	case r.Status == model.ReminderSent:
		s.mu.Unlock()
		return nil, errors.AlreadySent(id)
	case !r.Sendable():
		s.mu.Unlock()
		return nil, errors.Conflict(fmt.Sprintf("reminder %d is %s", id, r.Status))
	case s.inFlight[id]:
		s.mu.Unlock()
		return nil, errors.Conflict(fmt.Sprintf("reminder %d is already being sent", id))
	}
	s.inFlight[id] = true
	s.mu.Unlock()

	to := s.resolveContact(ctx, r.PatientID, contact)
	delivery, sendErr := s.deliver(ctx, r, to)

	s.mu.Lock()
	delete(s.inFlight, id)
	idx = s.indexOf(id)
	cur := &s.reminders[idx]
	if sendErr != nil && ctx.Err() != nil {
		// The caller gave up; the send does not count as an attempt.
		out := copyReminder(*cur)
		s.mu.Unlock()
		s.logger.Warn("Reminder send interrupted", "reminder_id", id, "error", ctx.Err().Error())
		return &out, fmt.Errorf("failed to send reminder %d: %w", id, ctx.Err())
	}
	cur.Attempts++
	if sendErr == nil {
		now := s.now()
		cur.Status = model.ReminderSent
		cur.SentAt = &now
		cur.DeliveryStatus = delivery
		cur.LastError = ""
	} else {
		cur.LastError = sendErr.Error()
		if cur.Attempts >= cur.MaxAttempts {
			cur.Status = model.ReminderFailed
		} else {
			cur.Status = model.ReminderRetry
		}
	}
	out := copyReminder(*cur)
	s.mu.Unlock()

	if sendErr != nil {
		if s.metrics != nil {
			s.metrics.RemindersFailed.WithLabelValues(out.Type).Inc()
		}
		s.logger.Error(sendErr, "Reminder delivery failed", "reminder_id", id, "attempts", out.Attempts, "status", out.Status)
		s.events.Emit(ctx, messaging.EventReminderFailed, out)
		return &out, fmt.Errorf("failed to send reminder %d: %w", id, sendErr)
	}

	if s.metrics != nil {
		s.metrics.RemindersSent.WithLabelValues(out.Type).Inc()
	}
	s.logger.Info("Reminder sent", "reminder_id", id, "appointment_id", out.AppointmentID, "type", out.Type)
	s.events.Emit(ctx, messaging.EventReminderSent, out)
	return &out, nil
}

// CancelForAppointment cancels the appointment's reminders that are still
// scheduled and returns them. Reminders already in retry, or mid-send, are
// left alone. Calling it again cancels nothing more.
func (s *Service) CancelForAppointment(ctx context.Context, appointmentID int64) []model.Reminder {
	s.mu.Lock()
	cancelled := []model.Reminder{}
	for i := range s.reminders {
		r := &s.reminders[i]
		if r.AppointmentID != appointmentID || r.Status != model.ReminderScheduled || s.inFlight[r.ID] {
			continue
		}
		r.Status = model.ReminderCancelled
		cancelled = append(cancelled, copyReminder(*r))
	}
	s.mu.Unlock()

	for i := range cancelled {
		s.events.Emit(ctx, messaging.EventReminderCancelled, cancelled[i])
	}
	if len(cancelled) > 0 {
		s.logger.Info("Appointment reminders cancelled", "appointment_id", appointmentID, "count", len(cancelled))
	}
	return cancelled
}

// Cancel stops a scheduled or retrying reminder.
func (s *Service) Cancel(ctx context.Context, id int64) (*model.Reminder, error) {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, errors.NotFound("reminder", nil)
	}
	r := &s.reminders[idx]
	if !r.Sendable() {
		s.mu.Unlock()
		return nil, errors.Conflict(fmt.Sprintf("reminder %d is %s", id, r.Status))
	}
	if s.inFlight[id] {
		s.mu.Unlock()
		return nil, errors.Conflict(fmt.Sprintf("reminder %d is being sent", id))
	}
	r.Status = model.ReminderCancelled
	out := copyReminder(*r)
	s.mu.Unlock()

	s.events.Emit(ctx, messaging.EventReminderCancelled, out)
	return &out, nil
}

// UpdateMessage replaces the text of a reminder that is still scheduled.
func (s *Service) UpdateMessage(_ context.Context, id int64, message string) (*model.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return nil, errors.NotFound("reminder", nil)
	}
	r := &s.reminders[idx]
	if r.Status != model.ReminderScheduled {
		return nil, errors.Conflict(fmt.Sprintf("reminder %d is %s and can no longer be edited", id, r.Status))
	}
	r.Message = message
	out := copyReminder(*r)
	return &out, nil
}

func (s *Service) filter(keep func(*model.Reminder) bool) []model.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Reminder{}
	for i := range s.reminders {
		if keep(&s.reminders[i]) {
			out = append(out, copyReminder(s.reminders[i]))
		}
	}
	return out
}

// Get returns a copy of one reminder.
func (s *Service) Get(id int64) (*model.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return nil, errors.NotFound("reminder", nil)
	}
	out := copyReminder(s.reminders[idx])
	return &out, nil
}

// All returns every reminder in creation order.
func (s *Service) All() []model.Reminder {
	return s.filter(func(*model.Reminder) bool { return true })
}

// ByAppointment returns the reminders of one appointment.
func (s *Service) ByAppointment(appointmentID int64) []model.Reminder {
	return s.filter(func(r *model.Reminder) bool { return r.AppointmentID == appointmentID })
}

// DueReminders lists scheduled reminders whose time has come.
func (s *Service) DueReminders(now time.Time) []model.Reminder {
	return s.filter(func(r *model.Reminder) bool {
		return r.Status == model.ReminderScheduled && !r.ScheduledFor.After(now)
	})
}

// Retryable lists reminders in retry whose time has come and that still have
// attempts left.
func (s *Service) Retryable(now time.Time) []model.Reminder {
	return s.filter(func(r *model.Reminder) bool {
		return r.Status == model.ReminderRetry && !r.ScheduledFor.After(now) && r.Attempts < r.MaxAttempts
	})
}

// ProcessDue sends every due reminder, then retries the ones a previous
// round left in retry, and reports each outcome. Failures do not stop the
// batch. A reminder is tried at most once per call.
func (s *Service) ProcessDue(ctx context.Context, now time.Time) []model.SendOutcome {
	due := append(s.DueReminders(now), s.Retryable(now)...)
	outcomes := make([]model.SendOutcome, 0, len(due))
	for _, r := range due {
		if err := ctx.Err(); err != nil {
			break
		}
		sent, err := s.Send(ctx, r.ID, nil)
		outcome := model.SendOutcome{ReminderID: r.ID, Success: err == nil, Reminder: sent}
		if err != nil {
			outcome.Error = err.Error()
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// Stats counts reminders by outcome.
func (s *Service) Stats() model.ReminderStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := model.ReminderStats{Total: len(s.reminders), SuccessRate: "0"}
	for _, r := range s.reminders {
		switch r.Status {
		case model.ReminderSent:
			stats.Sent++
		case model.ReminderScheduled:
			stats.Pending++
		case model.ReminderFailed:
			stats.Failed++
		}
	}
	if stats.Total > 0 {
		stats.SuccessRate = fmt.Sprintf("%.1f", float64(stats.Sent)/float64(stats.Total)*100)
	}
	return stats
}
