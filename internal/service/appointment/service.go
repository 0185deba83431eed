package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/crud"
	"github.com/jwalitptl/clinic-api/internal/service/reminder"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
)

// Default bookable hours
const (
	DefaultOpenTime  = "09:00"
	DefaultCloseTime = "17:00"
	DefaultSlot      = 30 * time.Minute
)

// Reminders is the part of the reminder scheduler appointments drive.
type Reminders interface {
	ScheduleForAppointment(ctx context.Context, appt *model.Appointment, cfg model.ReminderConfig) ([]model.Reminder, error)
	CancelForAppointment(ctx context.Context, appointmentID int64) []model.Reminder
}

// Waitlist receives slots freed by cancellations.
type Waitlist interface {
	ProcessNext(ctx context.Context, slot model.Slot) (*model.WaitlistEntry, error)
}

type Service struct {
	*crud.Service[model.Appointment]
	reminders Reminders
	waitlist  Waitlist
	loc       *time.Location
	open      time.Duration
	close     time.Duration
	slot      time.Duration
	events    messaging.Emitter
	logger    *logger.Logger
}

func NewService(
	store repository.Store[model.Appointment],
	reminders Reminders,
	waitlist Waitlist,
	clinic config.ClinicConfig,
	events messaging.Emitter,
	log *logger.Logger,
) *Service {
	if events == nil {
		events = messaging.NopEmitter{}
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &Service{
		Service:   crud.New(store, "appointment"),
		reminders: reminders,
		waitlist:  waitlist,
		loc:       clinic.Location(),
		slot:      time.Duration(clinic.SlotMinutes) * time.Minute,
		events:    events,
		logger:    log.With("appointment"),
	}

	var err error
	if s.open, err = clockOffset(clinic.OpenTime, DefaultOpenTime); err != nil {
		s.logger.Warn("Invalid clinic open time, using default", "open_time", clinic.OpenTime)
		s.open, _ = clockOffset(DefaultOpenTime, "")
	}
	if s.close, err = clockOffset(clinic.CloseTime, DefaultCloseTime); err != nil || s.close <= s.open {
		s.logger.Warn("Invalid clinic close time, using default", "close_time", clinic.CloseTime)
		s.close, _ = clockOffset(DefaultCloseTime, "")
	}
	if s.slot <= 0 {
		s.slot = DefaultSlot
	}
	return s
}

// clockOffset turns "HH:MM" into the time since midnight.
func clockOffset(hhmm, fallback string) (time.Duration, error) {
	if hhmm == "" {
		hhmm = fallback
	}
	t, err := time.Parse(model.TimeLayout, hhmm)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func (s *Service) ByPatient(ctx context.Context, patientID int64) ([]model.Appointment, error) {
	return s.Filter(ctx, func(a *model.Appointment) bool { return a.PatientID == patientID })
}

// Book creates the appointment and, when cfg enables any, its reminders.
// The reminder options are checked before anything is stored.
func (s *Service) Book(ctx context.Context, appt *model.Appointment, cfg *model.ReminderConfig) (*model.Booking, error) {
	withReminders := cfg != nil && cfg.Any() && s.reminders != nil
	if withReminders {
		if err := reminder.ValidateConfig(*cfg); err != nil {
			return nil, err
		}
		if _, err := appt.StartsAt(s.loc); err != nil {
			return nil, errors.Validation("invalid appointment date or time", err)
		}
	}

	created, err := s.Create(ctx, appt)
	if err != nil {
		return nil, err
	}
	booking := &model.Booking{Appointment: created, Reminders: []model.Reminder{}}

	if withReminders {
		reminders, err := s.reminders.ScheduleForAppointment(ctx, created, *cfg)
		if err != nil {
			s.logger.Warn("Failed to schedule reminders", "appointment_id", created.ID, "error", err.Error())
		} else {
			booking.Reminders = reminders
		}
	}

	s.logger.Info("Appointment booked", "appointment_id", created.ID, "patient_id", created.PatientID, "date", created.Date, "time", created.Time)
	s.events.Emit(ctx, messaging.EventAppointmentCreated, created)
	return booking, nil
}

// Update merges patch. Moving an appointment to Cancelled frees its slot
// the same way Cancel does.
func (s *Service) Update(ctx context.Context, id int64, patch []byte) (*model.Appointment, error) {
	before, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.Service.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	if !before.IsCancelled() && updated.IsCancelled() {
		s.release(ctx, updated)
	}
	return updated, nil
}

// Cancel sets the status to Cancelled, cancels the appointment's pending
// reminders and offers the slot to the waitlist.
func (s *Service) Cancel(ctx context.Context, id int64) (*model.Cancellation, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.IsCancelled() {
		return nil, errors.Conflict(fmt.Sprintf("appointment %d is already cancelled", id))
	}

	patch, _ := json.Marshal(map[string]string{"status": model.AppointmentStatusCancelled})
	updated, err := s.Service.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return s.release(ctx, updated), nil
}

// Delete removes the appointment. A slot that was still booked is released.
func (s *Service) Delete(ctx context.Context, id int64) (*model.Appointment, error) {
	removed, err := s.Service.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	if !removed.IsCancelled() {
		s.release(ctx, removed)
	}
	return removed, nil
}

// release runs the cancellation side effects. Waitlist failures are logged
// and do not undo the cancellation.
func (s *Service) release(ctx context.Context, appt *model.Appointment) *model.Cancellation {
	out := &model.Cancellation{Appointment: appt, CancelledReminders: []model.Reminder{}}

	if s.reminders != nil {
		out.CancelledReminders = s.reminders.CancelForAppointment(ctx, appt.ID)
	}
	if s.waitlist != nil {
		entry, err := s.waitlist.ProcessNext(ctx, model.SlotFor(appt))
		if err != nil {
			s.logger.Error(err, "Failed to offer freed slot to waitlist", "appointment_id", appt.ID)
		}
		out.WaitlistNotified = entry
	}

	s.logger.Info("Appointment slot released",
		"appointment_id", appt.ID,
		"reminders_cancelled", len(out.CancelledReminders),
		"waitlist_notified", out.WaitlistNotified != nil,
	)
	s.events.Emit(ctx, messaging.EventAppointmentCancelled, out)
	return out
}

// AvailableSlots lists the slots between opening and closing time on date
// not taken by a non-cancelled appointment. With the default hours that is
// every half hour from 09:00 to 16:30. An empty type means General.
func (s *Service) AvailableSlots(ctx context.Context, date, appointmentType string) ([]model.Slot, error) {
	day, err := time.ParseInLocation(model.DateLayout, date, s.loc)
	if err != nil {
		return nil, errors.Validation(fmt.Sprintf("invalid date %q", date), err)
	}
	if appointmentType == "" {
		appointmentType = model.DefaultAppointmentType
	}

	booked, err := s.Filter(ctx, func(a *model.Appointment) bool {
		return a.Date == date && !a.IsCancelled()
	})
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(booked))
	for _, a := range booked {
		taken[a.Time] = true
	}

	slots := []model.Slot{}
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	for off := s.open; off < s.close; off += s.slot {
		hhmm := midnight.Add(off).Format(model.TimeLayout)
		if taken[hhmm] {
			continue
		}
		slots = append(slots, model.Slot{
			Date:     date,
			Time:     hhmm,
			Type:     appointmentType,
			Duration: int(s.slot / time.Minute),
		})
	}
	return slots, nil
}
