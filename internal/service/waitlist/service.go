// Package waitlist keeps the queue of patients waiting for a freed slot.
// The queue lives in memory only.
package waitlist

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/errors"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/messaging"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// Service is the waitlist queue. The zero value is not usable; call NewService.
type Service struct {
	mu     sync.Mutex
	queue  []model.WaitlistEntry
	nextID int64

	events  messaging.Emitter
	metrics *metrics.Metrics
	logger  *logger.Logger
	now     func() time.Time
}

// NewService returns an empty queue. events and log may be nil.
func NewService(events messaging.Emitter, m *metrics.Metrics, log *logger.Logger) *Service {
	if events == nil {
		events = messaging.NopEmitter{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		nextID:  1,
		events:  events,
		metrics: m,
		logger:  log.With("waitlist"),
		now:     time.Now,
	}
}

// observe must be called with mu held.
func (s *Service) observe() {
	if s.metrics != nil {
		s.metrics.WaitlistSize.Set(float64(len(s.queue)))
	}
}

func (s *Service) indexOfEntry(id int64) int {
	for i := range s.queue {
		if s.queue[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Service) indexOfPatient(patientID int64) int {
	for i := range s.queue {
		if s.queue[i].PatientID == patientID {
			return i
		}
	}
	return -1
}

func copyEntry(e model.WaitlistEntry) *model.WaitlistEntry {
	out := e
	if e.PreferredDate != nil {
		d := *e.PreferredDate
		out.PreferredDate = &d
	}
	if e.PreferredTime != nil {
		t := *e.PreferredTime
		out.PreferredTime = &t
	}
	if e.NotifiedAt != nil {
		n := *e.NotifiedAt
		out.NotifiedAt = &n
	}
	if e.AvailableSlot != nil {
		slot := *e.AvailableSlot
		out.AvailableSlot = &slot
	}
	return &out
}

// Enroll appends a waiting entry at the tail. A patient can hold at most one
// entry.
func (s *Service) Enroll(ctx context.Context, req model.EnrollRequest) (*model.WaitlistEntry, error) {
	if req.PatientID <= 0 {
		return nil, errors.Validation("patientId must be positive", nil)
	}
	if req.AppointmentType == "" {
		return nil, errors.Validation("appointmentType is required", nil)
	}

	s.mu.Lock()
	if s.indexOfPatient(req.PatientID) >= 0 {
		s.mu.Unlock()
		return nil, errors.AlreadyEnrolled(req.PatientID)
	}

	entry := model.WaitlistEntry{
		ID:              s.nextID,
		PatientID:       req.PatientID,
		AppointmentType: req.AppointmentType,
		PreferredDate:   req.PreferredDate,
		PreferredTime:   req.PreferredTime,
		EnrolledAt:      s.now(),
		Status:          model.WaitlistWaiting,
		Priority:        model.PriorityNormal,
	}
	s.nextID++
	s.queue = append(s.queue, *copyEntry(entry))
	s.observe()
	out := copyEntry(entry)
	s.mu.Unlock()

	s.logger.Info("Patient enrolled on waitlist", "entry_id", out.ID, "patient_id", out.PatientID)
	s.events.Emit(ctx, messaging.EventWaitlistEnrolled, out)
	return out, nil
}

// ProcessNext hands the slot to the first entry preferring its date or
// matching its type, or to the head of the queue when nothing matches.
// Empty slot fields never match. It returns (nil, nil) when the queue is
// empty.
func (s *Service) ProcessNext(ctx context.Context, slot model.Slot) (*model.WaitlistEntry, error) {
	s.mu.Lock()
	if len(s.queue) == 0 {
		s.mu.Unlock()
		return nil, nil
	}

	idx := 0
	for i, e := range s.queue {
		dateMatch := slot.Date != "" && e.PreferredDate != nil && *e.PreferredDate == slot.Date
		typeMatch := slot.Type != "" && e.AppointmentType == slot.Type
		if dateMatch || typeMatch {
			idx = i
			break
		}
	}

	entry := s.queue[idx]
	s.queue = append(s.queue[:idx], s.queue[idx+1:]...)

	now := s.now()
	offered := slot
	entry.Status = model.WaitlistNotified
	entry.NotificationsSent++
	entry.NotifiedAt = &now
	entry.AvailableSlot = &offered

	s.observe()
	if s.metrics != nil {
		s.metrics.WaitlistProcessed.Inc()
	}
	out := copyEntry(entry)
	s.mu.Unlock()

	s.logger.Info("Waitlist entry notified", "entry_id", out.ID, "patient_id", out.PatientID, "date", slot.Date, "time", slot.Time)
	s.events.Emit(ctx, messaging.EventWaitlistNotified, out)
	return out, nil
}

// Remove takes an entry off the queue without notifying it.
func (s *Service) Remove(ctx context.Context, entryID int64) (*model.WaitlistEntry, error) {
	s.mu.Lock()
	idx := s.indexOfEntry(entryID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, errors.NotFound("waitlist entry", nil)
	}
	removed := s.queue[idx]
	s.queue = append(s.queue[:idx], s.queue[idx+1:]...)
	s.observe()
	out := copyEntry(removed)
	s.mu.Unlock()

	s.events.Emit(ctx, messaging.EventWaitlistRemoved, out)
	return out, nil
}

// UpdatePriority changes one entry and then re-sorts the whole queue by
// rank. Entries of equal rank keep their relative order.
func (s *Service) UpdatePriority(ctx context.Context, entryID int64, priority string) (*model.WaitlistEntry, error) {
	if _, ok := model.PriorityRank(priority); !ok {
		return nil, errors.Validation(fmt.Sprintf("unknown priority %q", priority), nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfEntry(entryID)
	if idx < 0 {
		return nil, errors.NotFound("waitlist entry", nil)
	}
	s.queue[idx].Priority = priority

	sort.SliceStable(s.queue, func(i, j int) bool {
		ri, _ := model.PriorityRank(s.queue[i].Priority)
		rj, _ := model.PriorityRank(s.queue[j].Priority)
		return ri < rj
	})

	return copyEntry(s.queue[s.indexOfEntry(entryID)]), nil
}

// Position is the patient's 1-based place in the queue.
func (s *Service) Position(patientID int64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOfPatient(patientID)
	if idx < 0 {
		return 0, false
	}
	return idx + 1, true
}

// Queue returns the entries in order. The wait estimate uses the number of
// entries ahead, so the head reads "0 days".
func (s *Service) Queue() []model.WaitlistView {
	s.mu.Lock()
	defer s.mu.Unlock()

	views := make([]model.WaitlistView, 0, len(s.queue))
	for i, e := range s.queue {
		views = append(views, model.WaitlistView{
			WaitlistEntry:     *copyEntry(e),
			Position:          i + 1,
			EstimatedWaitTime: EstimateWaitTime(i),
		})
	}
	return views
}

// Stats summarizes the queue.
func (s *Service) Stats() model.WaitlistStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := len(s.queue)
	urgent := 0
	for _, e := range s.queue {
		if e.Priority == model.PriorityUrgent {
			urgent++
		}
	}
	avg := "0 days"
	if total > 0 {
		avg = EstimateWaitTime(total / 2)
	}
	return model.WaitlistStats{
		TotalWaiting: total,
		UrgentCount:  urgent,
		AvgWaitTime:  avg,
		QueueLength:  total,
	}
}

// EstimateWaitTime assumes two to three days per place in the queue.
func EstimateWaitTime(position int) string {
	minDays := int(math.Floor(float64(position) * 2.5))
	maxDays := int(math.Ceil(float64(minDays) * 1.5))
	if minDays == maxDays {
		if minDays == 1 {
			return "1 day"
		}
		return fmt.Sprintf("%d days", minDays)
	}
	return fmt.Sprintf("%d-%d days", minDays, maxDays)
}
