package report

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

type Service struct {
	stores repository.Stores
	loc    *time.Location
	logger *logger.Logger
	now    func() time.Time
}

func NewService(stores repository.Stores, loc *time.Location, log *logger.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		stores: stores,
		loc:    loc,
		logger: log.With("report"),
		now:    time.Now,
	}
}

func (s *Service) today() time.Time {
	return s.now().In(s.loc)
}

// snapshot reads every collection the reports need.
func (s *Service) snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	var err error

	if snap.Patients, err = s.stores.Patients.List(ctx); err != nil {
		return snap, fmt.Errorf("failed to load patients: %w", err)
	}
	if snap.Appointments, err = s.stores.Appointments.List(ctx); err != nil {
		return snap, fmt.Errorf("failed to load appointments: %w", err)
	}
	if snap.ClinicalNotes, err = s.stores.ClinicalNotes.List(ctx); err != nil {
		return snap, fmt.Errorf("failed to load clinical notes: %w", err)
	}
	if snap.Billing, err = s.stores.Billing.List(ctx); err != nil {
		return snap, fmt.Errorf("failed to load billing records: %w", err)
	}
	if snap.TreatmentPlans, err = s.stores.TreatmentPlans.List(ctx); err != nil {
		return snap, fmt.Errorf("failed to load treatment plans: %w", err)
	}
	return snap, nil
}

func (s *Service) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	stats := Dashboard(snap, s.today())
	return &stats, nil
}

func (s *Service) Summary(ctx context.Context, preset string) (*model.SummaryReport, error) {
	r, err := RangeFor(preset, s.today())
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := Summary(snap, r)
	return &out, nil
}

func (s *Service) Revenue(ctx context.Context) (*model.RevenueReport, error) {
	records, err := s.stores.Billing.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load billing records: %w", err)
	}
	out := Revenue(records)
	return &out, nil
}

func (s *Service) AppointmentTypes(ctx context.Context) ([]model.AppointmentTypeStat, error) {
	appts, err := s.stores.Appointments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}
	return AppointmentTypes(appts), nil
}

func (s *Service) StatusBreakdown(ctx context.Context) (*model.StatusBreakdown, error) {
	appts, err := s.stores.Appointments.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}
	out := Breakdown(appts)
	return &out, nil
}

func (s *Service) TreatmentOutcomes(ctx context.Context) (*model.TreatmentOutcomes, error) {
	plans, err := s.stores.TreatmentPlans.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load treatment plans: %w", err)
	}
	out := Outcomes(plans)
	return &out, nil
}

func (s *Service) MonthlyTrends(ctx context.Context, months int) ([]model.MonthlyTrend, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return MonthlyTrends(snap, s.today(), months), nil
}

func (s *Service) AgeGroups(ctx context.Context) (*model.AgeGroups, error) {
	patients, err := s.stores.Patients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load patients: %w", err)
	}
	out := Ages(patients, s.today())
	return &out, nil
}

func (s *Service) Full(ctx context.Context, preset string) (*model.FullReport, error) {
	now := s.today()
	r, err := RangeFor(preset, now)
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := Full(snap, r, now)
	s.logger.Debug("Report generated", "range", preset, "appointments", len(snap.Appointments))
	return &out, nil
}
