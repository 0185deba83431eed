package treatmentplan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/internal/repository"
	"github.com/jwalitptl/clinic-api/internal/service/crud"
	"github.com/jwalitptl/clinic-api/pkg/errors"
)

type Service struct {
	*crud.Service[model.TreatmentPlan]
	now func() time.Time
}

func NewService(store repository.Store[model.TreatmentPlan]) *Service {
	return &Service{Service: crud.New(store, "treatment plan"), now: time.Now}
}

func (s *Service) ByPatient(ctx context.Context, patientID int64) ([]model.TreatmentPlan, error) {
	return s.Filter(ctx, func(p *model.TreatmentPlan) bool { return p.PatientID == patientID })
}

// saveMilestones writes the plan's milestone list back as a whole.
func (s *Service) saveMilestones(ctx context.Context, plan *model.TreatmentPlan) (*model.TreatmentPlan, error) {
	return s.UpdateFields(ctx, plan.ID, map[string]interface{}{"milestones": plan.Milestones})
}

// AddMilestone appends a pending milestone with the next free id.
func (s *Service) AddMilestone(ctx context.Context, planID int64, m model.Milestone) (*model.Milestone, error) {
	if strings.TrimSpace(m.Title) == "" {
		return nil, errors.Validation("milestone title is required", nil)
	}
	plan, err := s.Get(ctx, planID)
	if err != nil {
		return nil, err
	}

	m.ID = plan.NextMilestoneID()
	m.Status = model.MilestonePending
	m.CreatedAt = s.now()
	m.CompletedDate = nil
	plan.Milestones = append(plan.Milestones, m)

	if _, err := s.saveMilestones(ctx, plan); err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMilestoneStatus stamps completedDate when the milestone is
// completed and clears it otherwise. Empty notes keep the old ones.
func (s *Service) UpdateMilestoneStatus(ctx context.Context, planID, milestoneID int64, status, notes string) (*model.Milestone, error) {
	if !model.IsMilestoneStatus(status) {
		return nil, errors.Validation(fmt.Sprintf("unknown milestone status %q", status), nil)
	}
	plan, err := s.Get(ctx, planID)
	if err != nil {
		return nil, err
	}
	idx := plan.MilestoneIndex(milestoneID)
	if idx < 0 {
		return nil, errors.NotFound("milestone", nil)
	}

	m := &plan.Milestones[idx]
	m.Status = status
	if notes != "" {
		m.Notes = notes
	}
	if status == model.MilestoneCompleted {
		now := s.now()
		m.CompletedDate = &now
	} else {
		m.CompletedDate = nil
	}

	if _, err := s.saveMilestones(ctx, plan); err != nil {
		return nil, err
	}
	out := *m
	return &out, nil
}

func (s *Service) DeleteMilestone(ctx context.Context, planID, milestoneID int64) error {
	plan, err := s.Get(ctx, planID)
	if err != nil {
		return err
	}
	idx := plan.MilestoneIndex(milestoneID)
	if idx < 0 {
		return errors.NotFound("milestone", nil)
	}
	plan.Milestones = append(plan.Milestones[:idx], plan.Milestones[idx+1:]...)
	_, err = s.saveMilestones(ctx, plan)
	return err
}
