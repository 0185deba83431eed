package model

import "time"

const (
	PlanStatusActive    = "active"
	PlanStatusCompleted = "completed"
	PlanStatusOnHold    = "on_hold"
)

const (
	MilestonePending    = "pending"
	MilestoneInProgress = "in_progress"
	MilestoneCompleted  = "completed"
)

type TreatmentPlan struct {
	Base
	PatientID     int64       `json:"patientId" binding:"required,gt=0"`
	Title         string      `json:"title" binding:"required"`
	Description   string      `json:"description"`
	Status        string      `json:"status"`
	StartDate     string      `json:"startDate" binding:"omitempty,ymd"`
	TargetEndDate string      `json:"targetEndDate" binding:"omitempty,ymd"`
	CreatedAt     time.Time   `json:"createdAt"`
	Milestones    []Milestone `json:"milestones"`
}

type Milestone struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title" binding:"required"`
	Description   string     `json:"description"`
	TargetDate    string     `json:"targetDate" binding:"omitempty,ymd"`
	Status        string     `json:"status"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedDate *time.Time `json:"completedDate"`
}

func (p *TreatmentPlan) ApplyDefaults(now time.Time) {
	if p.Status == "" {
		p.Status = PlanStatusActive
	}
	if p.StartDate == "" {
		p.StartDate = today(now)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.Milestones == nil {
		p.Milestones = []Milestone{}
	}
}

// NextMilestoneID is max+1 over the plan's milestones.
func (p *TreatmentPlan) NextMilestoneID() int64 {
	var max int64
	for _, m := range p.Milestones {
		if m.ID > max {
			max = m.ID
		}
	}
	return max + 1
}

func (p *TreatmentPlan) MilestoneIndex(id int64) int {
	for i, m := range p.Milestones {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func IsMilestoneStatus(s string) bool {
	switch s {
	case MilestonePending, MilestoneInProgress, MilestoneCompleted:
		return true
	}
	return false
}

type MilestoneStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending in_progress completed"`
	Notes  string `json:"notes"`
}
