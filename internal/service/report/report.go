// Package report derives dashboard and report figures from store snapshots.
// Nothing is cached; every call reads the current data.
package report

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/errors"
)

const DefaultTrendMonths = 6

// Range presets, in days back from today.
var rangeDays = map[string]int{
	"week":    7,
	"month":   30,
	"quarter": 90,
	"year":    365,
}

// Snapshot is a point-in-time copy of the collections reports read.
type Snapshot struct {
	Patients       []model.Patient
	Appointments   []model.Appointment
	ClinicalNotes  []model.ClinicalNote
	Billing        []model.BillingRecord
	TreatmentPlans []model.TreatmentPlan
}

// percent rounds part/whole to a whole percentage; 0 when whole is 0.
func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func day(t time.Time) string {
	return t.Format(model.DateLayout)
}

// RangeFor resolves a preset name. An empty name means "month".
func RangeFor(preset string, now time.Time) (model.DateRange, error) {
	if preset == "" {
		preset = "month"
	}
	days, ok := rangeDays[preset]
	if !ok {
		return model.DateRange{}, errors.Validation(fmt.Sprintf("unknown range %q", preset), nil)
	}
	return model.DateRange{From: now.AddDate(0, 0, -days), To: now}, nil
}

// Dashboard counts for the landing page. The week starts on Sunday.
func Dashboard(s Snapshot, now time.Time) model.DashboardStats {
	today := day(now)
	weekStart := now.AddDate(0, 0, -int(now.Weekday()))
	week := model.DateRange{From: weekStart, To: weekStart.AddDate(0, 0, 6)}

	stats := model.DashboardStats{TotalPatients: len(s.Patients)}
	for _, a := range s.Appointments {
		if a.Date == today {
			stats.TodayAppointments++
		}
		if a.Status == model.AppointmentStatusScheduled {
			stats.PendingAppointments++
		}
	}
	for _, p := range s.Patients {
		if week.Contains(p.LastVisit) {
			stats.ThisWeekPatients++
		}
	}
	return stats
}

func Summary(s Snapshot, r model.DateRange) model.SummaryReport {
	out := model.SummaryReport{Range: r, TotalPatients: len(s.Patients)}
	for _, p := range s.Patients {
		if r.Contains(p.CreatedAt) {
			out.NewPatients++
		}
	}
	for _, a := range s.Appointments {
		if !r.Contains(a.Date) {
			continue
		}
		out.TotalAppointments++
		switch a.Status {
		case model.AppointmentStatusCompleted:
			out.CompletedAppointments++
		case model.AppointmentStatusCancelled:
			out.CancelledAppointments++
		}
	}
	for _, n := range s.ClinicalNotes {
		if r.Contains(n.Date) {
			out.ClinicalNotes++
		}
	}
	out.CompletionRate = percent(out.CompletedAppointments, out.TotalAppointments)
	out.CancellationRate = percent(out.CancelledAppointments, out.TotalAppointments)
	return out
}

func Revenue(records []model.BillingRecord) model.RevenueReport {
	var out model.RevenueReport
	for _, b := range records {
		out.TotalRevenue += b.Amount
		switch b.Status {
		case model.BillingStatusPaid:
			out.PaidRevenue += b.Amount
		case model.BillingStatusPending:
			out.PendingRevenue += b.Amount
		case model.BillingStatusOverdue:
			out.OverdueRevenue += b.Amount
		}
	}
	return out
}

// AppointmentTypes groups appointments by type, most frequent first. Ties
// are ordered by name.
func AppointmentTypes(appts []model.Appointment) []model.AppointmentTypeStat {
	byType := map[string]*model.AppointmentTypeStat{}
	for _, a := range appts {
		st, ok := byType[a.Type]
		if !ok {
			st = &model.AppointmentTypeStat{Type: a.Type}
			byType[a.Type] = st
		}
		st.Count++
		if a.Status == model.AppointmentStatusCompleted {
			st.Completed++
		}
	}

	out := make([]model.AppointmentTypeStat, 0, len(byType))
	for _, st := range byType {
		st.Share = percent(st.Count, len(appts))
		st.CompletionRate = percent(st.Completed, st.Count)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out
}

func Breakdown(appts []model.Appointment) model.StatusBreakdown {
	var out model.StatusBreakdown
	for _, a := range appts {
		switch a.Status {
		case model.AppointmentStatusCompleted:
			out.Completed++
		case model.AppointmentStatusScheduled:
			out.Scheduled++
		case model.AppointmentStatusConfirmed:
			out.Confirmed++
		case model.AppointmentStatusCancelled:
			out.Cancelled++
		}
	}
	return out
}

func Outcomes(plans []model.TreatmentPlan) model.TreatmentOutcomes {
	out := model.TreatmentOutcomes{TotalPlans: len(plans)}
	for _, p := range plans {
		if p.Status == model.PlanStatusActive {
			out.ActivePlans++
		}
		out.TotalMilestones += len(p.Milestones)
		for _, m := range p.Milestones {
			if m.Status == model.MilestoneCompleted {
				out.CompletedMilestones++
			}
		}
	}
	out.AverageCompletionRate = percent(out.CompletedMilestones, out.TotalMilestones)
	return out
}

// MonthlyTrends covers the given number of calendar months ending with the
// current one, oldest first.
func MonthlyTrends(s Snapshot, now time.Time, months int) []model.MonthlyTrend {
	if months <= 0 {
		months = DefaultTrendMonths
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	out := make([]model.MonthlyTrend, 0, months)
	for i := months - 1; i >= 0; i-- {
		m := first.AddDate(0, -i, 0)
		prefix := m.Format("2006-01")
		trend := model.MonthlyTrend{Month: m.Format("Jan")}
		for _, a := range s.Appointments {
			if strings.HasPrefix(a.Date, prefix) {
				trend.Appointments++
			}
		}
		for _, p := range s.Patients {
			if strings.HasPrefix(p.CreatedAt, prefix) {
				trend.NewPatients++
			}
		}
		for _, b := range s.Billing {
			if strings.HasPrefix(b.Date, prefix) {
				trend.Revenue += b.Amount
			}
		}
		out = append(out, trend)
	}
	return out
}

// age is the number of whole years between dob and now.
func age(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

func Ages(patients []model.Patient, now time.Time) model.AgeGroups {
	var out model.AgeGroups
	for _, p := range patients {
		dob, err := time.Parse(model.DateLayout, p.DateOfBirth)
		if err != nil {
			out.Unknown++
			continue
		}
		switch a := age(dob, now); {
		case a <= 30:
			out.Under31++
		case a <= 45:
			out.From31++
		case a <= 60:
			out.From46++
		default:
			out.Over60++
		}
	}
	return out
}

func Full(s Snapshot, r model.DateRange, now time.Time) model.FullReport {
	return model.FullReport{
		Summary:           Summary(s, r),
		Revenue:           Revenue(s.Billing),
		AppointmentTypes:  AppointmentTypes(s.Appointments),
		StatusBreakdown:   Breakdown(s.Appointments),
		TreatmentOutcomes: Outcomes(s.TreatmentPlans),
		MonthlyTrends:     MonthlyTrends(s, now, DefaultTrendMonths),
		AgeGroups:         Ages(s.Patients, now),
	}
}
