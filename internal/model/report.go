package model

type DashboardStats struct {
	TotalPatients       int `json:"totalPatients"`
	TodayAppointments   int `json:"todayAppointments"`
	ThisWeekPatients    int `json:"thisWeekPatients"`
	PendingAppointments int `json:"pendingAppointments"`
}

type SummaryReport struct {
	Range                 DateRange `json:"range"`
	TotalPatients         int       `json:"totalPatients"`
	NewPatients           int       `json:"newPatients"`
	TotalAppointments     int       `json:"totalAppointments"`
	CompletedAppointments int       `json:"completedAppointments"`
	CancelledAppointments int       `json:"cancelledAppointments"`
	CompletionRate        int       `json:"completionRate"`
	CancellationRate      int       `json:"cancellationRate"`
	ClinicalNotes         int       `json:"clinicalNotes"`
}

type RevenueReport struct {
	TotalRevenue   float64 `json:"totalRevenue"`
	PaidRevenue    float64 `json:"paidRevenue"`
	PendingRevenue float64 `json:"pendingRevenue"`
	OverdueRevenue float64 `json:"overdueRevenue"`
}

type AppointmentTypeStat struct {
	Type           string `json:"type"`
	Count          int    `json:"count"`
	Share          int    `json:"share"`
	Completed      int    `json:"completed"`
	CompletionRate int    `json:"completionRate"`
}

type StatusBreakdown struct {
	Completed int `json:"completed"`
	Scheduled int `json:"scheduled"`
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
}

type TreatmentOutcomes struct {
	TotalPlans            int `json:"totalPlans"`
	ActivePlans           int `json:"activePlans"`
	CompletedMilestones   int `json:"completedMilestones"`
	TotalMilestones       int `json:"totalMilestones"`
	AverageCompletionRate int `json:"averageCompletionRate"`
}

type MonthlyTrend struct {
	Month        string  `json:"month"`
	Appointments int     `json:"appointments"`
	NewPatients  int     `json:"newPatients"`
	Revenue      float64 `json:"revenue"`
}

// AgeGroups buckets patients by age in whole years.
type AgeGroups struct {
	Under31 int `json:"18-30"`
	From31  int `json:"31-45"`
	From46  int `json:"46-60"`
	Over60  int `json:"60+"`
	Unknown int `json:"unknown"`
}

// FullReport is everything the reports screen shows at once.
type FullReport struct {
	Summary           SummaryReport         `json:"summary"`
	Revenue           RevenueReport         `json:"revenue"`
	AppointmentTypes  []AppointmentTypeStat `json:"appointmentTypes"`
	StatusBreakdown   StatusBreakdown       `json:"statusBreakdown"`
	TreatmentOutcomes TreatmentOutcomes     `json:"treatmentOutcomes"`
	MonthlyTrends     []MonthlyTrend        `json:"monthlyTrends"`
	AgeGroups         AgeGroups             `json:"ageGroups"`
}
