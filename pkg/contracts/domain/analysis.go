package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Quarter is a calendar quarter. The zero value disables quarter filtering.
type Quarter struct {
	Year   int `json:"year" validate:"required_with=Number,omitempty,min=2000,max=2100"`
	Number int `json:"number" validate:"required_with=Year,omitempty,min=1,max=4"`
}

// IsZero reports whether no quarter was selected.
func (q Quarter) IsZero() bool {
	return q.Year == 0 && q.Number == 0
}

// Start returns the first instant of the quarter in UTC.
func (q Quarter) Start() time.Time {
	return time.Date(q.Year, time.Month((q.Number-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
}

// End returns the first instant after the quarter.
func (q Quarter) End() time.Time {
	return q.Start().AddDate(0, 3, 0)
}

// Contains reports whether t falls in the quarter.
func (q Quarter) Contains(t time.Time) bool {
	if q.IsZero() {
		return true
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !d.Before(q.Start()) && d.Before(q.End())
}

// String renders the quarter as 2024-Q1.
func (q Quarter) String() string {
	if q.IsZero() {
		return ""
	}
	return fmt.Sprintf("%d-Q%d", q.Year, q.Number)
}

// ParseQuarter reads 2024-Q1 (or 2024Q1, any case). An empty string yields
// the zero quarter.
func ParseQuarter(s string) (Quarter, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return Quarter{}, nil
	}
	year, number, ok := strings.Cut(strings.Replace(s, "-Q", "Q", 1), "Q")
	if !ok {
		return Quarter{}, fmt.Errorf("invalid quarter %q: want YYYY-Qn", s)
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return Quarter{}, fmt.Errorf("invalid quarter year %q: %w", year, err)
	}
	n, err := strconv.Atoi(number)
	if err != nil || n < 1 || n > 4 {
		return Quarter{}, fmt.Errorf("invalid quarter number %q", number)
	}
	return Quarter{Year: y, Number: n}, nil
}

// QuarterOf returns the quarter containing t.
func QuarterOf(t time.Time) Quarter {
	return Quarter{Year: t.Year(), Number: (int(t.Month())-1)/3 + 1}
}

// AnalysisParams carries the run-time selections of one pipeline run.
type AnalysisParams struct {
	Teams        []string `json:"teams,omitempty"`
	Month        string   `json:"month,omitempty" validate:"omitempty,datetime=2006-01"`
	Quarter      Quarter  `json:"quarter"`
	Manufacturer string   `json:"manufacturer,omitempty" validate:"omitempty,max=100"`
	Statuses     []string `json:"statuses,omitempty" validate:"omitempty,dive,required"`
	OrderTypes   []string `json:"order_types,omitempty" validate:"omitempty,dive,required"`
}

// KeyedRatio is a billable/worked ratio for one aggregation key.
type KeyedRatio struct {
	Key      string  `json:"key"`
	Billable float64 `json:"billable_hours"`
	Worked   float64 `json:"worked_hours"`
	Ratio    float64 `json:"ratio"`
	Days     int     `json:"days"`
}

// ProductivityReport holds billable/worked ratios at every granularity.
type ProductivityReport struct {
	Overall      KeyedRatio              `json:"overall"`
	ByTechnician []KeyedRatio            `json:"by_technician"`
	ByTeam       []KeyedRatio            `json:"by_team"`
	ByMonth      []KeyedRatio            `json:"by_month"`
	ByTeamMonth  map[string][]KeyedRatio `json:"by_team_month"`
}

// KeyedMean is a mean of per-record ratios for one key.
type KeyedMean struct {
	Key   string  `json:"key"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// EfficiencyReport aggregates per-order efficiencies as a mean of ratios.
type EfficiencyReport struct {
	Mean             *float64    `json:"mean"`
	Exploitable      int         `json:"exploitable"`
	Total            int         `json:"total"`
	InProgress       float64     `json:"in_progress_share"`
	UnknownStatus    int         `json:"unknown_status"`
	ByTeam           []KeyedMean `json:"by_team"`
	ByTechnician     []KeyedMean `json:"by_technician"`
	InProgressOrders []WorkOrder `json:"in_progress_orders"`
}

// LeadTimeBucket counts invoices sharing the same lead time.
type LeadTimeBucket struct {
	Days  int `json:"days"`
	Count int `json:"count"`
}

// LeadTimeReport summarises invoice lead times for the reporting quarter.
type LeadTimeReport struct {
	Quarter      string           `json:"quarter,omitempty"`
	Mean         *float64         `json:"mean"`
	Median       *float64         `json:"median"`
	InvoiceCount int              `json:"invoice_count"`
	Distribution []LeadTimeBucket `json:"distribution"`
	ByTeam       []KeyedMean      `json:"by_team"`
	Invoices     []Invoice        `json:"invoices"`
}

// MonthGrid is the technician by day-of-month conformity pivot of one month.
type MonthGrid struct {
	Month    string                              `json:"month"`
	Statuses map[string]map[int]ConformityStatus `json:"statuses"`
	Hours    map[string]map[int]float64          `json:"hours"`
	Teams    map[string]string                   `json:"teams"`
	Counts   map[ConformityStatus]int            `json:"counts"`
}

// ConformityGrid holds one MonthGrid per month, ordered by month.
type ConformityGrid struct {
	Months []MonthGrid `json:"months"`
}

// TeamCorrelation is the Pearson r of a team's monthly productivity
// against the population series. R is nil when undefined.
type TeamCorrelation struct {
	Team   string   `json:"team"`
	R      *float64 `json:"r"`
	Months int      `json:"months"`
}

// CorrelationReport ranks teams by correlation with the population.
type CorrelationReport struct {
	Teams  []TeamCorrelation `json:"teams"`
	Leader string            `json:"leader,omitempty"`
}

// DatasetAudit counts what each stage absorbed for one source.
type DatasetAudit struct {
	Source         SourceKind `json:"source"`
	Rows           int        `json:"rows"`
	Dropped        int        `json:"dropped"`
	InvalidNumbers int        `json:"invalid_numbers"`
	InvalidDates   int        `json:"invalid_dates"`
	Duplicates     int        `json:"duplicates"`
	Unmatched      int        `json:"unmatched"`
	Excluded       int        `json:"excluded"`
	OutOfScope     int        `json:"out_of_scope"`
}

// DatasetFailure records a dataset rejected by the column resolver.
type DatasetFailure struct {
	Source  SourceKind `json:"source"`
	Missing []string   `json:"missing"`
	Seen    []string   `json:"seen"`
	Message string     `json:"message"`
}

// AnalysisResult is the complete output of one pipeline run.
type AnalysisResult struct {
	RunID        string                       `json:"run_id"`
	GeneratedAt  time.Time                    `json:"generated_at"`
	Params       AnalysisParams               `json:"params"`
	Productivity *ProductivityReport          `json:"productivity,omitempty"`
	Conformity   *ConformityGrid              `json:"conformity,omitempty"`
	Efficiency   *EfficiencyReport            `json:"efficiency,omitempty"`
	LeadTime     *LeadTimeReport              `json:"lead_time,omitempty"`
	Correlation  *CorrelationReport           `json:"correlation,omitempty"`
	Audit        map[SourceKind]*DatasetAudit `json:"audit"`
	Failures     []DatasetFailure             `json:"failures,omitempty"`
}
