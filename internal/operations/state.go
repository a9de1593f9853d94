package operations

import (
	"time"

	"github.com/tafa1618/Copilot-Process/internal/dataprocessing"
	"github.com/tafa1618/Copilot-Process/pkg/contracts/domain"
)

// RunStatus represents the overall run status
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunState carries one pipeline run. Each stage owns one group of fields and
// only reads the fields of earlier stages.
type RunState struct {
	ID        string
	Params    domain.AnalysisParams
	Status    RunStatus
	StartTime time.Time
	EndTime   *time.Time
	Stages    map[string]*StageState
	Err       error

	// input
	Raw map[domain.SourceKind]*domain.RawTable

	// resolve
	Resolved map[domain.SourceKind]*dataprocessing.Resolution
	// normalize
	Normalized map[domain.SourceKind]domain.CanonicalTable
	// filter
	Filtered map[domain.SourceKind]domain.CanonicalTable
	// join
	Joined       map[domain.SourceKind]domain.CanonicalTable
	StatusJoined bool
	// collapse
	Days     []domain.AttendanceDay
	Orders   []domain.WorkOrder
	Invoices []domain.Invoice
	// classify
	Classified []domain.AttendanceDay

	// aggregate and correlate fill the result sections.
	Result *domain.AnalysisResult
}

// NewRunState creates the state of a run over raw tables.
func NewRunState(id string, raw map[domain.SourceKind]*domain.RawTable, params domain.AnalysisParams) *RunState {
	now := time.Now()
	return &RunState{
		ID:        id,
		Params:    params,
		Status:    RunStatusPending,
		StartTime: now,
		Stages:    make(map[string]*StageState),
		Raw:       raw,
		Result: &domain.AnalysisResult{
			RunID:       id,
			GeneratedAt: now.UTC(),
			Params:      params,
			Audit:       make(map[domain.SourceKind]*domain.DatasetAudit),
		},
	}
}

// Start marks the run as running
func (s *RunState) Start() {
	s.Status = RunStatusRunning
	s.StartTime = time.Now()
}

// Complete marks the run as completed
func (s *RunState) Complete() {
	now := time.Now()
	s.EndTime = &now
	s.Status = RunStatusCompleted
}

// Fail marks the run as failed
func (s *RunState) Fail(err error) {
	now := time.Now()
	s.EndTime = &now
	s.Status = RunStatusFailed
	s.Err = err
}

// Duration returns the run duration so far.
func (s *RunState) Duration() time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}

// Audit returns the audit record of source, creating it on first use.
func (s *RunState) Audit(source domain.SourceKind) *domain.DatasetAudit {
	a, ok := s.Result.Audit[source]
	if !ok {
		a = &domain.DatasetAudit{Source: source}
		s.Result.Audit[source] = a
	}
	return a
}

// Has reports whether source survived resolution.
func (s *RunState) Has(source domain.SourceKind) bool {
	_, ok := s.Resolved[source]
	return ok
}
