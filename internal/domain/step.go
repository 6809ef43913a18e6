package domain

import (
	"maps"
	"slices"
	"time"
)

type StepStatus string

const (
	StepPending   StepStatus = "PENDING"
	StepRunning   StepStatus = "RUNNING"
	StepCompleted StepStatus = "COMPLETED"
	StepFailed    StepStatus = "FAILED"
	StepSkipped   StepStatus = "SKIPPED"
)

// StepInstance is the mutable execution record derived from a StepTemplate.
// It is mutated only by the owning workflow's execution loop.
type StepInstance struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	WorkerType          string         `json:"worker_type"`
	DependsOn           []string       `json:"depends_on,omitempty"`
	Status              StepStatus     `json:"status"`
	Parameters          map[string]any `json:"parameters,omitempty"`
	Result              map[string]any `json:"result,omitempty"`
	Error               string         `json:"error,omitempty"`
	StartedAt           *time.Time     `json:"started_at,omitempty"`
	EndedAt             *time.Time     `json:"ended_at,omitempty"`
	ProgressPercent     int            `json:"progress_percent"`
	RetryCount          int            `json:"retry_count"`
	MaxRetries          int            `json:"max_retries"`
	EstimatedDurationMs int64          `json:"estimated_duration_ms"`
	ActualDurationMs    int64          `json:"actual_duration_ms,omitempty"`
}

// NewStepInstance materializes a pending step from its template.
func NewStepInstance(tpl StepTemplate, params map[string]any, maxRetries int) *StepInstance {
	return &StepInstance{
		ID:                  tpl.ID,
		Name:                tpl.Name,
		WorkerType:          tpl.WorkerType,
		DependsOn:           slices.Clone(tpl.DependsOn),
		Status:              StepPending,
		Parameters:          maps.Clone(params),
		MaxRetries:          maxRetries,
		EstimatedDurationMs: tpl.EstimatedDurationMs,
	}
}

// CanRetry reports whether another attempt is allowed after a failure.
func (s *StepInstance) CanRetry() bool {
	return s.RetryCount < s.MaxRetries
}

// IsSettled reports whether the step reached an outcome that unblocks or
// terminally blocks its dependents (COMPLETED, SKIPPED, or terminal FAILED).
func (s *StepInstance) IsSettled() bool {
	switch s.Status {
	case StepCompleted, StepSkipped:
		return true
	case StepFailed:
		return !s.CanRetry()
	default:
		return false
	}
}

// Satisfies reports whether this step's outcome lets a dependent proceed.
func (s *StepInstance) Satisfies() bool {
	return s.Status == StepCompleted || s.Status == StepSkipped
}

// Clone returns a deep copy safe to hand to readers outside the loop.
func (s *StepInstance) Clone() *StepInstance {
	out := *s
	out.DependsOn = slices.Clone(s.DependsOn)
	out.Parameters = maps.Clone(s.Parameters)
	out.Result = maps.Clone(s.Result)
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		out.EndedAt = &t
	}
	return &out
}
