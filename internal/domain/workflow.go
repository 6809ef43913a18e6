package domain

import (
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
)

type WorkflowStatus string

const (
	WorkflowRunning   WorkflowStatus = "RUNNING"
	WorkflowCompleted WorkflowStatus = "COMPLETED"
	WorkflowFailed    WorkflowStatus = "FAILED"
	WorkflowCancelled WorkflowStatus = "CANCELLED"
)

// WorkflowMetadata carries request context that never affects scheduling.
type WorkflowMetadata struct {
	RequesterID        *uuid.UUID     `json:"requester_id,omitempty"`
	Priority           int            `json:"priority"`
	OriginalParameters map[string]any `json:"original_parameters,omitempty"`
}

// WorkflowInstance is the aggregate root for one orchestration run. It is
// created by the scheduler, mutated only by its owning execution loop, and
// becomes immutable once it reaches a terminal status.
type WorkflowInstance struct {
	ID                    uuid.UUID                 `json:"id"`
	Kind                  string                    `json:"kind"`
	Status                WorkflowStatus            `json:"status"`
	Steps                 []*StepInstance           `json:"steps"`
	CompletedStepIDs      []string                  `json:"completed_step_ids"`
	CurrentStepID         string                    `json:"current_step_id,omitempty"`
	Results               map[string]map[string]any `json:"results,omitempty"`
	Error                 string                    `json:"error,omitempty"`
	CreatedAt             time.Time                 `json:"created_at"`
	UpdatedAt             time.Time                 `json:"updated_at"`
	CompletedAt           *time.Time                `json:"completed_at,omitempty"`
	EstimatedCompletionAt *time.Time                `json:"estimated_completion_at,omitempty"`
	Metadata              WorkflowMetadata          `json:"metadata"`
}

// --- FACTORY ---

// NewWorkflowInstance materializes a running instance from a template. The
// instance's steps mirror the template 1:1, same order, same dependency ids.
func NewWorkflowInstance(tpl *WorkflowTemplate, params map[string]any, meta WorkflowMetadata, maxRetries int) *WorkflowInstance {
	now := time.Now()
	steps := make([]*StepInstance, 0, len(tpl.Steps))
	for _, st := range tpl.Steps {
		steps = append(steps, NewStepInstance(st, params, maxRetries))
	}
	meta.OriginalParameters = maps.Clone(params)

	w := &WorkflowInstance{
		ID:               uuid.New(),
		Kind:             tpl.Kind,
		Status:           WorkflowRunning,
		Steps:            steps,
		CompletedStepIDs: []string{},
		CreatedAt:        now,
		UpdatedAt:        now,
		Metadata:         meta,
	}
	eta := now.Add(w.RemainingEstimate())
	w.EstimatedCompletionAt = &eta
	return w
}

// --- METHODS ---

func (w *WorkflowInstance) IsFinished() bool {
	return w.Status == WorkflowCompleted || w.Status == WorkflowFailed || w.Status == WorkflowCancelled
}

// StepByID returns the step instance with the given id, or nil.
func (w *WorkflowInstance) StepByID(id string) *StepInstance {
	for _, s := range w.Steps {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// NextRunnableStep selects the lowest-index PENDING step all of whose
// dependencies are COMPLETED or SKIPPED. Returns nil when nothing can run.
func (w *WorkflowInstance) NextRunnableStep() *StepInstance {
	for _, s := range w.Steps {
		if s.Status != StepPending {
			continue
		}
		if w.DependenciesSatisfied(s) {
			return s
		}
	}
	return nil
}

// DependenciesSatisfied reports whether every dependency of the step has an
// outcome that allows it to start.
func (w *WorkflowInstance) DependenciesSatisfied(s *StepInstance) bool {
	for _, dep := range s.DependsOn {
		parent := w.StepByID(dep)
		if parent == nil || !parent.Satisfies() {
			return false
		}
	}
	return true
}

// AllStepsSatisfied reports whether every step is COMPLETED or SKIPPED.
func (w *WorkflowInstance) AllStepsSatisfied() bool {
	for _, s := range w.Steps {
		if !s.Satisfies() {
			return false
		}
	}
	return true
}

// FirstFailedStep returns the first step whose failure is terminal, or nil.
func (w *WorkflowInstance) FirstFailedStep() *StepInstance {
	for _, s := range w.Steps {
		if s.Status == StepFailed && !s.CanRetry() {
			return s
		}
	}
	return nil
}

// RecomputeCompletedSteps rebuilds CompletedStepIDs from step statuses so the
// two never drift apart.
func (w *WorkflowInstance) RecomputeCompletedSteps() {
	ids := make([]string, 0, len(w.Steps))
	for _, s := range w.Steps {
		if s.Status == StepCompleted {
			ids = append(ids, s.ID)
		}
	}
	w.CompletedStepIDs = ids
}

// RemainingEstimate sums the estimated durations of steps that have not yet
// settled.
func (w *WorkflowInstance) RemainingEstimate() time.Duration {
	var total int64
	for _, s := range w.Steps {
		if !s.IsSettled() {
			total += s.EstimatedDurationMs
		}
	}
	return time.Duration(total) * time.Millisecond
}

// Touch advances UpdatedAt, keeping it monotonically non-decreasing.
func (w *WorkflowInstance) Touch() {
	now := time.Now()
	if !now.After(w.UpdatedAt) {
		// Strictly increasing even on a coarse clock; snapshot ordering
		// relies on UpdatedAt as a per-instance version.
		now = w.UpdatedAt.Add(time.Nanosecond)
	}
	w.UpdatedAt = now
}

// MergeResults collects every completed step's result keyed by step id.
func (w *WorkflowInstance) MergeResults() map[string]map[string]any {
	out := make(map[string]map[string]any, len(w.Steps))
	for _, s := range w.Steps {
		if s.Status == StepCompleted && s.Result != nil {
			out[s.ID] = maps.Clone(s.Result)
		}
	}
	return out
}

// Clone returns a deep copy safe to return to callers while the owning loop
// keeps mutating the original.
func (w *WorkflowInstance) Clone() *WorkflowInstance {
	out := *w
	out.Steps = make([]*StepInstance, len(w.Steps))
	for i, s := range w.Steps {
		out.Steps[i] = s.Clone()
	}
	out.CompletedStepIDs = slices.Clone(w.CompletedStepIDs)
	if w.Results != nil {
		out.Results = make(map[string]map[string]any, len(w.Results))
		for k, v := range w.Results {
			out.Results[k] = maps.Clone(v)
		}
	}
	if w.CompletedAt != nil {
		t := *w.CompletedAt
		out.CompletedAt = &t
	}
	if w.EstimatedCompletionAt != nil {
		t := *w.EstimatedCompletionAt
		out.EstimatedCompletionAt = &t
	}
	if w.Metadata.RequesterID != nil {
		id := *w.Metadata.RequesterID
		out.Metadata.RequesterID = &id
	}
	out.Metadata.OriginalParameters = maps.Clone(w.Metadata.OriginalParameters)
	return &out
}
