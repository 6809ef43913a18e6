package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProgressEvent is published after every workflow state change so observers
// can follow a run without polling. It is a condensed view of the snapshot;
// reading two events in publish order never shows CompletedStepIDs shrink.
type ProgressEvent struct {
	WorkflowID       uuid.UUID      `json:"workflow_id"`
	Kind             string         `json:"kind"`
	Status           WorkflowStatus `json:"status"`
	CurrentStepID    string         `json:"current_step_id,omitempty"`
	CompletedStepIDs []string       `json:"completed_step_ids"`
	TotalSteps       int            `json:"total_steps"`
	ProgressPercent  int            `json:"progress_percent"`
	Error            string         `json:"error,omitempty"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// NewProgressEvent condenses a workflow snapshot into its broadcast form.
func NewProgressEvent(w *WorkflowInstance) ProgressEvent {
	percent := 0
	if len(w.Steps) > 0 {
		percent = len(w.CompletedStepIDs) * 100 / len(w.Steps)
	}
	return ProgressEvent{
		WorkflowID:       w.ID,
		Kind:             w.Kind,
		Status:           w.Status,
		CurrentStepID:    w.CurrentStepID,
		CompletedStepIDs: append([]string(nil), w.CompletedStepIDs...),
		TotalSteps:       len(w.Steps),
		ProgressPercent:  percent,
		Error:            w.Error,
		UpdatedAt:        w.UpdatedAt,
	}
}
