package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowNotFound means neither the active table nor the store
	// knows the workflow id.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrWorkflowNotActive means the id has no in-memory execution loop.
	// A workflow that already reached a terminal status, or one owned by a
	// different process, cannot be stopped through this scheduler.
	ErrWorkflowNotActive = errors.New("workflow not active")
)

// StepExecutionError wraps a worker invocation failure. It is recoverable:
// the loop retries the step until MaxRetries is exhausted, after which the
// failure becomes terminal for the step and the workflow.
type StepExecutionError struct {
	StepID     string
	WorkerType string
	Err        error
}

func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %s (%s): %v", e.StepID, e.WorkerType, e.Err)
}

func (e *StepExecutionError) Unwrap() error {
	return e.Err
}
