package ports

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"curriculum-engine/internal/domain"
)

// ErrNotFound is returned by WorkflowStore.Load when no snapshot exists for
// the id. Adapters translate their backend's not-found error into this one.
var ErrNotFound = errors.New("workflow snapshot not found")

// WorkerInvoker executes one step's unit of work. The execution loop awaits
// the call; idempotence is NOT assumed, so a retried invocation may repeat
// side effects.
type WorkerInvoker interface {
	// Invoke runs the worker for the given type with the assembled payload
	// and returns its result document.
	Invoke(ctx context.Context, workerType string, payload map[string]any) (map[string]any, error)
}

// WorkflowStore is durable persistence for workflow snapshots, upsert
// semantics keyed by workflow id. Save failures are surfaced to the caller
// but must be treated as warnings by the loop; the in-memory copy is always
// the most current.
type WorkflowStore interface {
	Save(ctx context.Context, w *domain.WorkflowInstance) error

	// Load returns the persisted snapshot, or ErrNotFound.
	Load(ctx context.Context, id uuid.UUID) (*domain.WorkflowInstance, error)
}

// ProgressBroadcaster publishes workflow status changes to external
// listeners. Delivery is at-most-effort: a publish failure never fails the
// workflow.
type ProgressBroadcaster interface {
	Publish(ctx context.Context, event domain.ProgressEvent) error
}
