package engine

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"curriculum-engine/internal/core/ports"
	"curriculum-engine/internal/domain"
	"curriculum-engine/internal/metrics"
	"curriculum-engine/internal/template"
)

// Config tunes the retry policy of the execution loop.
type Config struct {
	// MaxRetries is the per-step retry budget applied at instantiation.
	MaxRetries int

	// BaseBackoff is the delay before the first retry; each further retry
	// doubles it up to MaxBackoff.
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// DefaultConfig matches the tuning the HTTP server ships with.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  2,
		BaseBackoff: 500 * time.Millisecond,
		MaxBackoff:  30 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = d.BaseBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = d.MaxBackoff
	}
	return c
}

// StartRequest names a workflow kind and its invocation parameters.
type StartRequest struct {
	Kind        string
	Parameters  map[string]any
	RequesterID *uuid.UUID
	Priority    int
}

// activeWorkflow is one entry of the active-instance table. All mutation of
// inst happens under mu; the owning loop and Stop/GetStatus are the only
// parties that take it.
type activeWorkflow struct {
	mu     sync.Mutex
	inst   *domain.WorkflowInstance
	cancel context.CancelFunc

	// pubMu orders persistAndBroadcast flushes for this instance so a
	// newer snapshot is never followed onto the wire by an older one.
	pubMu         sync.Mutex
	lastPublished time.Time
}

// Scheduler instantiates workflows from templates and drives each one with
// its own execution loop until it reaches a terminal status. The active
// table is the only shared mutable structure; entries for different
// workflows never block each other.
type Scheduler struct {
	templates   *template.Registry
	invoker     ports.WorkerInvoker
	store       ports.WorkflowStore
	broadcaster ports.ProgressBroadcaster
	cfg         Config

	mu     sync.RWMutex
	active map[uuid.UUID]*activeWorkflow
}

func NewScheduler(
	templates *template.Registry,
	invoker ports.WorkerInvoker,
	store ports.WorkflowStore,
	broadcaster ports.ProgressBroadcaster,
	cfg Config,
) *Scheduler {
	return &Scheduler{
		templates:   templates,
		invoker:     invoker,
		store:       store,
		broadcaster: broadcaster,
		cfg:         cfg.withDefaults(),
		active:      make(map[uuid.UUID]*activeWorkflow),
	}
}

// Start resolves the template, materializes a WorkflowInstance with every
// step PENDING, persists and broadcasts the initial snapshot, registers the
// instance as active and launches its execution loop. It returns before the
// workflow completes.
func (s *Scheduler) Start(ctx context.Context, req StartRequest) (*domain.WorkflowInstance, error) {
	tpl, err := s.templates.Resolve(req.Kind)
	if err != nil {
		return nil, err
	}

	inst := domain.NewWorkflowInstance(tpl, req.Parameters, domain.WorkflowMetadata{
		RequesterID: req.RequesterID,
		Priority:    req.Priority,
	}, s.cfg.MaxRetries)

	// The loop outlives the request context; it stops on Stop or terminal.
	loopCtx, cancel := context.WithCancel(context.Background())
	aw := &activeWorkflow{inst: inst, cancel: cancel}

	s.mu.Lock()
	s.active[inst.ID] = aw
	s.mu.Unlock()

	// Snapshot before the loop starts; once it is launched the instance
	// may only be touched under aw.mu.
	snapshot := inst.Clone()

	s.persistAndBroadcast(ctx, aw, snapshot)
	metrics.WorkflowsStarted.WithLabelValues(inst.Kind).Inc()
	metrics.ActiveWorkflows.Inc()

	go s.runLoop(loopCtx, aw)

	log.Printf("Scheduler: started workflow %s (%s)", inst.ID, inst.Kind)
	return snapshot, nil
}

// GetStatus returns a snapshot of the workflow. The active table is
// authoritative for running workflows; anything else is read back from the
// durable store.
func (s *Scheduler) GetStatus(ctx context.Context, id uuid.UUID) (*domain.WorkflowInstance, error) {
	s.mu.RLock()
	aw, ok := s.active[id]
	s.mu.RUnlock()

	if ok {
		aw.mu.Lock()
		snapshot := aw.inst.Clone()
		aw.mu.Unlock()
		return snapshot, nil
	}

	inst, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, ErrWorkflowNotFound
		}
		return nil, err
	}
	return inst, nil
}

// Stop cancels an active workflow. The currently running step, if any, is
// marked FAILED with reason "cancelled" and the workflow becomes CANCELLED.
// An in-flight worker invocation is not interrupted; its late result is
// detected by the loop and discarded. Workflows not resident in memory
// cannot be stopped here and yield ErrWorkflowNotActive.
func (s *Scheduler) Stop(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	aw, ok := s.active[id]
	if ok {
		delete(s.active, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrWorkflowNotActive
	}

	aw.mu.Lock()
	if aw.inst.IsFinished() {
		aw.mu.Unlock()
		return ErrWorkflowNotActive
	}
	now := time.Now()
	for _, step := range aw.inst.Steps {
		if step.Status == domain.StepRunning {
			step.Status = domain.StepFailed
			step.RetryCount = step.MaxRetries // no further attempts
			step.Error = "cancelled"
			ended := now
			step.EndedAt = &ended
			if step.StartedAt != nil {
				step.ActualDurationMs = ended.Sub(*step.StartedAt).Milliseconds()
			}
		}
	}
	aw.inst.Status = domain.WorkflowCancelled
	aw.inst.Error = "cancelled by caller"
	aw.inst.CurrentStepID = ""
	aw.inst.CompletedAt = &now
	aw.inst.RecomputeCompletedSteps()
	aw.inst.Touch()
	snapshot := aw.inst.Clone()
	aw.mu.Unlock()

	s.persistAndBroadcast(ctx, aw, snapshot)
	aw.cancel()

	metrics.WorkflowsFinished.WithLabelValues(snapshot.Kind, string(snapshot.Status)).Inc()
	metrics.ActiveWorkflows.Dec()

	log.Printf("Scheduler: workflow %s cancelled", id)
	return nil
}

// ActiveCount reports the number of workflows currently owned by this
// scheduler.
func (s *Scheduler) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.active)
}

// remove drops a workflow from the active table once its loop is done.
func (s *Scheduler) remove(id uuid.UUID) {
	s.mu.Lock()
	delete(s.active, id)
	s.mu.Unlock()
}

// persistAndBroadcast flushes a snapshot to the store and the broadcaster.
// Both are best-effort: failures are logged as warnings and never reach the
// execution loop. The in-memory instance stays the source of truth.
// Flushes are serialized per instance and an outdated snapshot is dropped,
// so a Stop racing the loop's pre-invoke flush cannot leave observers with
// a stale final event; the store upsert enforces the same ordering on its
// side through the updated_at guard.
func (s *Scheduler) persistAndBroadcast(ctx context.Context, aw *activeWorkflow, snapshot *domain.WorkflowInstance) {
	aw.pubMu.Lock()
	defer aw.pubMu.Unlock()
	if snapshot.UpdatedAt.Before(aw.lastPublished) {
		return
	}
	aw.lastPublished = snapshot.UpdatedAt

	if err := s.store.Save(ctx, snapshot); err != nil {
		log.Printf("Scheduler: warning: failed to persist workflow %s: %v", snapshot.ID, err)
	}
	if err := s.broadcaster.Publish(ctx, domain.NewProgressEvent(snapshot)); err != nil {
		log.Printf("Scheduler: warning: failed to broadcast workflow %s: %v", snapshot.ID, err)
	}
}
