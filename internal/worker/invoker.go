package worker

import (
	"context"
	"fmt"
	"log"
	"time"
)

// TimeoutConfig bounds each worker invocation. A timeout is reported to the
// engine as an ordinary invocation failure and goes through the same retry
// policy as any other error.
type TimeoutConfig struct {
	// Default applies when no per-type timeout is configured.
	Default time.Duration

	// PerType overrides the default for specific worker types.
	PerType map[string]time.Duration
}

func (c TimeoutConfig) timeoutFor(workerType string) time.Duration {
	if d, ok := c.PerType[workerType]; ok && d > 0 {
		return d
	}
	if c.Default > 0 {
		return c.Default
	}
	return 60 * time.Second
}

// Invoker dispatches step executions to the registered handler for the
// step's worker type. It satisfies the engine's WorkerInvoker port.
type Invoker struct {
	registry Registry
	timeouts TimeoutConfig
}

func NewInvoker(registry Registry, timeouts TimeoutConfig) *Invoker {
	return &Invoker{registry: registry, timeouts: timeouts}
}

// Invoke runs the handler for workerType under its configured timeout.
// Retries may re-execute side effects; handlers needing exactly-once
// behavior must be idempotent themselves.
func (i *Invoker) Invoke(ctx context.Context, workerType string, payload map[string]any) (map[string]any, error) {
	handler, exists := i.registry[workerType]
	if !exists {
		return nil, fmt.Errorf("unknown worker type: %s", workerType)
	}

	timeout := i.timeouts.timeoutFor(workerType)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		result map[string]any
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := handler(ctx, payload)
		done <- outcome{result, err}
	}()

	select {
	case <-ctx.Done():
		log.Printf("Worker %s invocation aborted: %v", workerType, ctx.Err())
		return nil, fmt.Errorf("worker %s: %w", workerType, ctx.Err())
	case out := <-done:
		return out.result, out.err
	}
}
