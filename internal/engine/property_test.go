package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"pgregory.net/rapid"

	"curriculum-engine/internal/domain"
	"curriculum-engine/internal/template"
)

// orderingInvoker records, for every invocation, whether all the step's
// dependencies had already completed. Worker types map 1:1 to step ids.
type orderingInvoker struct {
	mu         sync.Mutex
	deps       map[string][]string
	done       map[string]bool
	violations []string
}

func (o *orderingInvoker) Invoke(_ context.Context, workerType string, _ map[string]any) (map[string]any, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, dep := range o.deps[workerType] {
		if !o.done[dep] {
			o.violations = append(o.violations, fmt.Sprintf("%s ran before dependency %s", workerType, dep))
		}
	}
	o.done[workerType] = true
	return map[string]any{"ok": true}, nil
}

// A step never starts before all of its dependencies completed, over random
// DAG templates.
func TestRun_DependencyOrderOverRandomDAGs(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 7).Draw(rt, "steps")

		steps := make([]domain.StepTemplate, 0, n)
		deps := make(map[string][]string, n)
		for i := range n {
			id := fmt.Sprintf("s%d", i)
			var dependsOn []string
			if i > 0 {
				picked := rapid.SliceOfNDistinct(rapid.IntRange(0, i-1), 0, i, rapid.ID).Draw(rt, fmt.Sprintf("deps_%d", i))
				for _, p := range picked {
					dependsOn = append(dependsOn, fmt.Sprintf("s%d", p))
				}
			}
			deps[workerTypeFor(id)] = workerTypesFor(dependsOn)
			steps = append(steps, domain.StepTemplate{
				ID:                  id,
				Name:                id,
				WorkerType:          workerTypeFor(id),
				DependsOn:           dependsOn,
				EstimatedDurationMs: 1,
			})
		}

		templates := template.NewRegistry()
		tpl := &domain.WorkflowTemplate{Kind: "random_dag", Steps: steps}
		if err := templates.Register(tpl); err != nil {
			rt.Fatalf("generated template rejected: %v", err)
		}

		invoker := &orderingInvoker{deps: deps, done: make(map[string]bool)}
		s := NewScheduler(templates, invoker, newFakeStore(), &fakeBroadcaster{}, fastConfig())

		inst, err := s.Start(context.Background(), StartRequest{Kind: "random_dag"})
		if err != nil {
			rt.Fatalf("start failed: %v", err)
		}

		deadline := time.Now().Add(5 * time.Second)
		var final *domain.WorkflowInstance
		for {
			snapshot, err := s.GetStatus(context.Background(), inst.ID)
			if err == nil && snapshot.IsFinished() {
				final = snapshot
				break
			}
			if time.Now().After(deadline) {
				rt.Fatalf("workflow %s did not finish", inst.ID)
			}
			time.Sleep(time.Millisecond)
		}

		if final.Status != domain.WorkflowCompleted {
			rt.Fatalf("expected COMPLETED, got %s (%s)", final.Status, final.Error)
		}
		if len(final.CompletedStepIDs) != n {
			rt.Fatalf("expected %d completed steps, got %d", n, len(final.CompletedStepIDs))
		}
		invoker.mu.Lock()
		defer invoker.mu.Unlock()
		if len(invoker.violations) > 0 {
			rt.Fatalf("dependency order violated: %v", invoker.violations)
		}
	})
}

func workerTypeFor(stepID string) string {
	return "w_" + stepID
}

func workerTypesFor(stepIDs []string) []string {
	out := make([]string, 0, len(stepIDs))
	for _, id := range stepIDs {
		out = append(out, workerTypeFor(id))
	}
	return out
}
