package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func diamondTemplate() *WorkflowTemplate {
	return &WorkflowTemplate{
		Kind: "diamond",
		Steps: []StepTemplate{
			{ID: "a", Name: "A", WorkerType: "w_a", EstimatedDurationMs: 100},
			{ID: "b", Name: "B", WorkerType: "w_b", DependsOn: []string{"a"}, EstimatedDurationMs: 200},
			{ID: "c", Name: "C", WorkerType: "w_c", DependsOn: []string{"a"}, EstimatedDurationMs: 300},
			{ID: "d", Name: "D", WorkerType: "w_d", DependsOn: []string{"b", "c"}, EstimatedDurationMs: 400},
		},
	}
}

func TestNewWorkflowInstance_MirrorsTemplate(t *testing.T) {
	tpl := diamondTemplate()
	params := map[string]any{"program": "computer_science"}

	w := NewWorkflowInstance(tpl, params, WorkflowMetadata{Priority: 3}, 2)

	require.Equal(t, WorkflowRunning, w.Status)
	require.Len(t, w.Steps, len(tpl.Steps))
	for i, s := range w.Steps {
		require.Equal(t, tpl.Steps[i].ID, s.ID)
		require.Equal(t, tpl.Steps[i].DependsOn, s.DependsOn)
		require.Equal(t, StepPending, s.Status)
		require.Equal(t, 2, s.MaxRetries)
		require.Equal(t, params, s.Parameters)
	}
	require.Empty(t, w.CompletedStepIDs)
	require.Equal(t, params, w.Metadata.OriginalParameters)
	require.NotNil(t, w.EstimatedCompletionAt)
	require.Equal(t, time.Second, w.RemainingEstimate())
}

func TestNextRunnableStep_RespectsOrderAndDependencies(t *testing.T) {
	w := NewWorkflowInstance(diamondTemplate(), nil, WorkflowMetadata{}, 0)

	// Only the root is runnable at first.
	require.Equal(t, "a", w.NextRunnableStep().ID)

	w.StepByID("a").Status = StepCompleted
	// b and c are both unblocked; the lowest index wins.
	require.Equal(t, "b", w.NextRunnableStep().ID)

	w.StepByID("b").Status = StepCompleted
	require.Equal(t, "c", w.NextRunnableStep().ID)

	w.StepByID("c").Status = StepSkipped
	// A SKIPPED dependency also unblocks dependents.
	require.Equal(t, "d", w.NextRunnableStep().ID)

	w.StepByID("d").Status = StepCompleted
	require.Nil(t, w.NextRunnableStep())
}

func TestNextRunnableStep_BlockedByTerminalFailure(t *testing.T) {
	w := NewWorkflowInstance(diamondTemplate(), nil, WorkflowMetadata{}, 0)

	a := w.StepByID("a")
	a.Status = StepFailed
	a.RetryCount = a.MaxRetries // retries exhausted

	require.Nil(t, w.NextRunnableStep())
	require.False(t, w.AllStepsSatisfied())
	require.Equal(t, "a", w.FirstFailedStep().ID)
}

func TestRecomputeCompletedSteps_MatchesStatuses(t *testing.T) {
	w := NewWorkflowInstance(diamondTemplate(), nil, WorkflowMetadata{}, 0)

	w.StepByID("a").Status = StepCompleted
	w.StepByID("c").Status = StepCompleted
	w.RecomputeCompletedSteps()

	require.Equal(t, []string{"a", "c"}, w.CompletedStepIDs)

	w.StepByID("c").Status = StepFailed
	w.RecomputeCompletedSteps()
	require.Equal(t, []string{"a"}, w.CompletedStepIDs)
}

func TestMergeResults_KeyedByStepID(t *testing.T) {
	w := NewWorkflowInstance(diamondTemplate(), nil, WorkflowMetadata{}, 0)

	w.StepByID("a").Status = StepCompleted
	w.StepByID("a").Result = map[string]any{"courses": 12}
	w.StepByID("b").Status = StepCompleted
	w.StepByID("b").Result = map[string]any{"gaps": 3}
	w.StepByID("c").Status = StepFailed

	results := w.MergeResults()
	require.Len(t, results, 2)
	require.Equal(t, map[string]any{"courses": 12}, results["a"])
	require.Equal(t, map[string]any{"gaps": 3}, results["b"])
}

func TestClone_IsDeep(t *testing.T) {
	w := NewWorkflowInstance(diamondTemplate(), map[string]any{"k": "v"}, WorkflowMetadata{}, 1)
	w.StepByID("a").Status = StepCompleted
	w.StepByID("a").Result = map[string]any{"out": 1}
	w.RecomputeCompletedSteps()

	clone := w.Clone()
	clone.StepByID("a").Result["out"] = 99
	clone.StepByID("b").Status = StepRunning
	clone.CompletedStepIDs[0] = "zzz"

	require.Equal(t, 1, w.StepByID("a").Result["out"])
	require.Equal(t, StepPending, w.StepByID("b").Status)
	require.Equal(t, []string{"a"}, w.CompletedStepIDs)
}

func TestTouch_IsMonotonic(t *testing.T) {
	w := NewWorkflowInstance(diamondTemplate(), nil, WorkflowMetadata{}, 0)

	before := w.UpdatedAt
	for range 100 {
		w.Touch()
		require.True(t, w.UpdatedAt.After(before))
		before = w.UpdatedAt
	}
}

func TestProgressEvent_CondensesSnapshot(t *testing.T) {
	w := NewWorkflowInstance(diamondTemplate(), nil, WorkflowMetadata{}, 0)
	w.StepByID("a").Status = StepCompleted
	w.StepByID("b").Status = StepCompleted
	w.RecomputeCompletedSteps()
	w.CurrentStepID = "c"

	event := NewProgressEvent(w)
	require.Equal(t, w.ID, event.WorkflowID)
	require.Equal(t, []string{"a", "b"}, event.CompletedStepIDs)
	require.Equal(t, 4, event.TotalSteps)
	require.Equal(t, 50, event.ProgressPercent)
	require.Equal(t, "c", event.CurrentStepID)
}
