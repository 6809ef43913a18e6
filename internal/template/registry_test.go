package template

import (
	"testing"

	"github.com/stretchr/testify/require"

	"curriculum-engine/internal/domain"
)

func TestRegistry_Resolve_KnownKind(t *testing.T) {
	r := NewRegistry()
	tpl := &domain.WorkflowTemplate{
		Kind: "simple",
		Steps: []domain.StepTemplate{
			{ID: "a", Name: "A", WorkerType: "w", EstimatedDurationMs: 10},
		},
	}
	require.NoError(t, r.Register(tpl))

	got, err := r.Resolve("simple")
	require.NoError(t, err)
	require.Equal(t, tpl, got)
}

func TestRegistry_Resolve_UnknownKind(t *testing.T) {
	r := NewRegistry()

	_, err := r.Resolve("nope")
	require.ErrorIs(t, err, ErrUnknownWorkflowKind)
}

func TestRegistry_Register_RejectsDuplicateKind(t *testing.T) {
	r := NewRegistry()
	tpl := &domain.WorkflowTemplate{
		Kind:  "simple",
		Steps: []domain.StepTemplate{{ID: "a", WorkerType: "w"}},
	}
	require.NoError(t, r.Register(tpl))

	err := r.Register(tpl)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already registered")
}

func TestRegistry_Register_RejectsCycle(t *testing.T) {
	r := NewRegistry()
	tpl := &domain.WorkflowTemplate{
		Kind: "cyclic",
		Steps: []domain.StepTemplate{
			{ID: "a", WorkerType: "w", DependsOn: []string{"c"}},
			{ID: "b", WorkerType: "w", DependsOn: []string{"a"}},
			{ID: "c", WorkerType: "w", DependsOn: []string{"b"}},
		},
	}

	err := r.Register(tpl)
	require.Error(t, err)
	require.Contains(t, err.Error(), "cycle")
}

func TestRegistry_Register_RejectsSelfDependency(t *testing.T) {
	r := NewRegistry()
	tpl := &domain.WorkflowTemplate{
		Kind: "selfish",
		Steps: []domain.StepTemplate{
			{ID: "a", WorkerType: "w", DependsOn: []string{"a"}},
		},
	}

	err := r.Register(tpl)
	require.Error(t, err)
	require.Contains(t, err.Error(), "depends on itself")
}

func TestRegistry_Register_RejectsUnknownDependency(t *testing.T) {
	r := NewRegistry()
	tpl := &domain.WorkflowTemplate{
		Kind: "dangling",
		Steps: []domain.StepTemplate{
			{ID: "a", WorkerType: "w", DependsOn: []string{"missing"}},
		},
	}

	err := r.Register(tpl)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown step")
}

func TestRegistry_Register_RejectsDuplicateStepID(t *testing.T) {
	r := NewRegistry()
	tpl := &domain.WorkflowTemplate{
		Kind: "dupes",
		Steps: []domain.StepTemplate{
			{ID: "a", WorkerType: "w"},
			{ID: "a", WorkerType: "w"},
		},
	}

	err := r.Register(tpl)
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate step id")
}

func TestRegistry_Register_RejectsEmptyTemplate(t *testing.T) {
	r := NewRegistry()

	err := r.Register(&domain.WorkflowTemplate{Kind: "empty"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "no steps")
}

func TestDefaultRegistry_CarriesBuiltinKinds(t *testing.T) {
	r := NewDefaultRegistry()

	require.ElementsMatch(t,
		[]string{KindCurriculumAnalysis, KindPeerComparison, KindGapAnalysis},
		r.Kinds())

	for _, kind := range r.Kinds() {
		tpl, err := r.Resolve(kind)
		require.NoError(t, err)
		require.NotEmpty(t, tpl.Steps)
		for _, s := range tpl.Steps {
			require.NotEmpty(t, s.WorkerType, "step %s of %s", s.ID, kind)
			require.Positive(t, s.EstimatedDurationMs, "step %s of %s", s.ID, kind)
		}
	}
}
