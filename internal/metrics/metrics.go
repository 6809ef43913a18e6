// Package metrics exposes the engine's Prometheus collectors. Collectors are
// registered on the default registry and served through the HTTP layer's
// /metrics route.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkflowsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curriculum_workflows_started_total",
		Help: "Workflows started, by kind.",
	}, []string{"kind"})

	WorkflowsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curriculum_workflows_finished_total",
		Help: "Workflows reaching a terminal status, by kind and status.",
	}, []string{"kind", "status"})

	ActiveWorkflows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "curriculum_workflows_active",
		Help: "Workflows currently owned by this scheduler.",
	})

	StepsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curriculum_steps_executed_total",
		Help: "Step executions reaching an outcome, by worker type and status.",
	}, []string{"worker_type", "status"})

	StepRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "curriculum_step_retries_total",
		Help: "Step retry attempts scheduled, by worker type.",
	}, []string{"worker_type"})
)
