package engine

import (
	"maps"

	"curriculum-engine/internal/domain"
)

// buildPayload assembles a step's invocation payload: the step's own
// parameters first, then the result of every dependency layered on top in
// DependsOn order. A dependency's result keys win over the parameters and
// over earlier dependencies, which lets downstream steps consume upstream
// output under stable names.
func buildPayload(step *domain.StepInstance, inst *domain.WorkflowInstance) map[string]any {
	payload := make(map[string]any, len(step.Parameters))
	maps.Copy(payload, step.Parameters)
	for _, dep := range step.DependsOn {
		parent := inst.StepByID(dep)
		if parent == nil || parent.Result == nil {
			continue
		}
		maps.Copy(payload, parent.Result)
	}
	return payload
}
