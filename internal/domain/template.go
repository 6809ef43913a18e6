package domain

// StepTemplate describes one unit of work within a workflow kind.
// Templates are immutable; instances are materialized from them at Start.
type StepTemplate struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	WorkerType          string   `json:"worker_type"`
	DependsOn           []string `json:"depends_on,omitempty"`
	EstimatedDurationMs int64    `json:"estimated_duration_ms"`
}

// WorkflowTemplate is the ordered set of step templates for one workflow kind.
// The dependency relation among its steps must form a DAG, and every
// DependsOn id must reference another step in the same template.
type WorkflowTemplate struct {
	Kind  string         `json:"kind"`
	Steps []StepTemplate `json:"steps"`
}

// StepByID returns the step template with the given id, or nil.
func (t *WorkflowTemplate) StepByID(id string) *StepTemplate {
	for i := range t.Steps {
		if t.Steps[i].ID == id {
			return &t.Steps[i]
		}
	}
	return nil
}
