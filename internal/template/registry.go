package template

import (
	"fmt"
	"sync"

	"curriculum-engine/internal/domain"
)

// ErrUnknownWorkflowKind is returned by Resolve for unregistered kinds.
// Callers of Start must reject the request; the error is never retried.
var ErrUnknownWorkflowKind = fmt.Errorf("unknown workflow kind")

// Registry is the static mapping from workflow kind to template. It is
// populated at startup and read-only afterwards; the engine has no mutation
// path into it.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*domain.WorkflowTemplate
}

func NewRegistry() *Registry {
	return &Registry{templates: make(map[string]*domain.WorkflowTemplate)}
}

// Register validates and stores a template. Registration happens during
// process startup only.
func (r *Registry) Register(tpl *domain.WorkflowTemplate) error {
	if tpl == nil || tpl.Kind == "" {
		return fmt.Errorf("template must have a kind")
	}
	if len(tpl.Steps) == 0 {
		return fmt.Errorf("template %q has no steps", tpl.Kind)
	}
	if err := validate(tpl); err != nil {
		return fmt.Errorf("template %q: %w", tpl.Kind, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.templates[tpl.Kind]; exists {
		return fmt.Errorf("template %q already registered", tpl.Kind)
	}
	r.templates[tpl.Kind] = tpl
	return nil
}

// Resolve returns the template for a kind, or ErrUnknownWorkflowKind.
func (r *Registry) Resolve(kind string) (*domain.WorkflowTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tpl, ok := r.templates[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWorkflowKind, kind)
	}
	return tpl, nil
}

// Kinds lists the registered workflow kinds.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.templates))
	for k := range r.templates {
		kinds = append(kinds, k)
	}
	return kinds
}

// validate checks that every dependency references a step in the same
// template, ids are unique, and the dependency relation is acyclic. Cycle
// detection is Kahn's algorithm: peel off zero in-degree steps until either
// the template is exhausted or a cycle remains.
func validate(tpl *domain.WorkflowTemplate) error {
	ids := make(map[string]bool, len(tpl.Steps))
	for _, s := range tpl.Steps {
		if s.ID == "" {
			return fmt.Errorf("step with empty id")
		}
		if s.WorkerType == "" {
			return fmt.Errorf("step %q has no worker type", s.ID)
		}
		if ids[s.ID] {
			return fmt.Errorf("duplicate step id %q", s.ID)
		}
		ids[s.ID] = true
	}

	inDegree := make(map[string]int, len(tpl.Steps))
	children := make(map[string][]string)
	for _, s := range tpl.Steps {
		inDegree[s.ID] += 0
		for _, dep := range s.DependsOn {
			if dep == s.ID {
				return fmt.Errorf("step %q depends on itself", s.ID)
			}
			if !ids[dep] {
				return fmt.Errorf("step %q depends on unknown step %q", s.ID, dep)
			}
			inDegree[s.ID]++
			children[dep] = append(children[dep], s.ID)
		}
	}

	ready := make([]string, 0, len(tpl.Steps))
	for id, deg := range inDegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}

	visited := 0
	for len(ready) > 0 {
		id := ready[len(ready)-1]
		ready = ready[:len(ready)-1]
		visited++
		for _, child := range children[id] {
			inDegree[child]--
			if inDegree[child] == 0 {
				ready = append(ready, child)
			}
		}
	}

	if visited != len(tpl.Steps) {
		return fmt.Errorf("dependency cycle detected")
	}
	return nil
}
