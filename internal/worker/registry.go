package worker

import (
	"context"

	"curriculum-engine/internal/template"
)

// Handler is the blueprint for any function that performs a step's work.
type Handler func(ctx context.Context, payload map[string]any) (map[string]any, error)

// Registry holds the executable worker types.
type Registry map[string]Handler

// InitRegistry wires up the worker implementations for the built-in
// curriculum templates. The bodies here are local stand-ins; in deployment
// each handler fronts the remote worker unit for its type.
func InitRegistry() Registry {
	registry := make(Registry)

	registry[template.WorkerDocumentParser] = func(ctx context.Context, payload map[string]any) (map[string]any, error) {
		return map[string]any{
			"documents_parsed": payload["document_urls"],
			"page_count":       0,
		}, nil
	}

	registry[template.WorkerCourseExtractor] = func(ctx context.Context, payload map[string]any) (map[string]any, error) {
		return map[string]any{"courses": []any{}}, nil
	}

	registry[template.WorkerStandardsSearch] = func(ctx context.Context, payload map[string]any) (map[string]any, error) {
		return map[string]any{"standards": []any{}, "sources": []any{}}, nil
	}

	registry[template.WorkerCoverageAnalyzer] = func(ctx context.Context, payload map[string]any) (map[string]any, error) {
		return map[string]any{"coverage": map[string]any{}}, nil
	}

	registry[template.WorkerPeerComparator] = func(ctx context.Context, payload map[string]any) (map[string]any, error) {
		return map[string]any{"comparison": map[string]any{}}, nil
	}

	registry[template.WorkerGapDetector] = func(ctx context.Context, payload map[string]any) (map[string]any, error) {
		return map[string]any{"gaps": []any{}}, nil
	}

	registry[template.WorkerReportGenerator] = func(ctx context.Context, payload map[string]any) (map[string]any, error) {
		return map[string]any{"report_url": "", "summary": ""}, nil
	}

	return registry
}
