// Package answer produces the final reply once a query has a department
// and a metric. Backends sit behind Generator so the resolver never
// depends on how an answer is phrased.
package answer

import "context"

// CrossScopeMarker is the scope passed to GenerateCrossScope.
const CrossScopeMarker = "all_departments"

// Debug context keys shared by every backend.
const (
	KeyFinalQuery   = "final_query"
	KeyFinalContext = "final_context"
	KeyFinalMetric  = "final_metric"
)

// Request is a fully resolved single-department question.
type Request struct {
	Query      string
	Scope      string
	Refinement string
}

// Result is a generated answer. DebugContext is handed to the caller
// as-is; SQLQuery is kept for logs.
type Result struct {
	Answer       string
	SQLQuery     string
	DebugContext map[string]any
}

// Generator turns a resolved question into an answer.
type Generator interface {
	// Generate answers a question about one department and metric.
	Generate(ctx context.Context, req Request) (*Result, error)
	// GenerateCrossScope answers a question spanning departments.
	GenerateCrossScope(ctx context.Context, query, scopeMarker string) (*Result, error)
}

func debugContext(query, scope string, metric any) map[string]any {
	return map[string]any{
		KeyFinalQuery:   query,
		KeyFinalContext: scope,
		KeyFinalMetric:  metric,
	}
}
