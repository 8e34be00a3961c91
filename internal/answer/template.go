package answer

import (
	"context"
	"fmt"
	"strings"
)

// TemplateGenerator answers without a model. Its output is fixed text and
// a placeholder SQL statement, which is enough to exercise the whole
// clarification flow end to end.
type TemplateGenerator struct{}

// NewTemplateGenerator returns a TemplateGenerator.
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

func (g *TemplateGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	selected := req.Refinement
	if selected == "" {
		selected = "COUNT(*)"
	}
	sql := fmt.Sprintf("SELECT %s FROM %s_table WHERE ...", selected, strings.ToLower(req.Scope))

	var metric any
	if req.Refinement != "" {
		metric = req.Refinement
	}
	return &Result{
		Answer:       fmt.Sprintf("Based on your query for '%s' in '%s', here is the result.", req.Refinement, req.Scope),
		SQLQuery:     sql,
		DebugContext: debugContext(req.Query, req.Scope, metric),
	}, nil
}

func (g *TemplateGenerator) GenerateCrossScope(ctx context.Context, query, scopeMarker string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Result{
		Answer:       "This is a complex cross-department answer.",
		SQLQuery:     "SELECT ... FROM food_table JOIN merchant_table ON ...",
		DebugContext: debugContext(query, scopeMarker, nil),
	}, nil
}
