// Package intent holds the deterministic disambiguation steps: picking a
// department (scope), detecting cross-department questions, and picking a
// metric (refinement).
package intent

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/intent-agent/internal/rules"
)

// Metric names produced by the default refinement table.
const (
	MetricOrderCount      = "order_count"
	MetricAvgDeliveryTime = "avg_delivery_time"
	MetricInferred        = "inferred_from_query"
)

// CompareKeyword marks a query as spanning departments.
const CompareKeyword = "compare"

// DefaultScopeRules is the built-in department table, in priority order.
var DefaultScopeRules = []rules.Rule{
	{Result: "Food", Triggers: []string{"food", "order"}},
	{Result: "Merchant", Triggers: []string{"merchant", "restaurant"}},
	{Result: "Transport", Triggers: []string{"transport", "driver"}},
}

// DefaultRefinementRules is the built-in metric table, in priority order.
// Anything unmatched falls back to MetricInferred.
var DefaultRefinementRules = []rules.Rule{
	{Triggers: []string{"sales"}, Options: []string{"gross_sales", "net_sales"}},
	{Result: MetricOrderCount, Triggers: []string{"order count"}},
	{Result: MetricAvgDeliveryTime, Triggers: []string{"avg delivery time"}},
}

// ScopeResult is the outcome of ResolveScope. When Resolved is false,
// Candidates lists the choices to offer.
type ScopeResult struct {
	Resolved   bool
	Scope      string
	Candidates []string
}

// RefinementResult is the outcome of ResolveRefinement.
type RefinementResult struct {
	Resolved   bool
	Refinement string
	Candidates []string
}

// Disambiguator runs the scope and refinement tables. The zero value is
// not usable; use New or Default.
type Disambiguator struct {
	scopes      *rules.Table
	refinements *rules.Table
}

// New compiles the given tables. A nil slice selects the built-in table.
func New(scopeRules, refinementRules []rules.Rule) (*Disambiguator, error) {
	if scopeRules == nil {
		scopeRules = DefaultScopeRules
	}
	if refinementRules == nil {
		refinementRules = DefaultRefinementRules
	}

	scopes, err := rules.Compile("scope", scopeRules)
	if err != nil {
		return nil, fmt.Errorf("compiling scope rules: %w", err)
	}
	for i, r := range scopeRules {
		if len(r.Options) > 0 {
			return nil, fmt.Errorf("compiling scope rules: rule %d: scope rules cannot offer options", i)
		}
	}
	refinements, err := rules.Compile("refinement", refinementRules)
	if err != nil {
		return nil, fmt.Errorf("compiling refinement rules: %w", err)
	}
	return &Disambiguator{scopes: scopes, refinements: refinements}, nil
}

// Default returns a Disambiguator over the built-in tables.
func Default() *Disambiguator {
	d, err := New(nil, nil)
	if err != nil {
		panic(err)
	}
	return d
}

// ResolveScope picks the department a query is about.
//
// A single permitted scope is returned as-is without looking at the query.
// Otherwise the first matching table row wins, provided its scope is
// permitted. In every other case the permitted list is offered unchanged.
func (d *Disambiguator) ResolveScope(query string, permitted []string) (ScopeResult, error) {
	if len(permitted) == 1 {
		return ScopeResult{Resolved: true, Scope: permitted[0]}, nil
	}

	m, ok, err := d.scopes.Evaluate(query)
	if err != nil {
		return ScopeResult{}, err
	}
	if ok && contains(permitted, m.Result) {
		return ScopeResult{Resolved: true, Scope: m.Result}, nil
	}
	return ScopeResult{Candidates: append([]string(nil), permitted...)}, nil
}

// IsCrossScope reports whether query reaches beyond the active department:
// either it asks to compare, or it names another permitted department.
func IsCrossScope(query, active string, permitted []string) bool {
	lowered := strings.ToLower(query)
	if strings.Contains(lowered, CompareKeyword) {
		return true
	}
	for _, scope := range permitted {
		if scope == active {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(scope)) {
			return true
		}
	}
	return false
}

// ResolveRefinement picks the metric a query asks for.
//
// active is accepted for per-department tables but the built-in table
// does not use it.
func (d *Disambiguator) ResolveRefinement(query, active string) (RefinementResult, error) {
	m, ok, err := d.refinements.Evaluate(query)
	if err != nil {
		return RefinementResult{}, err
	}
	if !ok {
		return RefinementResult{Resolved: true, Refinement: MetricInferred}, nil
	}
	if m.Ambiguous() {
		return RefinementResult{Candidates: m.Options}, nil
	}
	return RefinementResult{Resolved: true, Refinement: m.Result}, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
