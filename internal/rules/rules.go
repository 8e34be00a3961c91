// Package rules evaluates ordered keyword tables against a query.
//
// A table is a list of rows. Each row names a result and either a set of
// trigger substrings or an expr expression. Rows are tried in order and the
// first match wins. Matching is done on the lower-cased query.
package rules

import (
	"fmt"
	"strings"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// Rule is one row of a table as it appears in configuration.
type Rule struct {
	Result   string   `yaml:"result" koanf:"result"`
	Triggers []string `yaml:"triggers,omitempty" koanf:"triggers"`
	// When is an expr expression evaluated with `query` bound to the
	// lower-cased query, e.g. `query contains "gmv" and not (query contains "net")`.
	When string `yaml:"when,omitempty" koanf:"when"`
	// Options, when set, makes the row ambiguous: a match asks the caller
	// to choose among them instead of resolving to Result.
	Options []string `yaml:"options,omitempty" koanf:"options"`
}

// Match is the outcome of evaluating a table.
type Match struct {
	Result  string
	Options []string
}

// Ambiguous reports whether the match needs a choice among Options.
func (m Match) Ambiguous() bool { return len(m.Options) > 0 }

type compiledRule struct {
	rule     Rule
	triggers []string
	program  *exprvm.Program
}

// Table is a compiled, immutable rule table. It is safe for concurrent use.
type Table struct {
	name  string
	rules []compiledRule
}

// Compile validates and compiles rows into a Table.
func Compile(name string, rows []Rule) (*Table, error) {
	t := &Table{name: name}
	for i, row := range rows {
		if row.Result == "" && len(row.Options) == 0 {
			return nil, wrapEvaluatorError(name, fmt.Errorf("rule %d: result or options is required", i))
		}
		if len(row.Triggers) == 0 && row.When == "" {
			return nil, wrapEvaluatorError(name, fmt.Errorf("rule %d: triggers or when is required", i))
		}

		cr := compiledRule{rule: row}
		for _, trig := range row.Triggers {
			if trig == "" {
				return nil, wrapEvaluatorError(name, fmt.Errorf("rule %d: empty trigger", i))
			}
			cr.triggers = append(cr.triggers, strings.ToLower(trig))
		}
		if row.When != "" {
			program, err := exprlang.Compile(row.When,
				exprlang.Env(map[string]any{"query": ""}),
				exprlang.AsBool(),
			)
			if err != nil {
				return nil, wrapEvaluationError(name, row.When, err)
			}
			cr.program = program
		}
		t.rules = append(t.rules, cr)
	}
	return t, nil
}

// Evaluate returns the first matching row for query. The query is
// lower-cased before matching.
func (t *Table) Evaluate(query string) (Match, bool, error) {
	lowered := strings.ToLower(query)
	for _, r := range t.rules {
		ok, err := r.matches(lowered)
		if err != nil {
			return Match{}, false, wrapEvaluationError(t.name, r.rule.When, err)
		}
		if ok {
			return Match{
				Result:  r.rule.Result,
				Options: append([]string(nil), r.rule.Options...),
			}, true, nil
		}
	}
	return Match{}, false, nil
}

func (r compiledRule) matches(lowered string) (bool, error) {
	for _, trig := range r.triggers {
		if strings.Contains(lowered, trig) {
			return true, nil
		}
	}
	if r.program == nil {
		return false, nil
	}
	out, err := exprlang.Run(r.program, map[string]any{"query": lowered})
	if err != nil {
		return false, err
	}
	matched, _ := out.(bool)
	return matched, nil
}
