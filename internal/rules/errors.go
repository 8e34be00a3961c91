package rules

import (
	"errors"
	"fmt"
)

// EvaluationError carries the table and expression that failed.
type EvaluationError struct {
	Table string
	Expr  string
	Err   error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Expr == "" {
		return fmt.Sprintf("rules: table %s: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("rules: table %s expr=%q: %v", e.Table, e.Expr, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func wrapEvaluatorError(table string, err error) error {
	return wrapEvaluationError(table, "", err)
}

func wrapEvaluationError(table, expr string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}
	return &EvaluationError{Table: table, Expr: expr, Err: err}
}
