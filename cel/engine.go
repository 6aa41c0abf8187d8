// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package cel

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

const (
	// RequestVar is the variable a condition sees. It is a map with the
	// string keys "scheme", "host", "method" and "path".
	RequestVar = "request"

	// DefaultMaxExpressionLength bounds the length of a condition.
	DefaultMaxExpressionLength = 1024

	// DefaultCostLimit bounds the runtime cost of a single evaluation.
	DefaultCostLimit = 10000
)

// Engine compiles conditions. It is safe for concurrent use.
type Engine struct {
	once sync.Once
	env  *cel.Env
	err  error

	maxExpressionLength int
	costLimit           uint64
}

// Condition is a compiled boolean expression.
type Condition struct {
	source  string
	program cel.Program
}

// NewEngine returns an engine with the request variable declared and the
// default length and cost limits.
func NewEngine() *Engine {
	return &Engine{
		maxExpressionLength: DefaultMaxExpressionLength,
		costLimit:           DefaultCostLimit,
	}
}

// WithMaxExpressionLength sets the maximum accepted expression length.
func (e *Engine) WithMaxExpressionLength(maxLen int) *Engine {
	e.maxExpressionLength = maxLen
	return e
}

// WithCostLimit sets the runtime cost limit for evaluation.
func (e *Engine) WithCostLimit(limit uint64) *Engine {
	e.costLimit = limit
	return e
}

func (e *Engine) getEnv() (*cel.Env, error) {
	e.once.Do(func() {
		e.env, e.err = cel.NewEnv(
			cel.Variable(RequestVar, cel.MapType(cel.StringType, cel.StringType)),
		)
	})
	return e.env, e.err
}

// Compile parses and type-checks expr. The expression must evaluate to a
// bool. Syntax errors are returned as *ParseError, type errors as
// *CheckError.
func (e *Engine) Compile(expr string) (*Condition, error) {
	if len(expr) > e.maxExpressionLength {
		return nil, fmt.Errorf("%w: expression length %d exceeds maximum of %d",
			ErrExpressionCheck, len(expr), e.maxExpressionLength)
	}

	env, err := e.getEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to get CEL environment: %w", err)
	}

	parsed, issues := env.Parse(expr)
	if issues.Err() != nil {
		return nil, newParseError(expr, issues)
	}

	checked, issues := env.Check(parsed)
	if issues.Err() != nil {
		return nil, newCheckError(expr, issues)
	}

	if !checked.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: %q has type %s, want bool",
			ErrInvalidResult, expr, checked.OutputType())
	}

	program, err := env.Program(checked, cel.CostLimit(e.costLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program for %q: %w", expr, err)
	}

	return &Condition{source: expr, program: program}, nil
}

// Source returns the expression the condition was compiled from.
func (c *Condition) Source() string {
	return c.source
}

// Match evaluates the condition against the request attributes.
// Missing keys read as an error from CEL, so callers should always pass the
// full attribute set.
func (c *Condition) Match(request map[string]string) (bool, error) {
	out, _, err := c.program.Eval(map[string]any{RequestVar: request})
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrEvaluation, err)
	}

	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("%w: expected bool, got %T", ErrInvalidResult, out.Value())
	}
	return matched, nil
}
