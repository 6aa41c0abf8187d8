// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package cel

import (
	"errors"
	"fmt"

	"github.com/google/cel-go/cel"
)

var (
	// ErrExpressionCheck is returned when a condition fails syntax or type checking.
	ErrExpressionCheck = errors.New("CEL expression check failed")

	// ErrEvaluation is returned when evaluating a condition fails.
	ErrEvaluation = errors.New("CEL expression evaluation failed")

	// ErrInvalidResult is returned when a condition does not produce a bool.
	ErrInvalidResult = errors.New("CEL expression returned invalid result type")
)

// Issue is one located problem in an expression.
type Issue struct {
	Line int    `json:"line,omitempty"`
	Col  int    `json:"col,omitempty"`
	Msg  string `json:"msg,omitempty"`
}

func issuesFrom(issues *cel.Issues) []Issue {
	out := make([]Issue, 0, len(issues.Errors()))
	for _, err := range issues.Errors() {
		out = append(out, Issue{
			Line: err.Location.Line(),
			Col:  err.Location.Column(),
			Msg:  err.Message,
		})
	}
	return out
}

// ParseError is a syntax error in a condition.
type ParseError struct {
	Source string
	Issues []Issue
	err    error
}

func (pe *ParseError) Error() string {
	return fmt.Sprintf("CEL parse error in expression %q: %s", pe.Source, pe.err)
}

func (pe *ParseError) Unwrap() error {
	return pe.err
}

// CheckError is a type error in a condition, such as an unknown variable.
type CheckError struct {
	Source string
	Issues []Issue
	err    error
}

func (ce *CheckError) Error() string {
	return fmt.Sprintf("CEL check error in expression %q: %s", ce.Source, ce.err)
}

func (ce *CheckError) Unwrap() error {
	return ce.err
}

func newParseError(source string, issues *cel.Issues) error {
	return &ParseError{
		Source: source,
		Issues: issuesFrom(issues),
		err:    fmt.Errorf("%w: %w", ErrExpressionCheck, issues.Err()),
	}
}

func newCheckError(source string, issues *cel.Issues) error {
	return &CheckError{
		Source: source,
		Issues: issuesFrom(issues),
		err:    fmt.Errorf("%w: %w", ErrExpressionCheck, issues.Err()),
	}
}
