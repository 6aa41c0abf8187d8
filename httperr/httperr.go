// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package httperr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// CodedError wraps an error with the HTTP status an endpoint should answer
// with.
type CodedError struct {
	err  error
	code int
}

// Error implements the error interface.
func (e *CodedError) Error() string {
	return e.err.Error()
}

// Unwrap returns the underlying error.
func (e *CodedError) Unwrap() error {
	return e.err
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *CodedError) HTTPCode() int {
	return e.code
}

// WithCode wraps err with an HTTP status code. If err is nil, WithCode
// returns nil.
func WithCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return &CodedError{err: err, code: code}
}

// New is WithCode(errors.New(message), code).
func New(message string, code int) error {
	return &CodedError{err: errors.New(message), code: code}
}

// Code extracts the HTTP status code from the first CodedError in err's
// chain. A nil error is 200 and an uncoded one is 500.
func Code(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.code
	}

	return http.StatusInternalServerError
}

// Body is the JSON document Write sends.
type Body struct {
	Status int    `json:"status"`
	Error  string `json:"error"`
}

// Write answers with err's status code and a JSON Body. Server errors carry
// only the status text so internal details stay in the logs.
func Write(w http.ResponseWriter, err error) {
	code := Code(err)
	msg := http.StatusText(code)
	if code < http.StatusInternalServerError && err != nil {
		msg = err.Error()
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(Body{Status: code, Error: msg})
}
