// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package urlguard

import "html/template"

// Recorder receives the reason label of every URL a template helper
// replaced with its fallback.
type Recorder interface {
	ObserveRejection(reason string)
}

// FuncMap returns html/template helpers:
//
//	safeURL      candidate or "#"
//	safeURLOr    candidate or the given fallback
//	displayURL   candidate without credentials
//	isValidURL   bool
//
// rec may be nil.
func FuncMap(rec Recorder) template.FuncMap {
	safe := func(candidate, fallback string) string {
		err := Check(candidate)
		if err == nil {
			return candidate
		}
		if rec != nil {
			rec.ObserveRejection(Reason(err))
		}
		return fallback
	}

	return template.FuncMap{
		"safeURL": func(candidate string) string {
			return safe(candidate, DefaultFallback)
		},
		"safeURLOr":  safe,
		"displayURL": SanitizeDisplay,
		"isValidURL": IsValidURL,
	}
}
