// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package httperr lets errors carry the HTTP status an endpoint should answer
with, and writes them as JSON.

Handlers return or build coded errors and hand them to Write:

	raw := r.URL.Query().Get("url")
	if raw == "" {
		httperr.Write(w, httperr.New("missing url query parameter", http.StatusBadRequest))
		return
	}

Code walks the error chain with errors.As, so a CodedError may be wrapped
further with fmt.Errorf("...: %w", err). Errors without a code are treated
as 500 and Write replaces their message with the status text.
*/
package httperr
