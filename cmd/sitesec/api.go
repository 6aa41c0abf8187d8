// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"net/http"

	"github.com/cri-st/sitesec/httperr"
	"github.com/cri-st/sitesec/urlguard"
)

type checkResponse struct {
	URL     string `json:"url"`
	Valid   bool   `json:"valid"`
	Reason  string `json:"reason,omitempty"`
	Safe    string `json:"safe"`
	Display string `json:"display"`
}

// checkHandler answers GET /api/check?url=... with the link verdict for url.
func checkHandler(rec urlguard.Recorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if !query.Has("url") {
			httperr.Write(w, httperr.New("missing url query parameter", http.StatusBadRequest))
			return
		}
		raw := query.Get("url")

		resp := checkResponse{
			URL:     raw,
			Safe:    urlguard.DefaultFallback,
			Display: urlguard.SanitizeDisplay(raw),
		}
		if err := urlguard.Check(raw); err != nil {
			resp.Reason = urlguard.Reason(err)
			if rec != nil {
				rec.ObserveRejection(resp.Reason)
			}
		} else {
			resp.Valid = true
			resp.Safe = raw
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
