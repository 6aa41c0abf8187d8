// SPDX-FileCopyrightText: Copyright 2025 The sitesec Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics exposes Prometheus counters for the header middleware,
// URL rejections and policy reloads.
package metrics

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sitesec"

// Values of the "scheme" label of responses_decorated_total.
const (
	SchemeHTTP  = "http"
	SchemeHTTPS = "https"
	SchemeOther = "other"
)

// Reload results used as the "result" label of policy_reloads_total.
const (
	ReloadOK     = "ok"
	ReloadFailed = "failed"
)

// Collector holds the sitesec counters. Its methods satisfy the recorder
// interfaces declared by the headers and urlguard packages.
type Collector struct {
	ResponsesDecorated *prometheus.CounterVec
	URLRejections      *prometheus.CounterVec
	PolicyReloads      *prometheus.CounterVec
}

// New creates the counters and registers them with registry.
// A nil registry means prometheus.DefaultRegisterer.
func New(registry prometheus.Registerer) *Collector {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	factory := promauto.With(registry)

	return &Collector{
		ResponsesDecorated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "responses_decorated_total",
				Help:      "Responses that received the security header policy, by request scheme",
			},
			[]string{"scheme"},
		),
		URLRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "url_rejections_total",
				Help:      "Candidate link URLs replaced by a fallback, by rejection reason",
			},
			[]string{"reason"},
		),
		PolicyReloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "policy_reloads_total",
				Help:      "Header policy file reloads, by result",
			},
			[]string{"result"},
		),
	}
}

// ObserveDecorated counts one decorated response. The scheme comes from the
// request, so anything other than http or https is counted as "other".
func (c *Collector) ObserveDecorated(scheme string) {
	c.ResponsesDecorated.WithLabelValues(schemeLabel(scheme)).Inc()
}

func schemeLabel(scheme string) string {
	switch strings.ToLower(scheme) {
	case SchemeHTTP:
		return SchemeHTTP
	case SchemeHTTPS:
		return SchemeHTTPS
	default:
		return SchemeOther
	}
}

// ObserveRejection counts one rejected URL.
func (c *Collector) ObserveRejection(reason string) {
	c.URLRejections.WithLabelValues(reason).Inc()
}

// ObserveReload counts one policy reload attempt.
func (c *Collector) ObserveReload(err error) {
	result := ReloadOK
	if err != nil {
		result = ReloadFailed
	}
	c.PolicyReloads.WithLabelValues(result).Inc()
}
