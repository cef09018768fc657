// Package metrics exposes prometheus collectors for the proposal pipeline and
// the HTTP server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Submissions   *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
}

// New builds the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agro_proposal_submissions_total",
				Help: "Proposal submissions by mode, the stage they ended in and the result",
			},
			[]string{"mode", "stage", "result"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agro_proposal_stage_duration_seconds",
				Help:    "Time spent in each submission stage",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agro_http_requests_total",
				Help: "HTTP requests by method and status",
			},
			[]string{"method", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agro_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	reg.MustRegister(m.Submissions, m.StageDuration, m.HTTPRequests, m.HTTPDuration)

	return m
}
