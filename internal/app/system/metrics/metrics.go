// Package metrics exposes Prometheus counters for the alignment, value
// generation and mint flows. A nil *Metrics is valid and records nothing,
// so tests can pass nil.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK           = "ok"
	OutcomeNotFound     = "not_found"
	OutcomeBadRequest   = "bad_request"
	OutcomeInsufficient = "insufficient_content"
	OutcomeSkipped      = "skipped"
	OutcomeConflict     = "conflict"
	OutcomeError        = "error"
)

// Metrics owns a private registry so tests and multiple app instances do not
// collide on the global default registry.
type Metrics struct {
	registry    *prometheus.Registry
	alignment   *prometheus.CounterVec
	generations *prometheus.CounterVec
	mints       *prometheus.CounterVec
	uploads     *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		alignment: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "valuesdao",
			Name:      "alignment_requests_total",
			Help:      "Alignment rankings computed, by roster and outcome.",
		}, []string{"roster", "outcome"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "valuesdao",
			Name:      "value_generations_total",
			Help:      "Value generation runs, by source and outcome.",
		}, []string{"source", "outcome"}),
		mints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "valuesdao",
			Name:      "mints_total",
			Help:      "Batch mint attempts, by outcome.",
		}, []string{"outcome"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "valuesdao",
			Name:      "metadata_uploads_total",
			Help:      "Metadata batches pinned to IPFS, by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		m.alignment, m.generations, m.mints, m.uploads,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry, for tests and for collectors
// registered by other packages.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Alignment(roster, outcome string) {
	if m == nil {
		return
	}
	m.alignment.WithLabelValues(roster, outcome).Inc()
}

func (m *Metrics) Generation(source, outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) Mint(outcome string) {
	if m == nil {
		return
	}
	m.mints.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Upload(outcome string) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(outcome).Inc()
}
