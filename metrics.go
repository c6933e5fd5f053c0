package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the outcomes of one run. They live on a private registry so
// a run can be exported as a node_exporter textfile.
type Metrics struct {
	registry *prometheus.Registry

	submissions    *prometheus.CounterVec
	photos         *prometheus.CounterVec
	adminItems     *prometheus.CounterVec
	titleCacheSize prometheus.Gauge
}

// NewMetrics creates and registers the run counters
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mural_submissions_total",
				Help: "Submissions processed, by outcome",
			},
			[]string{"status"},
		),
		photos: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mural_photos_total",
				Help: "Photos handled, by outcome",
			},
			[]string{"status"},
		),
		adminItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mural_admin_items_total",
				Help: "Items touched by bulk admin operations",
			},
			[]string{"kind", "op", "status"},
		),
		titleCacheSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "mural_title_cache_size",
				Help: "Titles known to exist in the remote store",
			},
		),
	}
	m.registry.MustRegister(m.submissions, m.photos, m.adminItems, m.titleCacheSize)
	return m
}

// Submission records the outcome of one submission
func (m *Metrics) Submission(status ProcessingStatus) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(string(status)).Inc()
}

// Photo records the outcome of one photo: "uploaded", "rejected" or "failed"
func (m *Metrics) Photo(status string) {
	if m == nil {
		return
	}
	m.photos.WithLabelValues(status).Inc()
}

// AdminItem records one item of a bulk operation
func (m *Metrics) AdminItem(kind, op string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "failed"
	}
	m.adminItems.WithLabelValues(kind, op, status).Inc()
}

// TitleCacheSize sets the current cache size
func (m *Metrics) TitleCacheSize(n int) {
	if m == nil {
		return
	}
	m.titleCacheSize.Set(float64(n))
}

// WriteTextfile writes the metrics in the Prometheus text format
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
