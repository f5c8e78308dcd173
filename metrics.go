package roundbias

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "roundbias"

// Metrics instruments a sweep. A nil *Metrics is valid and records nothing,
// so the engine can run without a registry.
type Metrics struct {
	CellsTotal  *prometheus.CounterVec   // cells estimated, by policy and status
	DrawsTotal  *prometheus.CounterVec   // Beta variates drawn, by policy
	CellSeconds *prometheus.HistogramVec // wall time per cell, by policy
}

// NewMetrics creates the sweep metrics and registers them on reg.
// It panics on duplicate registration, like promauto.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CellsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "cells_total",
				Help:      "Grid cells estimated by rounding policy and status",
			},
			[]string{"policy", "status"},
		),
		DrawsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "draws_total",
				Help:      "Beta variates drawn by rounding policy",
			},
			[]string{"policy"},
		),
		CellSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "cell_seconds",
				Help:      "Time spent estimating one grid cell",
				Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
			},
			[]string{"policy"},
		),
	}
}

func (m *Metrics) observeCell(policy string, draws int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	status := "ok"
	if err != nil {
		status = "error"
	}
	m.CellsTotal.WithLabelValues(policy, status).Inc()
	m.DrawsTotal.WithLabelValues(policy).Add(float64(draws))
	m.CellSeconds.WithLabelValues(policy).Observe(elapsed.Seconds())
}
