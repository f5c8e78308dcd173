package roundbias

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// Report is the full output of a sweep: one record per grid cell (grouped by
// stratum and ordered by μ, with smoothed values attached), the per-stratum
// curve analyses and a global summary.
type Report struct {
	RunID     string            `json:"run_id"`
	Generated time.Time         `json:"generated"`
	Seed      uint64            `json:"seed"`
	Policy    string            `json:"policy"`
	Trials    int               `json:"trials"`
	Window    int               `json:"smoothing_window"`
	Edge      string            `json:"smoothing_edge"`
	Records   []BiasRecord      `json:"records"`
	Strata    []StratumAnalysis `json:"strata"`
	Summary   Summary           `json:"summary"`
	Duration  time.Duration     `json:"duration_ns"`
}

type runOptions struct {
	logger  *slog.Logger
	metrics *Metrics
}

// RunOption customizes Run.
type RunOption func(*runOptions)

// WithLogger sets the logger Run and its estimator report to.
func WithLogger(logger *slog.Logger) RunOption {
	return func(o *runOptions) {
		o.logger = logger
	}
}

// WithRegisterer registers sweep metrics on reg.
func WithRegisterer(reg prometheus.Registerer) RunOption {
	return func(o *runOptions) {
		o.metrics = NewMetrics(reg)
	}
}

// WithMetrics records into already registered metrics.
func WithMetrics(m *Metrics) RunOption {
	return func(o *runOptions) {
		o.metrics = m
	}
}

// Run executes a complete sweep: validate cfg, enumerate the grid, estimate
// every cell, smooth within strata, then analyze and summarize.
func Run(ctx context.Context, cfg Config, opts ...RunOption) (*Report, error) {
	o := runOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := cfg.Rounding.Policy()
	if err != nil {
		return nil, err
	}
	edge, err := ParseEdgePolicy(cfg.SmoothingEdge)
	if err != nil {
		return nil, err
	}
	cells, err := Cells(cfg.Mus(), cfg.NuValues, cfg.SampleSizes)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := o.logger.With("run_id", runID)
	logger.Info("sweep starting",
		"cells", len(cells),
		"policy", policy.String(),
		"trials", cfg.Trials,
		"workers", cfg.Workers,
		"seed", cfg.Seed,
	)

	start := time.Now()
	est := &Estimator{
		Policy:  policy,
		Trials:  cfg.Trials,
		Seed:    cfg.Seed,
		Workers: cfg.Workers,
		Logger:  logger,
		Metrics: o.metrics,
	}
	raw, err := est.EstimateAll(ctx, cells)
	if err != nil {
		logger.Error("sweep failed", "error", err)
		return nil, err
	}

	records, err := Smooth(raw, cfg.SmoothingWindow, edge)
	if err != nil {
		return nil, errors.Wrap(err, "smoothing failed")
	}

	report := &Report{
		RunID:     runID,
		Generated: start.UTC(),
		Seed:      cfg.Seed,
		Policy:    policy.String(),
		Trials:    cfg.Trials,
		Window:    cfg.SmoothingWindow,
		Edge:      edge.String(),
		Records:   records,
		Strata:    AnalyzeStrata(records, true),
		Summary:   Summarize(records, ReferenceBand),
		Duration:  time.Since(start),
	}

	logger.Info("sweep finished",
		"duration", report.Duration,
		"mean_abs_bias", report.Summary.MeanAbsBias,
		"max_abs_bias", report.Summary.MaxAbsBias,
		"within_band", report.Summary.WithinBand,
	)
	return report, nil
}
