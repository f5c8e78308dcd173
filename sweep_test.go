package roundbias

import (
	"context"
	"log/slog"
	"testing"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.MuRange = &Range{Min: 0.05, Max: 0.95, Step: 0.05}
	cfg.NuValues = []float64{10, 100}
	cfg.SampleSizes = []int{30, 100}
	cfg.Rounding = RoundingConfig{Kind: KindNearest, Step: 0.25}
	cfg.SmoothingWindow = 3
	cfg.Trials = 5
	cfg.Workers = 4
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := smallConfig()
	reg := prometheus.NewRegistry()

	report, err := Run(context.Background(), cfg,
		WithLogger(quietLogger()),
		WithRegisterer(reg),
	)
	require.NoError(t, err)

	mus := cfg.Mus()
	AssertGridComplete(t, report.Records, mus, cfg.NuValues, cfg.SampleSizes)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "nearest(0.25)", report.Policy)
	assert.Equal(t, cfg.Seed, report.Seed)
	assert.Equal(t, 3, report.Window)
	assert.Equal(t, "missing", report.Edge)
	assert.Len(t, report.Strata, 4)
	assert.Equal(t, len(report.Records), report.Summary.Cells)

	// Records arrive grouped by stratum and μ-ordered, with the first
	// window−1 positions of each stratum unsmoothed.
	for _, s := range GroupStrata(report.Records) {
		require.Len(t, s.Records, len(mus))
		for i, rec := range s.Records {
			assert.Equal(t, mus[i], rec.Cell.Mean)
			if i < cfg.SmoothingWindow-1 {
				assert.Nil(t, rec.SmoothedBias)
			} else {
				assert.NotNil(t, rec.SmoothedBias)
			}
		}
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	var cells float64
	for _, mf := range families {
		if mf.GetName() != "roundbias_cells_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			cells += m.GetCounter().GetValue()
		}
	}
	assert.Equal(t, float64(len(report.Records)), cells)

	t.Logf("✓ run %s: %d cells, mean |bias| %.4f", report.RunID, report.Summary.Cells, report.Summary.MeanAbsBias)
}

func TestRun_UnroundedIsUnbiased(t *testing.T) {
	cfg := smallConfig()
	cfg.Rounding = RoundingConfig{Kind: KindNone}
	cfg.SampleSizes = []int{1000}

	report, err := Run(context.Background(), cfg, WithLogger(quietLogger()))
	require.NoError(t, err)

	AssertUnbiased(t, report.Records, DefaultAssertionConfig())
	PrintAnalysis(t, report.Records)
}

func TestRun_Reproducible(t *testing.T) {
	cfg := smallConfig()
	cfg.Rounding = RoundingConfig{Kind: KindProbabilisticNearest, Step: 0.1, P: 0.5}

	a, err := Run(context.Background(), cfg, WithLogger(quietLogger()))
	require.NoError(t, err)

	cfg.Workers = 1
	b, err := Run(context.Background(), cfg, WithLogger(quietLogger()))
	require.NoError(t, err)

	assert.Equal(t, a.Records, b.Records)
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.NuValues = []float64{0}

	report, err := Run(context.Background(), cfg, WithLogger(quietLogger()))
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, ErrConfiguration), "got %v", err)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := Run(ctx, smallConfig(), WithLogger(quietLogger()))
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestRun_SharedMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	cfg := smallConfig()
	cfg.NuValues = []float64{10}
	cfg.SampleSizes = []int{30}

	for i := 0; i < 2; i++ {
		_, err := Run(context.Background(), cfg, WithLogger(quietLogger()), WithMetrics(m))
		require.NoError(t, err)
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	var draws float64
	for _, mf := range families {
		if mf.GetName() == "roundbias_draws_total" {
			for _, metric := range mf.GetMetric() {
				draws += metric.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, float64(2*len(cfg.Mus())*cfg.Trials*30), draws)
}
