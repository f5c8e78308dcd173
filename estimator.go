package roundbias

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// BiasRecord is the outcome of estimating one grid cell.
//
// SmoothedBias is nil until the Smoother attaches a value, and stays nil for
// leading positions of a stratum under EdgeMissing.
type BiasRecord struct {
	Cell         GridCell `json:"cell"`
	Bias         float64  `json:"bias"`
	SmoothedBias *float64 `json:"smoothed_bias"`
}

// CellStreams returns the two independent PCG streams a cell consumes: one
// for the latent Beta draws and one for rounding coins. Both are derived only
// from (seed, cell index), so a cell's result does not depend on which
// worker evaluates it or in what order.
func CellStreams(seed uint64, index int) (draw, coin rand.Source) {
	base := uint64(index) << 1
	return rand.NewPCG(seed, base), rand.NewPCG(seed, base|1)
}

// Estimate runs the Monte Carlo trial(s) for a single cell.
//
// Each trial draws cell.SampleSize values from MeanPrecisionBeta(μ, ν),
// rounds them with policy and takes mean(rounded) − μ. With trials > 1 the
// reported bias is the average over trials; trials must be the same for every
// cell of a run for the cells to be comparable.
func Estimate(cell GridCell, policy RoundingPolicy, trials int, seed uint64) (BiasRecord, error) {
	draw, coin := CellStreams(seed, cell.Index)
	return EstimateWith(cell, policy, trials, draw, coin)
}

// EstimateWith is Estimate with caller-supplied random sources.
func EstimateWith(cell GridCell, policy RoundingPolicy, trials int, draw, coin rand.Source) (BiasRecord, error) {
	if policy == nil {
		return BiasRecord{}, configErrorf("rounding policy is required")
	}
	if trials <= 0 {
		return BiasRecord{}, configErrorf("trials %d must be > 0", trials)
	}

	dist, err := NewMeanPrecisionBeta(cell.Mean, cell.Precision)
	if err != nil {
		return BiasRecord{}, errors.Wrapf(err, "cell %d", cell.Index)
	}

	var total float64
	for t := 0; t < trials; t++ {
		sample, err := dist.Sample(draw, cell.SampleSize)
		if err != nil {
			return BiasRecord{}, errors.Wrapf(err, "cell %d trial %d", cell.Index, t)
		}
		rounded := policy.Apply(sample, coin)
		total += stat.Mean(rounded, nil) - cell.Mean
	}

	bias := total / float64(trials)
	if !isFinite(bias) {
		return BiasRecord{}, numericErrorf("cell %d (μ=%v, ν=%v, n=%d) produced bias %v",
			cell.Index, cell.Mean, cell.Precision, cell.SampleSize, bias)
	}

	return BiasRecord{Cell: cell, Bias: bias}, nil
}

// Estimator maps a rounding policy over a whole grid.
//
// Cells are independent, so Workers > 1 evaluates them concurrently; the
// records are identical for any worker count because every cell owns its
// random streams. The first failing cell cancels the sweep: a partially
// filled grid is never returned.
type Estimator struct {
	Policy  RoundingPolicy
	Trials  int    // Monte Carlo trials per cell (default 1)
	Seed    uint64 // run seed every cell stream derives from
	Workers int    // concurrent cells (default 1)

	Logger  *slog.Logger
	Metrics *Metrics
}

// EstimateAll estimates every cell and returns records in cell order.
func (e *Estimator) EstimateAll(ctx context.Context, cells []GridCell) ([]BiasRecord, error) {
	if e.Policy == nil {
		return nil, configErrorf("rounding policy is required")
	}

	trials := e.Trials
	if trials <= 0 {
		trials = 1
	}
	workers := e.Workers
	if workers <= 0 {
		workers = 1
	}
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	policy := e.Policy.String()

	records := make([]BiasRecord, len(cells))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, cell := range cells {
		if gCtx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			start := time.Now()
			rec, err := Estimate(cell, e.Policy, trials, e.Seed)
			e.Metrics.observeCell(policy, trials*cell.SampleSize, time.Since(start), err)
			if err != nil {
				return err
			}

			logger.Debug("cell estimated",
				"index", cell.Index,
				"mu", cell.Mean,
				"nu", cell.Precision,
				"n", cell.SampleSize,
				"bias", rec.Bias,
			)
			records[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "grid sweep aborted")
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "grid sweep aborted")
	}
	return records, nil
}
