// Package roundbias estimates the bias rounding introduces into continuous
// survey responses such as visual-analog-scale (VAS) ratings.
//
// # Overview
//
// Latent responses are modelled as Beta draws parameterized by mean μ and
// precision ν. A rounding policy is applied to each simulated sample, and the
// bias of the recorded mean,
//
//	bias = mean(rounded sample) − μ
//
// is measured over a grid of (μ, ν, sample_size) cells. A trailing moving
// average per (ν, sample_size) stratum separates the systematic bias curve
// from Monte Carlo noise.
//
// # Architecture
//
// The package components:
//
//   - beta.go      - Mean/precision Beta sampler and density
//   - rounding.go  - Rounding policies (none, nearest, probabilistic nearest)
//   - grid.go      - Grid cell enumeration
//   - estimator.go - Per-cell Monte Carlo bias, parallel grid sweep
//   - smoother.go  - Per-stratum trailing moving average
//   - cycles.go    - Sign changes and zero crossings of bias curves
//   - sweep.go     - End-to-end Run producing a Report
//
// # Quick Start
//
//	cfg := roundbias.DefaultConfig()
//	cfg.Rounding = roundbias.RoundingConfig{Kind: "nearest", Step: 0.25}
//
//	report, err := roundbias.Run(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, s := range report.Strata {
//	    fmt.Printf("ν=%g n=%d: %d sign changes\n",
//	        s.Key.Precision, s.Key.SampleSize, s.SignChanges)
//	}
//
// # Mean/Precision Parameterization
//
//	α = μ·ν,  β = (1 − μ)·ν
//	E[X] = μ,  Var[X] = μ(1 − μ)/(ν + 1)
//
// μ must lie in (0,1) and ν must be positive. Out-of-range values are
// rejected with ErrConfiguration, never clamped.
//
// # Rounding
//
// Nearest(step) maps x to round(x/step)·step with ties rounded half away
// from zero (math.Round), clamped to [0,1]. ProbabilisticNearest(step, p)
// does so for each element independently with probability p.
//
// Coarse steps make the bias curve oscillate around zero as μ moves between
// rounding targets:
//
//	step = 0.25:  μ ≈ 0.20 → bias > 0,  μ ≈ 0.30 → bias < 0,  ...
//
// Fine steps leave only a drift near the scale boundaries, where the mass
// below step/2 rounds down to 0 (or above 1 − step/2 rounds up to 1).
//
// # Reproducibility
//
// Each cell owns two PCG streams derived from (seed, cell index): one for the
// Beta draws and one for rounding coins. Results are identical for any
// worker count and evaluation order.
//
// # Testing
//
// Use assertions to validate bias properties:
//
//	func TestUnroundedIsUnbiased(t *testing.T) {
//	    records := estimate(...)
//	    roundbias.AssertUnbiased(t, records, roundbias.DefaultAssertionConfig())
//	}
package roundbias
