package roundbias

import (
	"fmt"
	"math"
	"testing"
)

// AssertionConfig contains thresholds for bias properties.
type AssertionConfig struct {
	// Largest |bias| still accepted as "unbiased"
	MaxAbsBias float64

	// Minimum sign flips along μ for a stratum to count as cyclical
	MinSignChanges int

	// Analyze smoothed values instead of raw bias
	UseSmoothed bool
}

// DefaultAssertionConfig returns the thresholds the reference plots use.
func DefaultAssertionConfig() AssertionConfig {
	return AssertionConfig{
		MaxAbsBias:     2 * ReferenceBand, // 0.02
		MinSignChanges: 2,
		UseSmoothed:    false,
	}
}

// AssertUnbiased verifies every record's |bias| stays within MaxAbsBias.
//
// Mathematical property:
//
//	E[mean(sample)] = μ  ⇒  |bias| → 0 as sample_size grows
func AssertUnbiased(t testing.TB, records []BiasRecord, cfg AssertionConfig) {
	t.Helper()

	var failures []string
	for _, rec := range records {
		if math.Abs(rec.Bias) > cfg.MaxAbsBias {
			failures = append(failures, fmt.Sprintf(
				"  μ=%g ν=%g n=%d: bias=%+.5f",
				rec.Cell.Mean, rec.Cell.Precision, rec.Cell.SampleSize, rec.Bias))
		}
	}

	if len(failures) > 0 {
		t.Errorf("Bias exceeds ±%.4f in %d of %d cells:\n%v",
			cfg.MaxAbsBias, len(failures), len(records), failures)
		return
	}

	t.Logf("✓ Unbiased: |bias| ≤ %.4f in all %d cells", cfg.MaxAbsBias, len(records))
}

// AssertCyclical verifies every stratum's bias curve changes sign at least
// MinSignChanges times as μ sweeps the grid.
func AssertCyclical(t testing.TB, records []BiasRecord, cfg AssertionConfig) {
	t.Helper()

	for _, a := range AnalyzeStrata(records, cfg.UseSmoothed) {
		if a.SignChanges < cfg.MinSignChanges {
			t.Errorf("Stratum ν=%g n=%d: %d sign changes (min: %d), amplitude %.4f",
				a.Key.Precision, a.Key.SampleSize, a.SignChanges, cfg.MinSignChanges, a.Amplitude)
			continue
		}
		t.Logf("✓ Cyclical: ν=%g n=%d crosses zero at μ ≈ %.3f",
			a.Key.Precision, a.Key.SampleSize, a.Crossings)
	}
}

// AssertGridComplete verifies records cover exactly |mus|×|nus|×|sizes|
// distinct cells.
func AssertGridComplete(t testing.TB, records []BiasRecord, mus, nus []float64, sizes []int) {
	t.Helper()

	want := len(uniqueFloats(mus)) * len(uniqueFloats(nus)) * len(uniqueInts(sizes))
	if len(records) != want {
		t.Errorf("Grid incomplete: %d records, want %d", len(records), want)
	}

	type key struct {
		mu, nu float64
		n      int
	}
	seen := make(map[key]bool, len(records))
	for _, rec := range records {
		k := key{rec.Cell.Mean, rec.Cell.Precision, rec.Cell.SampleSize}
		if seen[k] {
			t.Errorf("Duplicate cell μ=%g ν=%g n=%d", k.mu, k.nu, k.n)
		}
		seen[k] = true
	}
}

// PrintAnalysis outputs the per-stratum curve analysis to the test log.
func PrintAnalysis(t testing.TB, records []BiasRecord) {
	t.Helper()

	t.Logf("\n=== Rounding Bias Analysis ===")
	t.Logf("  ν       n      cells  flips  amplitude  max|bias|  level")
	t.Logf("  ------  -----  -----  -----  ---------  ---------  ----------")
	for _, a := range AnalyzeStrata(records, false) {
		t.Logf("  %-6g  %-5d  %5d  %5d  %9.4f  %9.4f  %s",
			a.Key.Precision, a.Key.SampleSize, a.Cells, a.SignChanges,
			a.Amplitude, a.MaxAbsBias, a.Level)
	}

	s := Summarize(records, ReferenceBand)
	t.Logf("\nSummary:")
	t.Logf("  mean bias   = %+.5f", s.MeanBias)
	t.Logf("  rms bias    = %.5f", s.RMSBias)
	t.Logf("  within ±%.2f = %.1f%%", ReferenceBand, s.WithinBand*100)
}
