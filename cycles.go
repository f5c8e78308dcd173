package roundbias

import (
	"math"
)

// ReferenceBand is the ±0.01 band the bias plots draw around zero. Biases
// inside it are considered practically negligible for a [0,1] VAS scale.
const ReferenceBand = 0.01

// BiasLevel classifies the magnitude of a bias against ReferenceBand.
type BiasLevel string

const (
	BiasNegligible BiasLevel = "NEGLIGIBLE" // |bias| < band
	BiasNotable    BiasLevel = "NOTABLE"    // band ≤ |bias| < 2·band
	BiasSevere     BiasLevel = "SEVERE"     // |bias| ≥ 2·band
)

// ClassifyBias maps a bias to its level for the given band.
func ClassifyBias(bias, band float64) BiasLevel {
	switch abs := math.Abs(bias); {
	case abs < band:
		return BiasNegligible
	case abs < 2*band:
		return BiasNotable
	default:
		return BiasSevere
	}
}

// StratumAnalysis describes the shape of one stratum's bias curve over μ.
//
// Coarse rounding steps make the curve oscillate around zero as μ passes
// from one rounding target to the next ("cyclical bias"), while fine steps
// only leave a monotone drift near the scale boundaries. SignChanges and
// Crossings tell the two apart.
type StratumAnalysis struct {
	Key         StratumKey `json:"stratum"`
	Cells       int        `json:"cells"`
	SignChanges int        `json:"sign_changes"`
	Crossings   []float64  `json:"crossings"` // interpolated μ where the curve crosses zero
	Amplitude   float64    `json:"amplitude"` // max − min bias
	MaxAbsBias  float64    `json:"max_abs_bias"`
	Level       BiasLevel  `json:"level"` // classification of MaxAbsBias
	Cyclical    bool       `json:"cyclical"`
	Smoothed    bool       `json:"smoothed"` // analysis ran on smoothed values
}

// AnalyzeStrata analyzes every stratum of records. When useSmoothed is set
// and records carry smoothed values, those are analyzed and positions
// without one are skipped; otherwise raw bias is used.
func AnalyzeStrata(records []BiasRecord, useSmoothed bool) []StratumAnalysis {
	strata := GroupStrata(records)
	analyses := make([]StratumAnalysis, 0, len(strata))
	for _, s := range strata {
		analyses = append(analyses, AnalyzeStratum(s, useSmoothed))
	}
	return analyses
}

// AnalyzeStratum analyzes a single μ-ordered stratum.
func AnalyzeStratum(s Stratum, useSmoothed bool) StratumAnalysis {
	mus, biases := curve(s.Records, useSmoothed)

	a := StratumAnalysis{
		Key:       s.Key,
		Cells:     len(s.Records),
		Crossings: ZeroCrossings(mus, biases),
		Amplitude: CalculateAmplitude(biases),
		Smoothed:  useSmoothed,
	}
	a.SignChanges = len(a.Crossings)
	for _, b := range biases {
		a.MaxAbsBias = math.Max(a.MaxAbsBias, math.Abs(b))
	}
	a.Level = ClassifyBias(a.MaxAbsBias, ReferenceBand)
	a.Cyclical = a.SignChanges >= 2
	return a
}

// CountSignChanges counts strict sign flips along values. Exact zeros carry
// no sign and are skipped.
func CountSignChanges(values []float64) int {
	return len(ZeroCrossings(nil, values))
}

// ZeroCrossings returns, for each strict sign flip along values, the
// position where the piecewise-linear curve through (xs[i], values[i])
// crosses zero. Exact zeros are skipped. With xs nil the crossing
// positions are reported as fractional indices.
func ZeroCrossings(xs, values []float64) []float64 {
	var crossings []float64
	prev := -1

	for i, v := range values {
		if v == 0 || math.IsNaN(v) {
			continue
		}
		if prev >= 0 && math.Signbit(v) != math.Signbit(values[prev]) {
			x0, x1 := float64(prev), float64(i)
			if xs != nil {
				x0, x1 = xs[prev], xs[i]
			}
			v0 := values[prev]
			crossings = append(crossings, x0+(x1-x0)*v0/(v0-v))
		}
		prev = i
	}
	return crossings
}

// CalculateAmplitude returns max − min of values, or 0 when empty.
func CalculateAmplitude(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return max - min
}

func curve(records []BiasRecord, useSmoothed bool) (mus, biases []float64) {
	mus = make([]float64, 0, len(records))
	biases = make([]float64, 0, len(records))
	for _, rec := range records {
		b := rec.Bias
		if useSmoothed {
			if rec.SmoothedBias == nil {
				continue
			}
			b = *rec.SmoothedBias
		}
		mus = append(mus, rec.Cell.Mean)
		biases = append(biases, b)
	}
	return mus, biases
}
