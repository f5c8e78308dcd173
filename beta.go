package roundbias

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// MeanPrecisionBeta is a Beta distribution parameterized by its mean μ and
// precision ν instead of the two shape parameters:
//
//	α = μ·ν
//	β = (1 − μ)·ν
//
// so that μ = α/(α+β) and ν = α+β. Latent VAS responses are modelled as draws
// from this distribution; larger ν concentrates responses around μ.
//
// Values are immutable and built fresh for every grid cell.
type MeanPrecisionBeta struct {
	Mean      float64 // μ, in the open interval (0,1)
	Precision float64 // ν, strictly positive
}

// DensityPoint is one point of a reference density curve.
type DensityPoint struct {
	X     float64
	Value float64
}

// NewMeanPrecisionBeta validates μ and ν and returns the distribution.
//
// μ on or outside the (0,1) boundary, ν ≤ 0, non-finite values and products
// μ·ν or (1−μ)·ν that underflow to 0 return ErrConfiguration. Parameters are
// never clamped.
func NewMeanPrecisionBeta(mean, precision float64) (MeanPrecisionBeta, error) {
	if !isFinite(mean) || mean <= 0 || mean >= 1 {
		return MeanPrecisionBeta{}, configErrorf("mean μ=%v must lie in (0,1)", mean)
	}
	if !isFinite(precision) || precision <= 0 {
		return MeanPrecisionBeta{}, configErrorf("precision ν=%v must be > 0", precision)
	}
	d := MeanPrecisionBeta{Mean: mean, Precision: precision}
	if !(d.Alpha() > 0) || !(d.Beta() > 0) || !isFinite(d.Alpha()) || !isFinite(d.Beta()) {
		return MeanPrecisionBeta{}, configErrorf("μ=%v, ν=%v give shape parameters α=%v, β=%v outside (0,∞)",
			mean, precision, d.Alpha(), d.Beta())
	}
	return d, nil
}

// Alpha returns the left shape parameter μ·ν.
func (d MeanPrecisionBeta) Alpha() float64 {
	return d.Mean * d.Precision
}

// Beta returns the right shape parameter (1−μ)·ν.
func (d MeanPrecisionBeta) Beta() float64 {
	return (1 - d.Mean) * d.Precision
}

// Variance returns μ(1−μ)/(ν+1).
func (d MeanPrecisionBeta) Variance() float64 {
	return d.Mean * (1 - d.Mean) / (d.Precision + 1)
}

// dist returns the gonum distribution shared by Density and Sample.
func (d MeanPrecisionBeta) dist(src rand.Source) distuv.Beta {
	return distuv.Beta{Alpha: d.Alpha(), Beta: d.Beta(), Src: src}
}

// Density evaluates the Beta(α, β) density at x. It is 0 outside (0,1).
func (d MeanPrecisionBeta) Density(x float64) float64 {
	if x <= 0 || x >= 1 {
		return 0
	}
	return d.dist(nil).Prob(x)
}

// DensityCurve samples the density at points evenly spaced over the open
// interval (0,1), excluding both endpoints. Used for reference overlays.
func (d MeanPrecisionBeta) DensityCurve(points int) []DensityPoint {
	if points <= 0 {
		return nil
	}

	curve := make([]DensityPoint, points)
	step := 1.0 / float64(points+1)
	for i := range curve {
		x := float64(i+1) * step
		curve[i] = DensityPoint{X: x, Value: d.Density(x)}
	}
	return curve
}

// Sample draws n independent values from the distribution using src.
//
// With α, β ≥ 1 gonum generates each variate as Ga/(Ga+Gb) from two
// independent Gamma(α,1), Gamma(β,1) draws. Below 1 both Gamma draws can
// underflow to 0, so the variate is built in log space instead (see
// logBetaRand). A non-finite draw is reported as ErrNumeric.
func (d MeanPrecisionBeta) Sample(src rand.Source, n int) ([]float64, error) {
	if n <= 0 {
		return nil, configErrorf("sample size %d must be > 0", n)
	}

	dist := d.dist(src)
	draw := dist.Rand
	if dist.Alpha < 1 || dist.Beta < 1 {
		draw = d.logBetaRand(src)
	}

	sample := make([]float64, n)
	for i := range sample {
		x := draw()
		if !isFinite(x) {
			return nil, numericErrorf("beta(α=%v, β=%v) produced %v", dist.Alpha, dist.Beta, x)
		}
		sample[i] = x
	}
	return sample, nil
}

// logBetaRand returns a Beta(α, β) generator that works on log Gamma
// variates:
//
//	log Ga(a) = log Ga(a+1) + log(U)/a,  U ~ Uniform(0,1]
//	X = 1 / (1 + exp(log Gb − log Ga))
//
// Every intermediate stays finite for arbitrarily small shape parameters;
// X may come out as exactly 0 or 1 when one side dominates.
func (d MeanPrecisionBeta) logBetaRand(src rand.Source) func() float64 {
	rnd := rand.New(src)
	ga := distuv.Gamma{Alpha: d.Alpha() + 1, Beta: 1, Src: src}
	gb := distuv.Gamma{Alpha: d.Beta() + 1, Beta: 1, Src: src}

	logGamma := func(g distuv.Gamma, shape float64) float64 {
		u := 1 - rnd.Float64()
		return math.Log(g.Rand()) + math.Log(u)/shape
	}

	return func() float64 {
		la := logGamma(ga, d.Alpha())
		lb := logGamma(gb, d.Beta())
		return 1 / (1 + math.Exp(lb-la))
	}
}
