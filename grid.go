package roundbias

import (
	"math"
)

// GridCell is one (μ, ν, sample size) configuration evaluated independently.
//
// Index is the cell's position in the enumerated grid. It is stable for a
// given grid and keys the cell's random streams, which keeps results
// independent of evaluation order.
type GridCell struct {
	Index      int     `json:"index"`
	Mean       float64 `json:"mu"`
	Precision  float64 `json:"nu"`
	SampleSize int     `json:"sample_size"`
}

// Stratum returns the (ν, sample size) key the cell is smoothed within.
func (c GridCell) Stratum() StratumKey {
	return StratumKey{Precision: c.Precision, SampleSize: c.SampleSize}
}

// StratumKey identifies cells that differ only in μ.
type StratumKey struct {
	Precision  float64 `json:"nu"`
	SampleSize int     `json:"sample_size"`
}

// Cells enumerates the full Cartesian product mus × nus × sizes.
//
// Inputs are treated as sets: repeated values are dropped, keeping the first
// occurrence. The order is ν-major, then sample size, then μ, and every cell
// gets its position as Index. Any empty set or out-of-range value returns
// ErrConfiguration; the grid generator is the only place such values can be
// rejected before they reach the sampler.
func Cells(mus, nus []float64, sizes []int) ([]GridCell, error) {
	mus = uniqueFloats(mus)
	nus = uniqueFloats(nus)
	sizes = uniqueInts(sizes)

	if len(mus) == 0 || len(nus) == 0 || len(sizes) == 0 {
		return nil, configErrorf("grid needs at least one μ, ν and sample size (got %d, %d, %d)",
			len(mus), len(nus), len(sizes))
	}
	for _, mu := range mus {
		if !isFinite(mu) || mu <= 0 || mu >= 1 {
			return nil, configErrorf("grid μ=%v must lie in (0,1)", mu)
		}
	}
	for _, nu := range nus {
		if !isFinite(nu) || nu <= 0 {
			return nil, configErrorf("grid ν=%v must be > 0", nu)
		}
	}
	for _, n := range sizes {
		if n <= 0 {
			return nil, configErrorf("grid sample size %d must be > 0", n)
		}
	}

	cells := make([]GridCell, 0, len(mus)*len(nus)*len(sizes))
	for _, nu := range nus {
		for _, n := range sizes {
			for _, mu := range mus {
				cells = append(cells, GridCell{
					Index:      len(cells),
					Mean:       mu,
					Precision:  nu,
					SampleSize: n,
				})
			}
		}
	}
	return cells, nil
}

// Range is an inclusive arithmetic sweep Min, Min+Step, ..., ≤ Max.
type Range struct {
	Min  float64 `yaml:"min" json:"min" validate:"gt=0,lt=1"`
	Max  float64 `yaml:"max" json:"max" validate:"gtefield=Min,lt=1"`
	Step float64 `yaml:"step" json:"step" validate:"gt=0"`
}

// Values expands the range. Each value is computed as Min + i·Step (not by
// repeated addition) and snapped to 12 decimal places so 0.01-step sweeps
// produce 0.07 rather than 0.07000000000000001.
func (r Range) Values() []float64 {
	if r.Step <= 0 || r.Max < r.Min {
		return nil
	}

	const snap = 1e12
	n := int(math.Floor((r.Max-r.Min)/r.Step+1e-9)) + 1
	values := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		v := math.Round((r.Min+float64(i)*r.Step)*snap) / snap
		values = append(values, v)
	}
	return values
}

func uniqueFloats(in []float64) []float64 {
	seen := make(map[float64]struct{}, len(in))
	out := make([]float64, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func uniqueInts(in []int) []int {
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
