package roundbias

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Summary condenses a sweep into a handful of numbers.
type Summary struct {
	Cells       int      `json:"cells"`
	MeanBias    float64  `json:"mean_bias"`
	MeanAbsBias float64  `json:"mean_abs_bias"`
	RMSBias     float64  `json:"rms_bias"`
	MaxAbsBias  float64  `json:"max_abs_bias"`
	WorstCell   GridCell `json:"worst_cell"`
	WithinBand  float64  `json:"within_band"` // fraction of cells with |bias| < band
}

// Summarize computes summary statistics of raw bias over records. band is
// the tolerance used for WithinBand (ReferenceBand in reports).
func Summarize(records []BiasRecord, band float64) Summary {
	if len(records) == 0 {
		return Summary{}
	}

	biases := make([]float64, len(records))
	abs := make([]float64, len(records))
	squares := make([]float64, len(records))

	s := Summary{Cells: len(records)}
	var inside int
	for i, rec := range records {
		biases[i] = rec.Bias
		abs[i] = math.Abs(rec.Bias)
		squares[i] = rec.Bias * rec.Bias

		if abs[i] > s.MaxAbsBias || i == 0 {
			s.MaxAbsBias = abs[i]
			s.WorstCell = rec.Cell
		}
		if abs[i] < band {
			inside++
		}
	}

	s.MeanBias = stat.Mean(biases, nil)
	s.MeanAbsBias = stat.Mean(abs, nil)
	s.RMSBias = math.Sqrt(stat.Mean(squares, nil))
	s.WithinBand = float64(inside) / float64(len(records))
	return s
}
