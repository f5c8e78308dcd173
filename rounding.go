package roundbias

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"
)

// Policy kinds recognised by ParsePolicy and the configuration file.
const (
	KindNone                 = "none"
	KindNearest              = "nearest"
	KindProbabilisticNearest = "probabilistic_nearest"
)

// RoundingPolicy transforms a raw sample the way a respondent (or the
// recording instrument) rounds answers.
//
// Apply is element-wise and length-preserving. It returns a new slice and
// never mutates the input. Policies are stateless; src is only consumed by
// policies that need coin flips.
type RoundingPolicy interface {
	Apply(sample []float64, src rand.Source) []float64
	String() string
}

// NoRounding records values exactly as drawn.
type NoRounding struct{}

// Apply returns a copy of sample.
func (NoRounding) Apply(sample []float64, _ rand.Source) []float64 {
	out := make([]float64, len(sample))
	copy(out, sample)
	return out
}

func (NoRounding) String() string { return KindNone }

// Nearest rounds every value to the nearest multiple of Step.
//
// Ties (x/Step exactly halfway between two integers) round half away from
// zero, which is math.Round. Results are clamped to [0,1] so a step that does
// not divide 1 cannot push a response off the scale. Nearest is idempotent.
type Nearest struct {
	Step float64
}

// NewNearest validates step.
func NewNearest(step float64) (Nearest, error) {
	if err := validateStep(step); err != nil {
		return Nearest{}, err
	}
	return Nearest{Step: step}, nil
}

// Round rounds a single value.
func (n Nearest) Round(x float64) float64 {
	return clamp01(math.Round(x/n.Step) * n.Step)
}

// Apply rounds every element.
func (n Nearest) Apply(sample []float64, _ rand.Source) []float64 {
	out := make([]float64, len(sample))
	for i, x := range sample {
		out[i] = n.Round(x)
	}
	return out
}

func (n Nearest) String() string {
	return fmt.Sprintf("%s(%s)", KindNearest, formatFloat(n.Step))
}

// ProbabilisticNearest rounds each value to the nearest multiple of Step with
// probability P and leaves it untouched otherwise, modelling respondents who
// only sometimes round.
//
// Every element gets its own Bernoulli(P) coin drawn from the source passed
// to Apply; callers hand in a stream separate from the one used for the
// underlying Beta draw.
type ProbabilisticNearest struct {
	Step float64
	P    float64
}

// NewProbabilisticNearest validates step and p.
func NewProbabilisticNearest(step, p float64) (ProbabilisticNearest, error) {
	if err := validateStep(step); err != nil {
		return ProbabilisticNearest{}, err
	}
	if !isFinite(p) || p < 0 || p > 1 {
		return ProbabilisticNearest{}, configErrorf("rounding probability p=%v must lie in [0,1]", p)
	}
	return ProbabilisticNearest{Step: step, P: p}, nil
}

// Apply flips one coin per element. With P=0 the output equals the input and
// with P=1 it equals Nearest{Step}.Apply.
func (pn ProbabilisticNearest) Apply(sample []float64, src rand.Source) []float64 {
	nearest := Nearest{Step: pn.Step}
	coin := distuv.Bernoulli{P: pn.P, Src: src}

	out := make([]float64, len(sample))
	for i, x := range sample {
		if coin.Rand() == 1 {
			out[i] = nearest.Round(x)
		} else {
			out[i] = x
		}
	}
	return out
}

func (pn ProbabilisticNearest) String() string {
	return fmt.Sprintf("%s(%s,%s)", KindProbabilisticNearest, formatFloat(pn.Step), formatFloat(pn.P))
}

// ParsePolicy builds a policy from its configuration form. step is ignored
// for "none" and p is ignored for "nearest".
func ParsePolicy(kind string, step, p float64) (RoundingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindNone:
		return NoRounding{}, nil
	case KindNearest:
		return NewNearest(step)
	case KindProbabilisticNearest:
		return NewProbabilisticNearest(step, p)
	default:
		return nil, configErrorf("unknown rounding kind %q (want %s, %s or %s)",
			kind, KindNone, KindNearest, KindProbabilisticNearest)
	}
}

func validateStep(step float64) error {
	if !isFinite(step) || step <= 0 {
		return configErrorf("rounding step %v must be > 0", step)
	}
	return nil
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	default:
		return x
	}
}

func formatFloat(x float64) string {
	return strconv.FormatFloat(x, 'g', -1, 64)
}
