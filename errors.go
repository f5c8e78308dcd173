package roundbias

import (
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrConfiguration marks invalid grid, policy, smoothing or run
	// parameters. It is returned eagerly by constructors and never
	// corrected silently.
	ErrConfiguration = errors.New("configuration error")

	// ErrNumeric marks a NaN or infinite value produced by sampling or
	// bias computation. Valid inputs never produce one.
	ErrNumeric = errors.New("numeric error")
)

// configErrorf wraps ErrConfiguration with a formatted reason.
func configErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}

// numericErrorf wraps ErrNumeric with a formatted reason.
func numericErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrNumeric, format, args...)
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
