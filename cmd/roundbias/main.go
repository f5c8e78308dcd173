// Command roundbias sweeps a (μ, ν, sample size) grid and reports the bias
// rounding introduces into Beta-distributed VAS responses.
//
// Usage:
//
//	roundbias run --rounding nearest --step 0.25 --format table
//	roundbias run --config sweep.yaml --out bias.csv --metrics-file metrics.prom
//	roundbias density --mu 0.3 --nu 100 > density.csv
//	roundbias config > sweep.yaml
package main

import (
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("roundbias failed", "error", err)
		os.Exit(1)
	}
}

// setupLogger installs a tint handler on stderr as the default logger.
func setupLogger(level string, noColor bool) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return err
	}

	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      lvl,
			TimeFormat: "15:04:05",
			NoColor:    noColor,
		}),
	))
	return nil
}
