package main

import (
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/alexshd/roundbias"
)

// --- Global Flags ---
var (
	logLevel string
	noColor  bool

	rootCmd = &cobra.Command{
		Use:   "roundbias",
		Short: "Estimate the bias rounding introduces into VAS survey responses",
		Long: `roundbias simulates Beta-distributed latent responses over a grid of
mean, precision and sample size, applies a rounding policy and reports the
bias of the recorded mean per grid cell.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogger(logLevel, noColor)
		},
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Run a bias sweep and write the per-cell report",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}

	densityCmd = &cobra.Command{
		Use:   "density",
		Short: "Write the reference Beta density for one (mu, nu) as CSV",
		Args:  cobra.NoArgs,
		RunE:  runDensity,
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the default sweep configuration as YAML",
		Args:  cobra.NoArgs,
		RunE:  runConfig,
	}
)

// --- run flags ---
var (
	configPath  string
	outPath     string
	format      string
	metricsPath string
	seed        uint64
	rounding    string
	step        float64
	prob        float64
	window      int
	edge        string
	trials      int
	workers     int
	mus         []float64
	nus         []float64
	sizes       []int
)

// --- density flags ---
var (
	densityMu     float64
	densityNu     float64
	densityPoints int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored log output")

	f := runCmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML sweep configuration (defaults apply when empty)")
	f.StringVarP(&outPath, "out", "o", "", "Output file (stdout when empty)")
	f.StringVarP(&format, "format", "f", roundbias.FormatCSV, "Output format (csv, json, table)")
	f.StringVar(&metricsPath, "metrics-file", "", "Write Prometheus metrics of the sweep to this file")
	f.Uint64Var(&seed, "seed", 0, "Random seed")
	f.StringVar(&rounding, "rounding", "", "Rounding policy (none, nearest, probabilistic_nearest)")
	f.Float64Var(&step, "step", 0, "Rounding step")
	f.Float64Var(&prob, "p", 0, "Rounding probability for probabilistic_nearest")
	f.IntVar(&window, "window", 0, "Smoothing window")
	f.StringVar(&edge, "edge", "", "Smoothing edge policy (missing, shrink)")
	f.IntVar(&trials, "trials", 0, "Monte Carlo trials per cell")
	f.IntVar(&workers, "workers", 0, "Cells estimated concurrently")
	f.Float64SliceVar(&mus, "mu", nil, "Mean values (replaces the configured mu grid)")
	f.Float64SliceVar(&nus, "nu", nil, "Precision values")
	f.IntSliceVar(&sizes, "sizes", nil, "Sample sizes")

	df := densityCmd.Flags()
	df.Float64Var(&densityMu, "mu", 0.5, "Mean μ in (0,1)")
	df.Float64Var(&densityNu, "nu", 100, "Precision ν > 0")
	df.IntVar(&densityPoints, "points", 99, "Points on the curve")

	rootCmd.AddCommand(runCmd, densityCmd, configCmd)
}

// loadRunConfig merges the config file (or defaults) with explicitly set flags.
// The output format is checked here too, before any cell is estimated.
func loadRunConfig(cmd *cobra.Command) (roundbias.Config, error) {
	if err := roundbias.ValidateFormat(format); err != nil {
		return roundbias.Config{}, err
	}

	cfg := roundbias.DefaultConfig()
	if configPath != "" {
		loaded, err := roundbias.LoadConfig(configPath)
		if err != nil {
			return roundbias.Config{}, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("rounding") {
		cfg.Rounding.Kind = rounding
	}
	if flags.Changed("step") {
		cfg.Rounding.Step = step
	}
	if flags.Changed("p") {
		cfg.Rounding.P = prob
	}
	if flags.Changed("window") {
		cfg.SmoothingWindow = window
	}
	if flags.Changed("edge") {
		cfg.SmoothingEdge = edge
	}
	if flags.Changed("trials") {
		cfg.Trials = trials
	}
	if flags.Changed("workers") {
		cfg.Workers = workers
	}
	if flags.Changed("mu") {
		cfg.MuValues, cfg.MuRange = mus, nil
	}
	if flags.Changed("nu") {
		cfg.NuValues = nus
	}
	if flags.Changed("sizes") {
		cfg.SampleSizes = sizes
	}

	return cfg, cfg.Validate()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	report, err := roundbias.Run(ctx, cfg,
		roundbias.WithLogger(slog.Default()),
		roundbias.WithRegisterer(reg),
	)
	if err != nil {
		return err
	}

	if err := writeOutput(outPath, func(w io.Writer) error {
		return roundbias.WriteReport(w, report, format)
	}); err != nil {
		return err
	}

	if metricsPath != "" {
		if err := prometheus.WriteToTextfile(metricsPath, reg); err != nil {
			return errors.Wrap(err, "failed to write metrics")
		}
		slog.Info("metrics written", "path", metricsPath)
	}
	return nil
}

func runDensity(cmd *cobra.Command, args []string) error {
	dist, err := roundbias.NewMeanPrecisionBeta(densityMu, densityNu)
	if err != nil {
		return err
	}
	slog.Debug("density curve",
		"alpha", dist.Alpha(),
		"beta", dist.Beta(),
		"variance", dist.Variance(),
	)
	return roundbias.WriteDensityCSV(cmd.OutOrStdout(), dist.DensityCurve(densityPoints))
}

func runConfig(cmd *cobra.Command, args []string) error {
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(roundbias.DefaultConfig()); err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	return enc.Close()
}

// writeOutput runs write against path, or stdout when path is empty.
func writeOutput(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", path)
	}
	slog.Info("report written", "path", path)
	return nil
}
