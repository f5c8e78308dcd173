package main

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/alexshd/roundbias"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()

	out, err := executeErr(args...)
	require.NoError(t, err)
	return out
}

func executeErr(args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--log-level", "error", "--no-color"}, args...))
	err := rootCmd.Execute()
	return out.String(), err
}

func TestConfigCommand(t *testing.T) {
	out := execute(t, "config")

	var cfg roundbias.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, roundbias.DefaultConfig(), cfg)
}

func TestDensityCommand(t *testing.T) {
	out := execute(t, "density", "--mu", "0.3", "--nu", "50", "--points", "9")

	rows, err := csv.NewReader(bytes.NewBufferString(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 10)
	assert.Equal(t, []string{"x", "density"}, rows[0])
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	outFile := filepath.Join(dir, "bias.csv")
	metricsFile := filepath.Join(dir, "metrics.prom")

	execute(t, "run",
		"--mu", "0.1,0.3,0.5,0.7,0.9",
		"--nu", "10,100",
		"--sizes", "30",
		"--rounding", "Nearest",
		"--step", "0.25",
		"--window", "2",
		"--workers", "2",
		"--seed", "3",
		"--format", "csv",
		"--out", outFile,
		"--metrics-file", metricsFile,
	)

	f, err := os.Open(outFile)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1+5*2)
	assert.Equal(t, "", rows[1][4], "first position of a stratum has no smoothed value")
	assert.NotEqual(t, "", rows[2][4])

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "roundbias_cells_total")
}

func TestRunCommand_UnknownFormatFailsBeforeSweep(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "bias.xml")

	_, err := executeErr("run",
		"--mu", "0.5",
		"--nu", "10",
		"--sizes", "30",
		"--format", "xml",
		"--out", outFile,
	)
	require.Error(t, err)
	assert.True(t, errors.Is(err, roundbias.ErrConfiguration), "got %v", err)

	_, statErr := os.Stat(outFile)
	assert.True(t, os.IsNotExist(statErr), "no output is written for a rejected format")
}

func TestSetupLogger_InvalidLevel(t *testing.T) {
	assert.Error(t, setupLogger("loud", true))
}
