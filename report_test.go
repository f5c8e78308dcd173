package roundbias

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReport(t *testing.T) *Report {
	t.Helper()
	cfg := smallConfig()
	cfg.NuValues = []float64{100}
	cfg.SampleSizes = []int{30}

	report, err := Run(context.Background(), cfg, WithLogger(quietLogger()))
	require.NoError(t, err)
	return report
}

func TestWriteCSV(t *testing.T) {
	records := []BiasRecord{
		{Cell: GridCell{Mean: 0.1, Precision: 10, SampleSize: 30}, Bias: -0.02},
		{Cell: GridCell{Mean: 0.2, Precision: 10, SampleSize: 30}, Bias: 0.01, SmoothedBias: ptr(-0.005)},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"mu", "nu", "sample_size", "bias", "smoothed_bias"},
		{"0.1", "10", "30", "-0.02", ""},
		{"0.2", "10", "30", "0.01", "-0.005"},
	}, rows)
}

func TestWriteReport_Formats(t *testing.T) {
	report := testReport(t)

	t.Run("csv default", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, report, ""))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		assert.Len(t, lines, len(report.Records)+1)
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, report, FormatJSON))

		var decoded Report
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, report.RunID, decoded.RunID)
		assert.Len(t, decoded.Records, len(report.Records))
		assert.Equal(t, report.Summary.Cells, decoded.Summary.Cells)
		assert.Nil(t, decoded.Records[0].SmoothedBias, "missing smoothed value encodes as null")
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteReport(&buf, report, FormatTable))
		out := buf.String()
		assert.Contains(t, out, report.RunID)
		assert.Contains(t, out, "nearest(0.25)")
		assert.Contains(t, out, "sign changes")
		t.Logf("\n%s", out)
	})

	t.Run("unknown", func(t *testing.T) {
		err := WriteReport(&bytes.Buffer{}, report, "xml")
		assert.True(t, errors.Is(err, ErrConfiguration))
	})
}

func TestValidateFormat(t *testing.T) {
	for _, f := range []string{"", FormatCSV, FormatJSON, FormatTable} {
		assert.NoError(t, ValidateFormat(f), "format %q", f)
	}
	assert.True(t, errors.Is(ValidateFormat("xml"), ErrConfiguration))
	assert.True(t, errors.Is(ValidateFormat("CSV"), ErrConfiguration))
}

func TestWriteDensityCSV(t *testing.T) {
	d, err := NewMeanPrecisionBeta(0.5, 2)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteDensityCSV(&buf, d.DensityCurve(3)))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"x", "density"}, rows[0])
	assert.Equal(t, "0.25", rows[1][0])

	value, err := strconv.ParseFloat(rows[1][1], 64)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, value, 1e-9, "Beta(1,1) is uniform")
}
