package roundbias

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"
)

// Output formats understood by WriteReport.
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatTable = "table"
)

var recordHeader = []string{"mu", "nu", "sample_size", "bias", "smoothed_bias"}

// ValidateFormat reports whether WriteReport understands format. An empty
// format means csv.
func ValidateFormat(format string) error {
	switch format {
	case FormatCSV, FormatJSON, FormatTable, "":
		return nil
	default:
		return configErrorf("unknown output format %q (want %s, %s or %s)",
			format, FormatCSV, FormatJSON, FormatTable)
	}
}

// WriteReport writes r in the named format.
func WriteReport(w io.Writer, r *Report, format string) error {
	if err := ValidateFormat(format); err != nil {
		return err
	}

	switch format {
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatTable:
		return WriteTable(w, r)
	default:
		return WriteCSV(w, r.Records)
	}
}

// WriteCSV writes one row per record, the long table a plotting tool facets
// by nu (columns) and sample_size (rows). A missing smoothed value is an
// empty field.
func WriteCSV(w io.Writer, records []BiasRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(recordHeader); err != nil {
		return errors.Wrap(err, "failed to write csv header")
	}

	for _, rec := range records {
		smoothed := ""
		if rec.SmoothedBias != nil {
			smoothed = strconv.FormatFloat(*rec.SmoothedBias, 'g', -1, 64)
		}
		row := []string{
			strconv.FormatFloat(rec.Cell.Mean, 'g', -1, 64),
			strconv.FormatFloat(rec.Cell.Precision, 'g', -1, 64),
			strconv.Itoa(rec.Cell.SampleSize),
			strconv.FormatFloat(rec.Bias, 'g', -1, 64),
			smoothed,
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "failed to write csv row")
		}
	}

	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush csv")
}

// WriteJSON writes the whole report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(r), "failed to encode report")
}

// WriteTable writes a human-readable overview: run header, one line per
// stratum analysis and the summary.
func WriteTable(w io.Writer, r *Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "run\t%s\n", r.RunID)
	fmt.Fprintf(tw, "policy\t%s\n", r.Policy)
	fmt.Fprintf(tw, "seed\t%d\n", r.Seed)
	fmt.Fprintf(tw, "trials\t%d\n", r.Trials)
	fmt.Fprintf(tw, "smoothing\t%d (%s)\n\n", r.Window, r.Edge)

	fmt.Fprintln(tw, "nu\tn\tcells\tsign changes\tamplitude\tmax |bias|\tlevel\tcyclical")
	for _, s := range r.Strata {
		fmt.Fprintf(tw, "%g\t%d\t%d\t%d\t%.4f\t%.4f\t%s\t%v\n",
			s.Key.Precision, s.Key.SampleSize, s.Cells, s.SignChanges,
			s.Amplitude, s.MaxAbsBias, s.Level, s.Cyclical)
	}

	fmt.Fprintf(tw, "\ncells\t%d\n", r.Summary.Cells)
	fmt.Fprintf(tw, "mean bias\t%+.5f\n", r.Summary.MeanBias)
	fmt.Fprintf(tw, "mean |bias|\t%.5f\n", r.Summary.MeanAbsBias)
	fmt.Fprintf(tw, "rms bias\t%.5f\n", r.Summary.RMSBias)
	fmt.Fprintf(tw, "max |bias|\t%.5f (mu=%g nu=%g n=%d)\n", r.Summary.MaxAbsBias,
		r.Summary.WorstCell.Mean, r.Summary.WorstCell.Precision, r.Summary.WorstCell.SampleSize)
	fmt.Fprintf(tw, "within ±%g\t%.1f%%\n", ReferenceBand, r.Summary.WithinBand*100)

	return errors.Wrap(tw.Flush(), "failed to write table")
}

// WriteDensityCSV writes a reference density curve as x,density rows.
func WriteDensityCSV(w io.Writer, curve []DensityPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "density"}); err != nil {
		return errors.Wrap(err, "failed to write csv header")
	}
	for _, p := range curve {
		row := []string{
			strconv.FormatFloat(p.X, 'g', -1, 64),
			strconv.FormatFloat(p.Value, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "failed to write csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "failed to flush csv")
}
