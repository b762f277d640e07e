package output

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"strconv"

	"github.com/ccollicutt/tanklog/pkg/dataset"
)

// CSVFormatter writes one row per sample, or one row per entity in quiet
// mode.
type CSVFormatter struct {
	opts FormatOptions
}

// NewCSVFormatter creates a new CSV formatter with the given options.
func NewCSVFormatter(opts FormatOptions) *CSVFormatter {
	return &CSVFormatter{opts: opts}
}

// Name returns the format name.
func (f *CSVFormatter) Name() string {
	return "csv"
}

// Format renders the report as CSV.
func (f *CSVFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	cw := csv.NewWriter(w)

	if f.opts.Quiet {
		if err := f.writeEntities(cw, report); err != nil {
			return err
		}
	} else if err := f.writeSamples(ctx, cw, report); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

func (f *CSVFormatter) writeSamples(ctx context.Context, cw *csv.Writer, report *Report) error {
	if err := cw.Write([]string{"source", "entity_id", "sample_id", "timestamp", "value"}); err != nil {
		return err
	}
	for _, ds := range report.datasets {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, s := range ds.All() {
			record := []string{
				ds.Source(),
				s.EntityID,
				s.SampleID,
				s.Timestamp.Format(dataset.TimestampLayout),
				csvValue(s.Value),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *CSVFormatter) writeEntities(cw *csv.Writer, report *Report) error {
	if err := cw.Write([]string{"source", "entity_id", "count", "first", "last", "min", "max", "missing"}); err != nil {
		return err
	}
	for _, file := range report.Files {
		for _, e := range file.Entities {
			lo, hi := "", ""
			if e.Min != nil && e.Max != nil {
				lo, hi = csvValue(*e.Min), csvValue(*e.Max)
			}
			record := []string{
				file.Source,
				e.ID,
				strconv.Itoa(e.Count),
				e.First.Format(dataset.TimestampLayout),
				e.Last.Format(dataset.TimestampLayout),
				lo,
				hi,
				strconv.Itoa(e.Missing),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	return nil
}

// csvValue renders a reading with a dot decimal separator, empty when
// missing.
func csvValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
