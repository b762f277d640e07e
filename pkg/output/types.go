// Package output provides report building and formatting for parse results.
package output

import (
	"fmt"
	"math"
	"time"

	"github.com/ccollicutt/tanklog/pkg/dataset"
)

// Report is the complete parse output.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary `json:"summary"`

	// Files holds one entry per parsed log file, in input order.
	Files []FileReport `json:"files"`

	// Metadata provides context about the parse run.
	Metadata Metadata `json:"metadata"`

	datasets []*dataset.Dataset
}

// Summary provides aggregate statistics.
type Summary struct {
	// FilesParsed is the number of log files that were parsed.
	FilesParsed int `json:"files_parsed"`

	// FilesWithSamples is the number of files that yielded samples.
	FilesWithSamples int `json:"files_with_samples"`

	// Entities is the number of entities summed over files.
	Entities int `json:"entities"`

	// Samples is the total number of samples.
	Samples int `json:"samples"`
}

// FileReport summarizes the dataset extracted from one file.
type FileReport struct {
	Source      string          `json:"source"`
	SampleCount int             `json:"sample_count"`
	Fingerprint string          `json:"fingerprint"`
	Entities    []EntitySummary `json:"entities"`

	// Samples is filled only for verbose JSON output.
	Samples []dataset.Sample `json:"samples,omitempty"`
}

// EntitySummary describes the series of one entity.
type EntitySummary struct {
	ID    string    `json:"id"`
	Count int       `json:"count"`
	First time.Time `json:"first"`
	Last  time.Time `json:"last"`

	// Missing counts samples without a reading.
	Missing int `json:"missing,omitempty"`

	// Min and Max are nil when no sample has a reading.
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Metadata provides context about the parse run.
type Metadata struct {
	// ConfigFile is the path to the configuration file used, if any.
	ConfigFile string `json:"config_file,omitempty"`

	// Sources lists the log files that were parsed.
	Sources []string `json:"sources"`

	// Grouping is the name of the grouping policy.
	Grouping string `json:"grouping,omitempty"`

	// Filter is the filter that was applied, if any.
	Filter *Filter `json:"filter,omitempty"`

	// ParsedAt is when the parse finished.
	ParsedAt time.Time `json:"parsed_at"`

	// Duration is how long the parse took.
	Duration time.Duration `json:"duration"`
}

// Filter records the bounds applied to the samples.
type Filter struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
	Min  *float64   `json:"min,omitempty"`
	Max  *float64   `json:"max,omitempty"`
}

// NewFilter converts bounds for reporting. Open bounds yield nil.
func NewFilter(b dataset.Bounds) *Filter {
	if b.IsOpen() {
		return nil
	}
	return &Filter{From: b.From, To: b.To, Min: b.Min, Max: b.Max}
}

// NewReport creates a Report from parsed datasets. Sources defaults to the
// dataset sources when meta leaves it empty.
func NewReport(datasets []*dataset.Dataset, meta Metadata) *Report {
	report := &Report{
		Files:    make([]FileReport, 0, len(datasets)),
		Metadata: meta,
		datasets: datasets,
	}

	fillSources := len(meta.Sources) == 0
	for _, ds := range datasets {
		fr := Summarize(ds)
		report.Files = append(report.Files, fr)

		report.Summary.FilesParsed++
		report.Summary.Entities += len(fr.Entities)
		report.Summary.Samples += fr.SampleCount
		if fr.SampleCount > 0 {
			report.Summary.FilesWithSamples++
		}
		if fillSources {
			report.Metadata.Sources = append(report.Metadata.Sources, ds.Source())
		}
	}

	return report
}

// Summarize builds the per-entity summary of one dataset.
func Summarize(ds *dataset.Dataset) FileReport {
	fr := FileReport{
		Source:      ds.Source(),
		SampleCount: ds.Len(),
		Fingerprint: fmt.Sprintf("%016x", ds.Fingerprint()),
		Entities:    make([]EntitySummary, 0, ds.EntityCount()),
	}
	ds.Each(func(id string, samples []dataset.Sample) bool {
		fr.Entities = append(fr.Entities, summarizeEntity(id, samples))
		return true
	})
	return fr
}

func summarizeEntity(id string, samples []dataset.Sample) EntitySummary {
	es := EntitySummary{ID: id, Count: len(samples)}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, s := range samples {
		if i == 0 || s.Timestamp.Before(es.First) {
			es.First = s.Timestamp
		}
		if i == 0 || s.Timestamp.After(es.Last) {
			es.Last = s.Timestamp
		}
		if !s.HasValue() {
			es.Missing++
			continue
		}
		lo = math.Min(lo, s.Value)
		hi = math.Max(hi, s.Value)
	}
	if es.Missing < es.Count {
		es.Min, es.Max = &lo, &hi
	}
	return es
}

// Datasets returns the datasets the report was built from.
func (r *Report) Datasets() []*dataset.Dataset {
	return r.datasets
}

// HasSamples returns true if any samples were extracted.
func (r *Report) HasSamples() bool {
	return r.Summary.Samples > 0
}
