// Package detector inspects the layout of a storage service log: its
// encoding, its data blocks, the shape of its rows and the way its time
// fields are written.
package detector

import (
	"context"
	"sort"
	"time"

	"github.com/ccollicutt/tanklog/pkg/charset"
	"github.com/ccollicutt/tanklog/pkg/parser"
)

// DetectionResult holds the result of inspecting a log file.
type DetectionResult struct {
	Encoding    string             // Detected text encoding
	Compression parser.Compression // Compression of the raw input
	Bytes       int                // Decompressed size

	Lines         int            // Lines in the decoded text
	Blocks        int            // Dataset markers seen
	DataLines     int            // Lines accepted inside blocks
	CandidateRows int            // Data lines with enough fields
	ShortRows     int            // Data lines with too few fields
	LineKinds     map[string]int // Line count per classification

	Widths   []WidthCount        // Rows per field count, ascending width
	Columns  []parser.ColumnStat // Cardinality per column
	IDColumn int                 // Inferred entity column

	Matches       []FormatMatch // Time field shapes seen, most frequent first
	SampledRows   int           // Rows checked for timestamps
	Unresolved    int           // Sampled rows with no usable timestamp
	AmbiguityNote string        // Warning about ambiguous time fields
}

// WidthCount is one bucket of the row width histogram.
type WidthCount struct {
	Width int `json:"width"`
	Rows  int `json:"rows"`
}

// FormatMatch represents a time field shape with its share of sampled rows.
type FormatMatch struct {
	Format     *TimestampFormat
	Confidence float64   // 0.0 to 1.0 (share of sampled rows)
	MatchCount int       // Number of rows resolved by this shape
	SampleLine string    // First row resolved by this shape
	ParsedTime time.Time // Timestamp of the sample row
}

// Detector inspects log files.
type Detector struct {
	sampleSize int
}

// Option configures the Detector.
type Option func(*Detector)

// WithSampleSize sets the number of rows checked for timestamps (default 1000).
func WithSampleSize(n int) Option {
	return func(d *Detector) {
		if n > 0 {
			d.sampleSize = n
		}
	}
}

// New creates a new Detector.
func New(opts ...Option) *Detector {
	d := &Detector{
		sampleSize: 1000,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DetectFromFile reads and inspects a log file.
func (d *Detector) DetectFromFile(ctx context.Context, path string) (*DetectionResult, error) {
	data, comp, err := parser.ReadFile(ctx, path)
	if err != nil {
		return nil, err
	}
	return d.inspect(ctx, data, comp)
}

// DetectFromBytes inspects an in-memory log, compressed or not.
func (d *Detector) DetectFromBytes(ctx context.Context, data []byte) (*DetectionResult, error) {
	raw, comp, err := parser.Decompress(data)
	if err != nil {
		return nil, err
	}
	return d.inspect(ctx, raw, comp)
}

func (d *Detector) inspect(ctx context.Context, data []byte, comp parser.Compression) (*DetectionResult, error) {
	text, cs := charset.DecodeDetected(data)

	rows, stats, err := parser.Segment(ctx, text)
	if err != nil {
		return nil, err
	}

	result := &DetectionResult{
		Encoding:      cs.Name,
		Compression:   comp,
		Bytes:         len(data),
		Lines:         stats.Lines,
		Blocks:        stats.Blocks,
		DataLines:     stats.DataLines,
		CandidateRows: len(rows),
		ShortRows:     stats.ShortRows,
		LineKinds:     make(map[string]int, len(stats.Kinds)),
		Columns:       parser.ColumnStats(rows),
		IDColumn:      parser.InferIDColumn(rows),
	}
	for kind, n := range stats.Kinds {
		result.LineKinds[kind.String()] = n
	}
	result.Widths = widthHistogram(rows)

	d.matchTimestamps(result, rows)
	return result, nil
}

func widthHistogram(rows []parser.Row) []WidthCount {
	counts := make(map[int]int)
	for _, r := range rows {
		counts[r.Width()]++
	}
	widths := make([]WidthCount, 0, len(counts))
	for w, n := range counts {
		widths = append(widths, WidthCount{Width: w, Rows: n})
	}
	sort.Slice(widths, func(i, j int) bool { return widths[i].Width < widths[j].Width })
	return widths
}

// matchTimestamps resolves the sampled rows and tallies the strategy used
// for each.
func (d *Detector) matchTimestamps(result *DetectionResult, rows []parser.Row) {
	sample := rows
	if len(sample) > d.sampleSize {
		sample = sample[:d.sampleSize]
	}
	result.SampledRows = len(sample)
	if len(sample) == 0 {
		return
	}

	stats := make(map[parser.Strategy]*FormatMatch)
	for _, row := range sample {
		res, err := parser.ResolveTimestamp(row)
		if err != nil {
			result.Unresolved++
			continue
		}
		m := stats[res.Strategy]
		if m == nil {
			m = &FormatMatch{
				Format:     FormatFor(res.Strategy),
				SampleLine: row.Raw,
				ParsedTime: res.Time,
			}
			stats[res.Strategy] = m
		}
		m.MatchCount++
	}

	for _, m := range stats {
		m.Confidence = float64(m.MatchCount) / float64(len(sample))
		result.Matches = append(result.Matches, *m)
	}

	// Most frequent first; ties in the order the parser tries them.
	sort.Slice(result.Matches, func(i, j int) bool {
		if result.Matches[i].MatchCount != result.Matches[j].MatchCount {
			return result.Matches[i].MatchCount > result.Matches[j].MatchCount
		}
		return result.Matches[i].Format.Strategy < result.Matches[j].Format.Strategy
	})

	for _, m := range result.Matches {
		if m.Format.Ambiguous {
			result.AmbiguityNote = "Some time fields are fractional hours. " +
				"A comma followed by one digit is read as a fraction (14,5 is 14:30:00); " +
				"a comma followed by two digits separates minutes (14,30 is 14:30:00)."
			break
		}
	}
}

// BestMatch returns the most frequent time field shape, or nil if none found.
func (r *DetectionResult) BestMatch() *FormatMatch {
	if len(r.Matches) == 0 {
		return nil
	}
	return &r.Matches[0]
}

// HasMatch returns true if at least one sampled row had a usable timestamp.
func (r *DetectionResult) HasMatch() bool {
	return len(r.Matches) > 0
}

// Grouping returns the grouping policy that pins the inferred entity column.
func (r *DetectionResult) Grouping() string {
	return parser.FixedColumn{Column: r.IDColumn}.Name()
}

// DistinctIDs returns the distinct count of the inferred entity column.
func (r *DetectionResult) DistinctIDs() int {
	if r.IDColumn < 0 || r.IDColumn >= len(r.Columns) {
		return 0
	}
	return r.Columns[r.IDColumn].Distinct
}
