// Package parser extracts tank sensor samples from storage service log files.
//
// A log interleaves diagnostic lines with blocks of ';'-separated readings.
// Each block starts after a line carrying DatasetMarker. Parsing is a single
// sequential pass: lines are segmented into blocks, tokenized into rows, the
// entity column is inferred over all rows, and every row is resolved into a
// dataset.Sample or dropped on its own.
package parser

import (
	"errors"
	"strings"
)

// DatasetMarker opens a block of data lines.
const DatasetMarker = "RawService.UpdateStorageRaw.DataSet:"

// FieldSeparator separates the fields of a data line.
const FieldSeparator = ";"

// Fixed field offsets within a data line.
const (
	// DateField holds the date when the timestamp field carries only a time.
	DateField = 0
	// TimestampField holds the combined date-time or the time of day.
	TimestampField = 1
	// ValueField holds the level reading.
	ValueField = 4
)

// MinFields is the smallest field count a data line can have.
const MinFields = ValueField + 1

// Row-level failures. They drop a single row and are never returned by Parse.
var (
	ErrTooFewFields = errors.New("too few fields")
	ErrTimestamp    = errors.New("unresolvable timestamp")
	ErrNumber       = errors.New("unparsable number")
)

// Row is a tokenized data line.
type Row struct {
	// Fields are the trimmed fields, empty trailing fields included.
	Fields []string

	// Raw is the trimmed source line.
	Raw string

	// Index is the 0-based position among accepted rows.
	Index int

	// Line is the 1-based line number in the decoded input.
	Line int
}

// Field returns field i trimmed, or "" when the row is shorter.
func (r Row) Field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}

// Width returns the number of fields.
func (r Row) Width() int {
	return len(r.Fields)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
