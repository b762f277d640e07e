package parser

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// Tokenize splits a data line into trimmed fields. Empty trailing fields are
// kept. Lines with fewer than MinFields fields are rejected.
func Tokenize(line string) ([]string, error) {
	parts := strings.Split(strings.TrimSpace(line), FieldSeparator)
	if len(parts) < MinFields {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrTooFewFields, len(parts), MinFields)
	}
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts, nil
}

// SegmentStats counts what the segmenter saw.
type SegmentStats struct {
	Lines     int
	Blocks    int
	DataLines int
	ShortRows int
	Kinds     map[LineKind]int
}

// Segment runs the block segmenter and tokenizer over decoded text and
// returns the accepted rows in document order. It stops with ctx.Err() once
// ctx is done.
func Segment(ctx context.Context, text string) ([]Row, SegmentStats, error) {
	stats := SegmentStats{Kinds: make(map[LineKind]int)}
	var (
		rows []Row
		seg  Segmenter
	)

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), len(text)+1)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		stats.Lines++
		line := scanner.Text()

		kind, accept := seg.Feed(line)
		stats.Kinds[kind]++
		if !accept {
			continue
		}
		stats.DataLines++

		fields, err := Tokenize(line)
		if err != nil {
			stats.ShortRows++
			continue
		}
		rows = append(rows, Row{
			Fields: fields,
			Raw:    strings.TrimSpace(line),
			Index:  len(rows),
			Line:   stats.Lines,
		})
	}
	stats.Blocks = seg.Blocks()

	// The scanner reads from memory and the buffer fits the whole text.
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("scanning lines: %w", err)
	}
	return rows, stats, nil
}
