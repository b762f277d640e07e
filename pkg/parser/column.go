package parser

import "math"

// earlyExitRows is the row count above which a column stops counting once
// it has more distinct values than half the rows.
const earlyExitRows = 10

// ColumnStat describes the cardinality of one field column.
type ColumnStat struct {
	Column int

	// Distinct is the number of distinct non-blank values seen. For a
	// saturated column it is a lower bound.
	Distinct int

	// HasValue is false when every row has the column blank or missing.
	HasValue bool

	// Saturated is set when counting stopped early because the column has
	// too many distinct values to be a grouping key.
	Saturated bool
}

// ColumnStats computes per-column cardinality over rows, up to the widest
// row.
func ColumnStats(rows []Row) []ColumnStat {
	width := 0
	for _, r := range rows {
		width = max(width, r.Width())
	}

	total := len(rows)
	stats := make([]ColumnStat, width)
	for col := 0; col < width; col++ {
		st := ColumnStat{Column: col}
		distinct := make(map[string]struct{})
		for _, r := range rows {
			v := r.Field(col)
			if isBlank(v) {
				continue
			}
			st.HasValue = true
			distinct[v] = struct{}{}
			if total > earlyExitRows && len(distinct) > total/2 {
				st.Saturated = true
				break
			}
		}
		st.Distinct = len(distinct)
		stats[col] = st
	}
	return stats
}

// InferIDColumn picks the column most likely to hold the entity id. Grouping
// keys repeat across many timestamped samples while timestamps and record
// ids do not, so the column with the fewest distinct values wins. A
// single-valued column is taken only when no other candidate has been found
// before it. Without any candidate the result is column 0.
func InferIDColumn(rows []Row) int {
	return selectIDColumn(ColumnStats(rows), len(rows))
}

func selectIDColumn(stats []ColumnStat, total int) int {
	best, bestDistinct := -1, math.MaxInt
	for _, st := range stats {
		if !st.HasValue || st.Saturated {
			continue
		}
		switch {
		case st.Distinct == 1 && best == -1:
			best, bestDistinct = st.Column, 1
		case st.Distinct > 1 && st.Distinct < total && st.Distinct < bestDistinct:
			best, bestDistinct = st.Column, st.Distinct
		}
	}
	if best < 0 {
		return 0
	}
	return best
}
