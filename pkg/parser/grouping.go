package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// PlaceholderEntityID replaces a blank entity id.
const PlaceholderEntityID = "Tank 1"

// EntityResolver maps a row to its entity id. It never returns "".
type EntityResolver func(row Row) string

// GroupingPolicy decides how rows are grouped into entities. Bind sees the
// complete row set of one parse before any row is resolved.
type GroupingPolicy interface {
	Name() string
	Bind(rows []Row) EntityResolver
}

// InferredColumn groups by the column chosen by InferIDColumn.
type InferredColumn struct{}

// Name returns "inferred".
func (InferredColumn) Name() string { return "inferred" }

// Bind infers the id column over rows.
func (InferredColumn) Bind(rows []Row) EntityResolver {
	return columnResolver(InferIDColumn(rows))
}

// FirstField groups by the first field of each row.
type FirstField struct{}

// Name returns "first-field".
func (FirstField) Name() string { return "first-field" }

// Bind ignores rows.
func (FirstField) Bind([]Row) EntityResolver {
	return columnResolver(0)
}

// FixedColumn groups by a configured 0-based column.
type FixedColumn struct {
	Column int
}

// Name returns "column:N".
func (f FixedColumn) Name() string { return "column:" + strconv.Itoa(f.Column) }

// Bind ignores rows.
func (f FixedColumn) Bind([]Row) EntityResolver {
	return columnResolver(f.Column)
}

func columnResolver(col int) EntityResolver {
	return func(row Row) string {
		v := row.Field(col)
		if isBlank(v) {
			return PlaceholderEntityID
		}
		return v
	}
}

// ParseGroupingPolicy parses "inferred", "first-field" or "column:N". An
// empty string selects InferredColumn.
func ParseGroupingPolicy(s string) (GroupingPolicy, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "", "inferred":
		return InferredColumn{}, nil
	case "first-field":
		return FirstField{}, nil
	}

	if rest, ok := strings.CutPrefix(s, "column:"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid column in grouping %q", s)
		}
		return FixedColumn{Column: n}, nil
	}
	return nil, fmt.Errorf("unknown grouping %q (must be inferred, first-field or column:N)", s)
}
