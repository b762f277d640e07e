package detector

import "github.com/ccollicutt/tanklog/pkg/parser"

// TimestampFormat describes a family of time field shapes resolved by one
// timestamp strategy.
type TimestampFormat struct {
	Name        string          // Human-readable name
	Strategy    parser.Strategy // Strategy that resolves this shape
	Description string          // What the fields look like
	Examples    []string        // Example date and time fields, ';'-joined
	Ambiguous   bool            // True if the shape can be read more than one way
}

// DefaultFormats returns the time field shapes in the order the parser tries
// them.
func DefaultFormats() []*TimestampFormat {
	return []*TimestampFormat{
		{
			Name:        "Date and time",
			Strategy:    parser.StrategyDirect,
			Description: "dd.MM.yyyy H:mm[:ss] in the time field",
			Examples:    []string{"01.05.2025 0:30:39", "01.05.2025 13:07"},
		},
		{
			Name:        "Date and time with loose separators",
			Strategy:    parser.StrategyNormalized,
			Description: "slashes in the date, dots or commas in the time, unpadded minutes",
			Examples:    []string{"01/05/2025 10.15", "01.05.2025 7:5", "01.05.2025 9,45"},
		},
		{
			Name:        "Separate date and time fields",
			Strategy:    parser.StrategySplit,
			Description: "date in the first field, clock time in the time field",
			Examples:    []string{"01.05.2025;0:30:39", "02/05/2025;8:15"},
		},
		{
			Name:        "Fractional hours",
			Strategy:    parser.StrategyDecimalHours,
			Description: "hours with a decimal fraction in the time field",
			Examples:    []string{"01.05.2025;14,5", "01.05.2025;1.0333333333"},
			Ambiguous:   true,
		},
	}
}

// FormatFor returns the format resolved by s, or nil.
func FormatFor(s parser.Strategy) *TimestampFormat {
	for _, f := range DefaultFormats() {
		if f.Strategy == s {
			return f
		}
	}
	return nil
}
