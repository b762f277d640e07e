package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var decimalPattern = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?$`)

// ParseNumber reads a reading with a decimal comma or dot. An empty field is
// a valid "no reading" and yields NaN. Anything else that is not a plain
// decimal number is an error.
func ParseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}

	normalized := strings.Replace(s, ",", ".", 1)
	if !decimalPattern.MatchString(normalized) {
		return 0, fmt.Errorf("%w: %q", ErrNumber, s)
	}
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrNumber, s, err)
	}
	return v, nil
}
