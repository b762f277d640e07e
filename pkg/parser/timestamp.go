package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Layouts accepted for timestamps. Hours may have one digit; day, month,
// minute and second need two. Parsed times carry no zone and are returned
// in UTC.
var (
	dateTimeLayouts = []string{"02.01.2006 15:04:05", "02.01.2006 15:04"}
	dateLayout      = "02.01.2006"
	clockLayouts    = []string{"15:04:05", "15:04"}
)

var (
	shortIntPattern     = regexp.MustCompile(`^\d{1,2}$`)
	decimalHoursPattern = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
)

// Strategy names the timestamp strategy that resolved a row.
type Strategy int

const (
	// StrategyNone means no strategy succeeded.
	StrategyNone Strategy = iota
	// StrategyDirect parsed the timestamp field as it is.
	StrategyDirect
	// StrategyNormalized parsed it after separator normalization.
	StrategyNormalized
	// StrategySplit combined a separate date with a clock time.
	StrategySplit
	// StrategyDecimalHours combined a separate date with fractional hours.
	StrategyDecimalHours
)

var strategyNames = map[Strategy]string{
	StrategyNone:         "none",
	StrategyDirect:       "direct",
	StrategyNormalized:   "normalized",
	StrategySplit:        "split",
	StrategyDecimalHours: "decimal-hours",
}

func (s Strategy) String() string {
	return strategyNames[s]
}

// Resolution is a resolved row timestamp.
type Resolution struct {
	Time     time.Time
	Strategy Strategy

	// DateFromField is set when the date came from DateField rather than
	// from the timestamp field itself.
	DateFromField bool
}

// stampInput holds the fields a strategy may look at.
type stampInput struct {
	stamp string
	date  string
}

type timestampStrategy struct {
	kind    Strategy
	resolve func(in stampInput) (time.Time, bool, bool)
}

// timestampStrategies are tried in order; the first success wins.
var timestampStrategies = []timestampStrategy{
	{StrategyDirect, direct},
	{StrategyNormalized, normalized},
	{StrategySplit, splitClock},
	{StrategyDecimalHours, splitDecimalHours},
}

// ResolveTimestamp resolves the timestamp of a row.
func ResolveTimestamp(row Row) (Resolution, error) {
	in := stampInput{
		stamp: strings.TrimSpace(row.Field(TimestampField)),
		date:  strings.TrimSpace(row.Field(DateField)),
	}
	if in.stamp == "" {
		return Resolution{}, fmt.Errorf("%w: empty time field", ErrTimestamp)
	}

	for _, s := range timestampStrategies {
		if t, fromField, ok := s.resolve(in); ok {
			return Resolution{Time: t, Strategy: s.kind, DateFromField: fromField}, nil
		}
	}
	return Resolution{}, fmt.Errorf("%w: %q", ErrTimestamp, in.stamp)
}

// ParseTimestamp resolves a single combined date-time text with the same
// strategies as row resolution, minus the separate date field.
func ParseTimestamp(s string) (time.Time, error) {
	r, err := ResolveTimestamp(Row{Fields: []string{"", s}})
	if err != nil {
		return time.Time{}, err
	}
	return r.Time, nil
}

func direct(in stampInput) (time.Time, bool, bool) {
	t, ok := parseDateTime(in.stamp)
	return t, false, ok
}

func normalized(in stampInput) (time.Time, bool, bool) {
	n := normalizeDateTime(in.stamp)
	if n == in.stamp {
		return time.Time{}, false, false
	}
	t, ok := parseDateTime(n)
	return t, false, ok
}

func splitClock(in stampInput) (time.Time, bool, bool) {
	datePart, timePart, fromField := splitStamp(in)
	d, ok := parseDate(datePart)
	if !ok {
		return time.Time{}, false, false
	}
	c, ok := parseClock(timePart)
	if !ok {
		return time.Time{}, false, false
	}
	return d.Add(c), fromField, true
}

func splitDecimalHours(in stampInput) (time.Time, bool, bool) {
	datePart, timePart, fromField := splitStamp(in)
	d, ok := parseDate(datePart)
	if !ok {
		return time.Time{}, false, false
	}
	c, ok := parseDecimalHours(strings.TrimSpace(timePart))
	if !ok {
		return time.Time{}, false, false
	}
	return d.Add(c), fromField, true
}

// splitStamp separates the date and time of day. A timestamp field with a
// space carries its own date; otherwise the date is the separate date field.
func splitStamp(in stampInput) (datePart, timePart string, fromField bool) {
	if d, t, ok := strings.Cut(in.stamp, " "); ok {
		return d, strings.TrimSpace(t), false
	}
	return in.date, in.stamp, true
}

func parseDateTime(s string) (time.Time, bool) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDate(s string) (time.Time, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), "/", ".")
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s)
	return t, err == nil
}

// parseClock parses H:MM[:SS] as an offset from midnight. The raw text is
// tried before its normalized form.
func parseClock(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	for _, candidate := range []string{s, normalizeTime(s)} {
		for _, layout := range clockLayouts {
			if t, err := time.Parse(layout, candidate); err == nil {
				return sinceMidnight(t), true
			}
		}
	}
	return 0, false
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}

// parseDecimalHours reads "1.5" or "1,5" as fractional hours. Seconds are
// rounded to the nearest whole second; carries roll into minutes and hours.
// Results of 24 hours or more are rejected.
func parseDecimalHours(s string) (time.Duration, bool) {
	if !decimalHoursPattern.MatchString(s) {
		return 0, false
	}
	hours, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || math.IsInf(hours, 0) || hours >= 24 {
		return 0, false
	}

	whole := int(math.Floor(hours))
	seconds := int(math.Round((hours - float64(whole)) * 3600))
	minutes := seconds / 60
	seconds %= 60
	if minutes >= 60 {
		whole++
		minutes -= 60
	}
	if whole >= 24 {
		return 0, false
	}
	return time.Duration(whole)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second, true
}

// normalizeDateTime rewrites slashes in the date part and normalizes the
// time part of "date time" text.
func normalizeDateTime(s string) string {
	d, t, ok := strings.Cut(s, " ")
	if !ok {
		return normalizeTime(s)
	}
	return strings.ReplaceAll(d, "/", ".") + " " + normalizeTime(t)
}

// normalizeTime maps time separators to ':' and pads a one-digit minute.
// A lone comma between two short integers separates minutes ("14,30") when
// two digits follow it; a single digit after the comma is left alone so it
// reads as fractional hours ("14,5" is half past two).
func normalizeTime(s string) string {
	c := strings.ReplaceAll(strings.TrimSpace(s), ".", ":")
	if c == "" {
		return c
	}

	if strings.Contains(c, ",") && !strings.Contains(c, ":") {
		parts := strings.Split(c, ",")
		if len(parts) == 2 && shortIntPattern.MatchString(parts[0]) && shortIntPattern.MatchString(parts[1]) {
			if len(parts[1]) == 1 {
				return c
			}
			c = parts[0] + ":" + parts[1]
		} else {
			c = strings.ReplaceAll(c, ",", ":")
		}
	} else {
		c = strings.ReplaceAll(c, ",", ":")
	}

	if strings.Count(c, ":") == 1 {
		h, m, _ := strings.Cut(c, ":")
		if len(m) == 1 {
			c = h + ":0" + m
		}
	}
	return c
}

// ParseTimeOfDay reads a time of day as H:MM[:SS] (after normalization) or
// as fractional hours, and returns the offset from midnight.
func ParseTimeOfDay(s string) (time.Duration, error) {
	if d, ok := parseClock(s); ok {
		return d, nil
	}
	if d, ok := parseDecimalHours(strings.TrimSpace(s)); ok {
		return d, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrTimestamp, s)
}
