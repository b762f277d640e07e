package dataset

import (
	"math"
	"time"
)

// Bounds selects samples by time and value. A nil bound is open.
type Bounds struct {
	// From keeps samples whose timestamp is not before it.
	From *time.Time

	// To keeps samples whose timestamp is not after it.
	To *time.Time

	// Min keeps samples whose value is at least Min.
	Min *float64

	// Max keeps samples whose value is at most Max.
	Max *float64
}

// IsOpen reports whether no bound is set.
func (b Bounds) IsOpen() bool {
	return b.From == nil && b.To == nil && b.Min == nil && b.Max == nil
}

// Contains reports whether s satisfies every set bound. A sample without a
// reading never satisfies a value bound.
func (b Bounds) Contains(s Sample) bool {
	if b.From != nil && s.Timestamp.Before(*b.From) {
		return false
	}
	if b.To != nil && s.Timestamp.After(*b.To) {
		return false
	}
	if b.Min != nil && !(s.Value >= *b.Min) {
		return false
	}
	if b.Max != nil && !(s.Value <= *b.Max) {
		return false
	}
	return true
}

// Intersect returns the bounds that admit exactly the samples admitted by
// both b and other.
func (b Bounds) Intersect(other Bounds) Bounds {
	return Bounds{
		From: laterTime(b.From, other.From),
		To:   earlierTime(b.To, other.To),
		Min:  largerFloat(b.Min, other.Min),
		Max:  smallerFloat(b.Max, other.Max),
	}
}

// Filter returns a new dataset holding only the samples within b. Entities
// left without samples are omitted. d is never modified.
func (d *Dataset) Filter(b Bounds) *Dataset {
	out := NewBuilder(d.source)
	for _, id := range d.order {
		for _, s := range d.series[id] {
			if b.Contains(s) {
				s.rawFields = append([]string(nil), s.rawFields...)
				out.Add(s)
			}
		}
	}
	return out.Build()
}

func laterTime(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.After(*b):
		return a
	default:
		return b
	}
}

func earlierTime(a, b *time.Time) *time.Time {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Before(*b):
		return a
	default:
		return b
	}
}

func largerFloat(a, b *float64) *float64 {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		v := math.Max(*a, *b)
		return &v
	}
}

func smallerFloat(a, b *float64) *float64 {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	default:
		v := math.Min(*a, *b)
		return &v
	}
}
