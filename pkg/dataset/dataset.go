// Package dataset holds the structured output of a log parse: per-entity time
// series of sensor samples.
//
// A Dataset is built once through a Builder and is read-only afterwards.
// Every accessor returns copies, so a Dataset can be shared between any number
// of goroutines without synchronization.
package dataset

import (
	"encoding/binary"
	"encoding/json"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Sample is one measurement extracted from one data line.
type Sample struct {
	// EntityID is the grouping key of the time series. Never empty.
	EntityID string

	// SampleID identifies the record, either the line's own id or a
	// synthetic one.
	SampleID string

	// Timestamp is the resolved local date-time of the reading.
	Timestamp time.Time

	// Value is the reading. NaN means the source field was empty.
	Value float64

	// RawLine is the trimmed source line.
	RawLine string

	rawFields []string
}

// NewSample creates a Sample. The fields slice is copied.
func NewSample(entityID, sampleID string, ts time.Time, value float64, fields []string, rawLine string) Sample {
	return Sample{
		EntityID:  entityID,
		SampleID:  sampleID,
		Timestamp: ts,
		Value:     value,
		RawLine:   rawLine,
		rawFields: append([]string(nil), fields...),
	}
}

// RawFields returns a copy of the trimmed fields of the source line.
func (s Sample) RawFields() []string {
	return append([]string(nil), s.rawFields...)
}

// HasValue reports whether the sample carries a reading.
func (s Sample) HasValue() bool {
	return !math.IsNaN(s.Value)
}

type sampleJSON struct {
	EntityID  string   `json:"entity_id"`
	SampleID  string   `json:"sample_id"`
	Timestamp string   `json:"timestamp"`
	Value     *float64 `json:"value"`
	RawFields []string `json:"raw_fields,omitempty"`
	RawLine   string   `json:"raw_line,omitempty"`
}

// TimestampLayout is the canonical text form of sample timestamps.
const TimestampLayout = "2006-01-02T15:04:05"

// MarshalJSON encodes the sample. A missing reading is encoded as null.
func (s Sample) MarshalJSON() ([]byte, error) {
	out := sampleJSON{
		EntityID:  s.EntityID,
		SampleID:  s.SampleID,
		Timestamp: s.Timestamp.Format(TimestampLayout),
		RawFields: s.rawFields,
		RawLine:   s.RawLine,
	}
	if s.HasValue() {
		v := s.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

// Dataset is an immutable, insertion-ordered mapping from entity id to the
// samples recorded for it.
type Dataset struct {
	source string
	order  []string
	series map[string][]Sample
	total  int
}

// Empty returns a dataset with no samples.
func Empty(source string) *Dataset {
	return &Dataset{source: source, series: map[string][]Sample{}}
}

// Source returns the optional identifier of the parsed input (usually a path).
func (d *Dataset) Source() string {
	return d.source
}

// Len returns the total number of samples.
func (d *Dataset) Len() int {
	return d.total
}

// EntityCount returns the number of distinct entities.
func (d *Dataset) EntityCount() int {
	return len(d.order)
}

// IsEmpty reports whether the dataset holds no samples.
func (d *Dataset) IsEmpty() bool {
	return d.total == 0
}

// Entities returns entity ids in first-seen order.
func (d *Dataset) Entities() []string {
	return append([]string(nil), d.order...)
}

// Samples returns the samples of one entity in encounter order, or nil if
// the entity is unknown.
func (d *Dataset) Samples(entityID string) []Sample {
	s, ok := d.series[entityID]
	if !ok {
		return nil
	}
	return append([]Sample(nil), s...)
}

// Has reports whether the dataset contains the entity.
func (d *Dataset) Has(entityID string) bool {
	_, ok := d.series[entityID]
	return ok
}

// All returns every sample, entity by entity, in dataset order.
func (d *Dataset) All() []Sample {
	out := make([]Sample, 0, d.total)
	for _, id := range d.order {
		out = append(out, d.series[id]...)
	}
	return out
}

// Each calls fn for every entity in order. Iteration stops when fn returns
// false. The slice passed to fn is a copy.
func (d *Dataset) Each(fn func(entityID string, samples []Sample) bool) {
	for _, id := range d.order {
		if !fn(id, d.Samples(id)) {
			return
		}
	}
}

// Fingerprint returns a 64-bit hash over the dataset content and order.
// Identical inputs parse to datasets with identical fingerprints.
func (d *Dataset) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	for _, id := range d.order {
		_, _ = h.WriteString(id)
		_, _ = h.Write([]byte{0})
		for _, s := range d.series[id] {
			_, _ = h.WriteString(s.SampleID)
			binary.LittleEndian.PutUint64(buf[:], uint64(s.Timestamp.Unix()))
			_, _ = h.Write(buf[:])
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(s.Value))
			_, _ = h.Write(buf[:])
			_, _ = h.WriteString(s.RawLine)
			_, _ = h.Write([]byte{0})
		}
	}
	return h.Sum64()
}

// Builder accumulates samples for a single Dataset. It is not safe for
// concurrent use.
type Builder struct {
	ds *Dataset
}

// NewBuilder creates a Builder for a dataset with the given source id.
func NewBuilder(source string) *Builder {
	return &Builder{ds: Empty(source)}
}

// Add appends a sample to its entity's series.
func (b *Builder) Add(s Sample) {
	if _, ok := b.ds.series[s.EntityID]; !ok {
		b.ds.order = append(b.ds.order, s.EntityID)
	}
	b.ds.series[s.EntityID] = append(b.ds.series[s.EntityID], s)
	b.ds.total++
}

// Len returns the number of samples added so far.
func (b *Builder) Len() int {
	return b.ds.total
}

// Build returns the dataset. The builder must not be used afterwards.
func (b *Builder) Build() *Dataset {
	ds := b.ds
	b.ds = nil
	return ds
}
