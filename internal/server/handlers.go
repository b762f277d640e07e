package server

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ccollicutt/tanklog/pkg/dataset"
	"github.com/ccollicutt/tanklog/pkg/output"
	"github.com/ccollicutt/tanklog/pkg/parser"
)

// SamplesResponse is the body of GET /api/entities/{id}/samples.
type SamplesResponse struct {
	EntityID string           `json:"entity_id"`
	Count    int              `json:"count"`
	Samples  []dataset.Sample `json:"samples"`
}

// EntitiesResponse is the body of GET /api/entities.
type EntitiesResponse struct {
	Entities []output.EntitySummary `json:"entities"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, output.Summarize(s.ds))
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, EntitiesResponse{Entities: output.Summarize(s.ds).Entities})
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	// chi matches on RawPath when the request has one, leaving the
	// parameter escaped.
	id := chi.URLParam(r, "id")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(id); err == nil {
			id = unescaped
		}
	}
	if !s.ds.Has(id) {
		s.respondError(w, r, fmt.Errorf("%w: %q", errUnknownEntity, id), http.StatusNotFound)
		return
	}

	bounds, err := parseBounds(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	samples := s.ds.Samples(id)
	if !bounds.IsOpen() {
		samples = s.ds.Filter(bounds).Samples(id)
	}
	if samples == nil {
		samples = []dataset.Sample{}
	}

	writeJSON(w, http.StatusOK, SamplesResponse{
		EntityID: id,
		Count:    len(samples),
		Samples:  samples,
	})
}

// parseBounds reads from, to, min and max query parameters. Times are
// accepted as 2006-01-02T15:04:05 or in the log's own date-time forms;
// values accept a decimal comma.
func parseBounds(q url.Values) (dataset.Bounds, error) {
	var b dataset.Bounds

	for _, p := range []struct {
		key string
		dst **time.Time
	}{{"from", &b.From}, {"to", &b.To}} {
		raw := strings.TrimSpace(q.Get(p.key))
		if raw == "" {
			continue
		}
		t, err := parseQueryTime(raw)
		if err != nil {
			return b, fmt.Errorf("%w: %s=%q", errInvalidBound, p.key, raw)
		}
		*p.dst = &t
	}

	for _, p := range []struct {
		key string
		dst **float64
	}{{"min", &b.Min}, {"max", &b.Max}} {
		raw := strings.TrimSpace(q.Get(p.key))
		if raw == "" {
			continue
		}
		v, err := parser.ParseNumber(raw)
		if err != nil {
			return b, fmt.Errorf("%w: %s=%q", errInvalidBound, p.key, raw)
		}
		*p.dst = &v
	}

	if b.From != nil && b.To != nil && b.From.After(*b.To) {
		return b, errInvertedBounds
	}
	if b.Min != nil && b.Max != nil && *b.Min > *b.Max {
		return b, errInvertedBounds
	}
	return b, nil
}

func parseQueryTime(raw string) (time.Time, error) {
	if t, err := time.Parse(dataset.TimestampLayout, raw); err == nil {
		return t, nil
	}
	return parser.ParseTimestamp(raw)
}
