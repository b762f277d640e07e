package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

var (
	errNotFound       = errors.New("not found")
	errUnknownEntity  = errors.New("unknown entity")
	errInvalidBound   = errors.New("invalid filter bound")
	errInvertedBounds = errors.New("lower bound is above upper bound")
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// errorCode maps an error to a stable machine-readable code.
func errorCode(err error) string {
	switch {
	case errors.Is(err, errUnknownEntity):
		return "unknown_entity"
	case errors.Is(err, errInvalidBound), errors.Is(err, errInvertedBounds):
		return "invalid_query"
	case errors.Is(err, errNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// respondError logs err and writes it as JSON.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	requestID := middleware.GetReqID(r.Context())

	s.logger.Debug("request error",
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.Int("status", statusCode),
		zap.Error(err),
		zap.String("request_id", requestID),
	)

	writeJSON(w, statusCode, ErrorResponse{
		Error:     err.Error(),
		Code:      errorCode(err),
		RequestID: requestID,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}
