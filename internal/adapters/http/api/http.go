// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/gigmatch/internal/adapters/mq/queue"
	"github.com/okian/gigmatch/internal/adapters/repository"
	"github.com/okian/gigmatch/internal/domain/model"
	"github.com/okian/gigmatch/internal/domain/recommend"
)

const (
	defaultMaxLimit = 100
	maxBodyBytes    = 1 << 20
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	StatsProvider
	PostingDependencies
	ProfileDependencies
	RecommendDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	postingsHandler  *PostingsHandler
	profilesHandler  *ProfilesHandler
	recommendHandler *RecommendHandler
}

// ServerOption configures NewServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	maxLimit int
}

// WithMaxLimit caps the limit query parameter of /recommendations.
func WithMaxLimit(n int) ServerOption {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	cfg := serverConfig{maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		postingsHandler:  NewPostingsHandler(deps),
		profilesHandler:  NewProfilesHandler(deps),
		recommendHandler: NewRecommendHandler(deps, cfg.maxLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /postings", MetricsMiddleware(s.postingsHandler.HandleCreate, "postings"))
	mux.HandleFunc("GET /postings", MetricsMiddleware(s.postingsHandler.HandleList, "postings"))
	mux.HandleFunc("GET /postings/{id}", MetricsMiddleware(s.postingsHandler.HandleGet, "posting"))
	mux.HandleFunc("DELETE /postings/{id}", MetricsMiddleware(s.postingsHandler.HandleDelete, "posting"))

	mux.HandleFunc("PUT /profiles/{id}", MetricsMiddleware(s.profilesHandler.HandlePut, "profile"))
	mux.HandleFunc("GET /profiles/{id}", MetricsMiddleware(s.profilesHandler.HandleGet, "profile"))

	mux.HandleFunc("GET /recommendations", MetricsMiddleware(s.recommendHandler.HandleGet, "recommendations"))
	mux.HandleFunc("POST /score", MetricsMiddleware(s.recommendHandler.HandleScore, "score"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type listResponse[T any] struct {
	Count int `json:"count"`
	Items []T `json:"items"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps domain errors to HTTP statuses. Errors that are not
// already annotated get op attached.
func writeFailure(w http.ResponseWriter, op string, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		err = Wrap(op, err)
	}

	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, model.ErrInvalid), errors.Is(err, recommend.ErrUnknownView):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrNotFound), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, ErrBackpressure), errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, ErrUnavailable), errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decodeBody reads a JSON body of at most 1 MiB.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return nil
}
