// Package server exposes the dashboard over HTTP: a single query endpoint
// plus a health check, behind request-id, rate-limit, and CORS middleware.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DevNDanger/MyPinballStats/internal/dashboard"
	"github.com/DevNDanger/MyPinballStats/internal/domain"
	"github.com/DevNDanger/MyPinballStats/internal/identity"
	"github.com/DevNDanger/MyPinballStats/internal/middleware"
	"github.com/DevNDanger/MyPinballStats/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

type idResolver interface {
	Resolve(ctx context.Context, rawIFPA, rawMatchplay string) (identity.Resolution, error)
}

type dashboardSource interface {
	Get(ctx context.Context, res identity.Resolution, bypassCache bool) *domain.UnifiedDashboard
}

type Server struct {
	resolver   idResolver
	dashboards dashboardSource
	logger     zerolog.Logger
}

func New(resolver *identity.Resolver, dashboards *dashboard.Service, logger zerolog.Logger) *Server {
	return &Server{resolver: resolver, dashboards: dashboards, logger: logger}
}

// Router assembles the full middleware chain and routes.
func (s *Server) Router(limits *store.Store) http.Handler {
	r := chi.NewRouter()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	r.Use(middleware.RequestID(s.logger))
	r.Use(c.Handler)
	r.Use(middleware.RateLimit(limits, s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/v1/dashboard", s.handleDashboard)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	refresh := q.Get("refresh") == "1" || q.Get("refresh") == "true"

	res, err := s.resolver.Resolve(r.Context(), q.Get("ifpa"), q.Get("matchplay"))
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", verr.Msg)
			return
		}
		s.logger.Error().Err(err).Msg("identity resolution failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL", "unexpected error")
		return
	}

	dash := s.dashboards.Get(r.Context(), res, refresh)
	writeJSON(w, http.StatusOK, dash)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
