// Package server wires the HTTP boundary of the enrichment service: the
// upload-and-process endpoints, the processed-file download, a small demo
// posts resource and the monitoring endpoints.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/UnknownOlympus/demeter/internal/config"
	"github.com/UnknownOlympus/demeter/internal/geocoding"
	"github.com/UnknownOlympus/demeter/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

// providerFactory builds a provider for one upload request. It exists as a
// seam so tests can swap in fake providers.
type providerFactory func(config geocoding.ProviderConfig) (geocoding.Provider, error)

// Server carries the dependencies of all HTTP handlers.
type Server struct {
	log         *slog.Logger
	cfg         *config.Config
	metrics     *metrics.Metrics
	gatherer    prometheus.Gatherer
	posts       *postList
	newProvider providerFactory
}

// New creates a Server using the real provider factory.
func New(log *slog.Logger, cfg *config.Config, appMetrics *metrics.Metrics, reg *prometheus.Registry) *Server {
	return &Server{
		log:         log,
		cfg:         cfg,
		metrics:     appMetrics,
		gatherer:    reg,
		posts:       newPostList(),
		newProvider: geocoding.NewProvider,
	}
}

// Handler builds the route table and wraps it with the CORS policy for the
// configured front-end origin.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /hello/{name}", s.handleHello)

	mux.HandleFunc("GET /posts", s.handleListPosts)
	mux.HandleFunc("POST /posts", s.handleCreatePost)
	mux.HandleFunc("GET /posts/{id}", s.handleGetPost)
	mux.HandleFunc("PUT /posts/{id}", s.handleUpdatePost)
	mux.HandleFunc("DELETE /posts/{id}", s.handleDeletePost)

	mux.HandleFunc("POST /elevationapi/", s.handleEnrich(geocoding.ProviderTypeElevation))
	mux.HandleFunc("POST /opencage/", s.handleEnrich(geocoding.ProviderTypeOpenCage))
	mux.HandleFunc("POST /googlegeocoding/", s.handleEnrich(geocoding.ProviderTypeGoogleGeocode))
	mux.HandleFunc("GET /download/{file_name}", s.handleDownload)

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{s.cfg.AllowedOrigin},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return corsHandler.Handler(mux)
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello World"})
}

func (s *Server) handleHello(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	writeJSON(w, http.StatusOK, map[string]string{"saludo": "Hola " + name})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		s.log.Error("failed to write reply", "error", err)
	}
}

// writeJSON encodes a JSON response body with the given status code.
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeDetail replies in the error shape the front-end expects.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// internalError logs the failure and replies with a generic 500; the cause is
// never leaked to the caller.
func (s *Server) internalError(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	s.log.ErrorContext(ctx, msg, "error", err)
	writeDetail(w, http.StatusInternalServerError, "Internal Server Error")
}
