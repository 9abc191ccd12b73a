// Package server exposes the resolution pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/city-brain/enterprise-cli/internal/config"
	"github.com/city-brain/enterprise-cli/internal/model"
	"github.com/city-brain/enterprise-cli/internal/pipeline"
)

// Resolver is the pipeline surface the server depends on.
type Resolver interface {
	Process(ctx context.Context, rawInput string, opts model.ResolveOptions) (*model.CompanyProfile, error)
}

// Server wraps the HTTP boundary around a Resolver.
type Server struct {
	resolver Resolver
	cfg      config.ServerConfig
	httpSrv  *http.Server
}

func New(resolver Resolver, cfg config.ServerConfig) *Server {
	s := &Server{resolver: resolver, cfg: cfg}
	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: s.Routes(),
	}
	return s
}

// Routes builds the chi router with CORS, request logging and per-client
// rate limiting on the resolve endpoint.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)

	limiter := newClientLimiter(s.cfg.RatePerMinute, s.cfg.RateBurst)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(limiter.middleware)
		r.Post("/company/resolve", s.handleResolve)
	})
	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		timeout := time.Duration(s.cfg.ShutdownTimeout) * time.Second
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
			zap.L().Warn("server shutdown", zap.Error(err))
		}
	}()

	zap.L().Info("starting server", zap.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server: listen")
	}
	return nil
}

type resolveRequest struct {
	Text          string `json:"text"`
	DisableCache  bool   `json:"disable_cache"`
	EnableNetwork *bool  `json:"enable_network"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	opts := model.DefaultResolveOptions()
	opts.DisableCache = req.DisableCache
	if req.EnableNetwork != nil {
		opts.EnableNetwork = *req.EnableNetwork
	}

	start := time.Now()
	profile, err := s.resolver.Process(r.Context(), req.Text, opts)
	if err != nil {
		if errors.Is(err, pipeline.ErrEmptyInput) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text is required"})
			return
		}
		zap.L().Error("resolution failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "resolution failed"})
		return
	}

	zap.L().Info("resolve request served",
		zap.String("company", profile.CompanyName),
		zap.Duration("elapsed", time.Since(start)))
	writeJSON(w, http.StatusOK, profile)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("write response", zap.Error(err))
	}
}
