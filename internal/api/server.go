package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yesmonga/karting-sub000/internal/config"
)

// Server serves the API over HTTP
type Server struct {
	address string
	handler http.Handler
	cfg     config.APIConfig
	server  *http.Server
	logger  *logrus.Entry
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, deps Dependencies) *Server {
	ttl := cfg.API.CacheTTL
	if !cfg.Features.CacheResponse {
		ttl = 0
	}
	handler := NewHandler(deps, NewResponseCache(ttl), cfg.API.MaxUploadSize)
	return &Server{
		address: cfg.API.Address,
		handler: NewRouter(handler, cfg, deps.Logger).Routes(),
		cfg:     cfg.API,
		logger:  deps.Logger.WithField("component", "api"),
	}
}

// Handler returns the routed handler of the server
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts the API server in the background. It shuts down when ctx
// is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.address,
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.WithField("address", s.address).Info("API server starting")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.WithError(err).Error("API server error")
		}
	}()

	go func() {
		<-ctx.Done()
		if err := s.Shutdown(); err != nil {
			s.logger.WithError(err).Warn("API server shutdown failed")
		}
	}()

	return nil
}

// Shutdown gracefully shuts down the API server
func (s *Server) Shutdown() error {
	if s.server == nil {
		return nil
	}

	s.logger.Info("API server shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}
