// Package server exposes the extraction pipeline over HTTP: a multipart
// upload endpoint returning extracted records, plus health and info routes.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/adityaks/labreport-extractor/internal/common"
	"github.com/adityaks/labreport-extractor/internal/export"
	"github.com/adityaks/labreport-extractor/internal/pipeline"
)

type Server struct {
	cfg       common.ServerConfig
	processor *processor.Processor
	exporter  *export.Service
	logger    *slog.Logger

	http *http.Server
}

func New(cfg common.ServerConfig, p *processor.Processor, exporter *export.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{cfg: cfg, processor: p, exporter: exporter, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	s.attach(r)

	s.http = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) attach(r chi.Router) {
	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Post("/get-lab-tests", s.handleGetLabTests)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start blocks serving HTTP until Shutdown or a listener error.
func (s *Server) Start() error {
	s.logger.Info("server.listening", "addr", s.cfg.HTTPAddr)
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
