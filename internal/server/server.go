// Package server provides the HTTP API for Beacon.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/commonweal/beacon/internal/config"
	"github.com/commonweal/beacon/internal/index"
	"github.com/commonweal/beacon/internal/indexer"
	"github.com/commonweal/beacon/internal/metrics"
	"github.com/commonweal/beacon/internal/search"
	"github.com/commonweal/beacon/internal/storage"
	"github.com/commonweal/beacon/internal/taxonomy"
)

// Server is the HTTP server for the Beacon API.
type Server struct {
	engine   *search.Engine
	indexer  *indexer.Indexer
	storage  storage.Storage
	index    index.ServiceIndex
	taxonomy taxonomy.Store
	config   *config.ServerConfig
	logger   *zap.Logger
	server   *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *search.Engine,
	idx *indexer.Indexer,
	store storage.Storage,
	svcIndex index.ServiceIndex,
	tax taxonomy.Store,
	cfg *config.ServerConfig,
	logger *zap.Logger,
) *Server {
	return &Server{
		engine:   engine,
		indexer:  idx,
		storage:  store,
		index:    svcIndex,
		taxonomy: tax,
		config:   cfg,
		logger:   logger,
	}
}

// Router builds the chi router with all API routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))
	r.Use(metrics.Middleware())

	r.Route("/core/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/services/{id}", s.handleGetService)
		r.Get("/collections/categories", s.handleCategories)
		r.Get("/collections/personas", s.handlePersonas)
		r.Get("/service-types", s.handleServiceTypes)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Put("/services/{id}", s.handleUpsertService)
			r.Delete("/services/{id}", s.handleDeleteService)
		})
	})
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
