// Package api will-zip REST API
//
// @title           will-zip REST API
// @version         1.0.0
// @description     This is the REST API for will-zip, a Huffman byte-stream compressor.
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in              header
// @name            X-API-Key
package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Routes builds the HTTP handler tree for the server
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Prometheus metrics endpoint (unprotected for scraping)
	r.Handle("/metrics", promhttp.Handler())

	// API key authentication middleware for protected routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apiKeyMiddleware(s.config.APIKey, s.metrics))

		// Health check
		r.Get("/health", s.metrics.InstrumentHandler("GET", "/api/v1/health", s.handleHealth))

		// Codec operations
		r.Post("/compress", s.metrics.InstrumentHandler("POST", "/api/v1/compress", s.handleCompress))
		r.Post("/decompress", s.metrics.InstrumentHandler("POST", "/api/v1/decompress", s.handleDecompress))

		// Artifact vault
		r.Post("/artifacts", s.metrics.InstrumentHandler("POST", "/api/v1/artifacts", s.handleStoreArtifact))
		r.Get("/artifacts", s.metrics.InstrumentHandler("GET", "/api/v1/artifacts", s.handleListArtifacts))
		r.Get("/artifacts/{id}", s.metrics.InstrumentHandler("GET", "/api/v1/artifacts/{id}", s.handleFetchArtifact))
		r.Get("/artifacts/{id}/info", s.metrics.InstrumentHandler("GET", "/api/v1/artifacts/{id}/info", s.handleArtifactInfo))
		r.Delete("/artifacts/{id}", s.metrics.InstrumentHandler("DELETE", "/api/v1/artifacts/{id}", s.handleDeleteArtifact))
	})

	return r
}

// StartServer starts the HTTP server with all routes configured
func StartServer(artifactVault ArtifactVault, config ServerConfig, log *logrus.Logger) error {
	metrics := NewMetrics()
	server := NewServer(artifactVault, config, metrics)

	// Background vault occupancy refresh
	go server.startMetricsUpdater()

	addr := fmt.Sprintf("%s:%d", config.Bind, config.Port)
	log.WithFields(logrus.Fields{
		"addr":          addr,
		"compact_table": config.CompactTable,
	}).Info("Starting will-zip REST API server")

	return http.ListenAndServe(addr, server.Routes())
}
