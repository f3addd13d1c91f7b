// Package server exposes the media library over HTTP: waveform
// samples as JSON, the list of accepted formats, and raw audio
// downloads.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"

	"github.com/theleftbit/waveview/internal/config"
)

// Server represents the HTTP server
type Server struct {
	config *config.Config
	logger *slog.Logger
	router *gin.Engine
}

// New creates a new Server instance
func New(cfg *config.Config, logger *slog.Logger) *Server {
	// Set Gin mode based on environment
	switch cfg.Env {
	case config.EnvProduction:
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}

	router := gin.Default()

	server := &Server{
		config: cfg,
		logger: logger,
		router: router,
	}

	// Setup middleware and routes
	setupSecurityMiddleware(router, cfg, logger)
	server.setupRoutes()

	return server
}

// Router returns the configured routes for tests and embedding.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server and blocks until ctx is cancelled, then
// drains in-flight requests for the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	//nolint:exhaustruct // Using default values for other Server fields
	srv := &http.Server{
		Addr:    ":" + s.config.Port,
		Handler: s.router,
	}

	errC := make(chan error, 1)

	go func() {
		s.logger.Info("Server listening", "port", s.config.Port, "media_dir", s.config.MediaDir)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down", "timeout", s.config.ShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Raw audio downloads, served straight from the media library.
	s.router.Use(static.Serve("/media", static.LocalFile(s.config.MediaDir, false)))

	// Health check endpoint
	s.router.GET("/healthz", s.handleHealthz)

	api := s.router.Group("/api")
	{
		api.GET("/waveform", s.handleWaveform)
		api.GET("/formats", s.handleFormats)
	}
}

// handleHealthz handles the health check endpoint
func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "waveview",
	})
}
