// Package server exposes the comparison engine over HTTP. Routes live
// under /api; comparison progress is streamed with server-sent events.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/seo-compare/engine/baseline"
	"github.com/seo-compare/engine/config"
	"github.com/seo-compare/engine/logging"
	"github.com/seo-compare/engine/middleware"
	"github.com/seo-compare/engine/pipeline"
	"github.com/seo-compare/engine/stats"
)

type Server struct {
	cfg     *config.Config
	pipe    *pipeline.Pipeline
	store   *baseline.Store
	usage   *stats.Storage
	router  *gin.Engine
	log     zerolog.Logger
	started time.Time
}

func New(cfg *config.Config, pipe *pipeline.Pipeline, store *baseline.Store, usage *stats.Storage) *Server {
	s := &Server{
		cfg:     cfg,
		pipe:    pipe,
		store:   store,
		usage:   usage,
		log:     logging.Component("server"),
		started: time.Now(),
	}
	s.router = s.routes()
	return s
}

// Handler returns the configured router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(s.cfg.AllowedOrigins))

	limiter := middleware.NewRateLimiter(s.cfg.RateLimitPerMin, s.cfg.RateLimitBurst)

	api := r.Group("/api")
	api.Use(limiter.RateLimit())
	api.Use(middleware.Usage(s.usage))
	{
		api.GET("/health", s.handleHealth)
		api.GET("/baseline", s.handleGetBaseline)
		api.POST("/baseline/extract", s.handleExtractBaseline)
		api.GET("/compare", s.handleCompare)
		api.POST("/compare", s.handleCompare)
		api.GET("/compare/stream", s.handleCompareStream)
		api.POST("/extract/competitor", s.handleExtractCompetitor)
		api.GET("/statistics", s.handleStatistics)
	}
	return r
}

// Run serves until ctx is cancelled, then drains in-flight requests.
// No WriteTimeout is set: comparison streams stay open for the whole
// pipeline run.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	go s.retainStats(ctx)
	s.log.Info().Str("port", s.cfg.Port).Msg("HTTP server listening")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info().Msg("Shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

// retainStats trims usage counters to the retention window once a day.
func (s *Server) retainStats(ctx context.Context) {
	if s.usage == nil {
		return
	}
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.usage.Cleanup()
		case <-ctx.Done():
			return
		}
	}
}
