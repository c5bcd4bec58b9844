// Package api exposes the quote engine over HTTP.
//
// Routes:
//
//	GET  /health
//	GET  /api/v1/templates
//	GET  /api/v1/templates/:id
//	POST /api/v1/load-profile   contract layer only
//	POST /api/v1/quote          contract and pricing layers
//	GET  /metrics               when a metrics handler is configured
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/merlin-energy/truequote/internal/engine"
)

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Option configures the router.
type Option func(*router)

type router struct {
	engine  *engine.Engine
	logger  zerolog.Logger
	metrics http.Handler
}

// WithLogger sets the request logger. The default discards output.
func WithLogger(l zerolog.Logger) Option {
	return func(r *router) {
		r.logger = l
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(r *router) {
		r.metrics = h
	}
}

// NewRouter builds the gin engine serving eng.
func NewRouter(eng *engine.Engine, opts ...Option) *gin.Engine {
	rt := &router{engine: eng, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(rt)
	}

	g := gin.New()
	g.Use(gin.Recovery(), requestLogger(rt.logger))

	g.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if rt.metrics != nil {
		g.GET("/metrics", gin.WrapH(rt.metrics))
	}

	v1 := g.Group("/api/v1")
	{
		v1.GET("/templates", rt.listTemplates)
		v1.GET("/templates/:id", rt.getTemplate)
		v1.POST("/load-profile", rt.loadProfile)
		v1.POST("/quote", rt.quote)
	}
	return g
}

// NewServer wraps handler in an http.Server with the given timeouts.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
		WriteTimeout:      writeTimeout,
	}
}

// Serve runs srv until ctx is cancelled, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listening on %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
