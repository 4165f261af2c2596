// Package server exposes the pipeline over HTTP: batch submission for the
// front end plus the administrative resolver-backend interface.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"terarelay/internal"
	"terarelay/pipeline"
	"terarelay/resolver"
)

// HealthFunc checks a downstream dependency for the health endpoint.
type HealthFunc func(ctx context.Context) error

// Server is the HTTP front of the pipeline.
type Server struct {
	engine *gin.Engine
	server *http.Server
	log    *zap.Logger
}

// New builds the server and its routes.
func New(cfg *internal.Config, orch *pipeline.Orchestrator, registry *resolver.Registry, health HealthFunc) *Server {
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	log := internal.GetLogger()

	engine := gin.New()
	engine.Use(recoveryMiddleware(log), requestLogger(log))

	s := &Server{
		engine: engine,
		log:    log,
		server: &http.Server{
			Addr:        fmt.Sprintf(":%d", cfg.ListenPort),
			Handler:     engine,
			ReadTimeout: 30 * time.Second,
			IdleTimeout: 120 * time.Second,
		},
	}

	h := &handlers{orch: orch, registry: registry}

	api := engine.Group("/api/v1")
	api.POST("/batches", h.processBatch)
	api.GET("/backends", h.listBackends)
	api.PUT("/backends/:id", h.switchBackend)

	engine.GET("/healthz", func(c *gin.Context) {
		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			if err := health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return s
}

// Start blocks serving HTTP until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Engine exposes the router, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func recoveryMiddleware(log *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error("panic in handler",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}
