package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"think41-chat/chat"
	"think41-chat/db"
	"think41-chat/metrics"
	"think41-chat/utils"
)

// HealthChecker reports database readiness
type HealthChecker interface {
	Health(ctx context.Context) (*db.HealthStatus, error)
}

// HttpServer wraps the gin engine with graceful shutdown helpers.
type HttpServer struct {
	cfg    utils.ServerConfig
	engine *gin.Engine
	log    *utils.Logger
	chat   *chat.Service
	health HealthChecker
}

// New constructs the HTTP server with default middleware and routes.
func New(cfg utils.ServerConfig, log *utils.Logger, chatService *chat.Service, health HealthChecker) *HttpServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(Recovery(log))
	engine.Use(RequestID())
	engine.Use(Logging(log))
	engine.Use(CORS())
	engine.Use(Metrics())

	s := &HttpServer{
		cfg:    cfg,
		engine: engine,
		log:    log,
		chat:   chatService,
		health: health,
	}
	s.registerRoutes()
	return s
}

// Handler returns the HTTP handler serving every route
func (s *HttpServer) Handler() http.Handler {
	return s.engine
}

// Run starts the HTTP listener and handles graceful shutdown via context cancellation.
func (s *HttpServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	utils.SafeGo(s.log, "http listener", func() {
		s.log.Info("HTTP server listening on %s", s.cfg.Addr())
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error: %v", err)
			errCh <- err
			return
		}
		errCh <- nil
	})

	select {
	case <-ctx.Done():
		s.log.Info("Context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	timeout := time.Duration(s.cfg.ShutdownTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func (s *HttpServer) registerRoutes() {
	s.engine.GET("/", s.handleRoot)
	s.engine.GET("/products/", s.handleProducts)
	s.engine.GET("/orders/", s.handleOrders)

	s.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	s.engine.GET("/readyz", s.handleReady)
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := s.engine.Group("/api")
	api.POST("/chat/", s.handleChat)
	api.GET("/conversations/", s.handleListConversations)
	api.GET("/conversations/:id/messages", s.handleMessages)
	api.GET("/conversations/:id/export", s.handleExport)
}
