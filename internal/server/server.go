package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/nulzo/polymage/internal/analytics"
	"github.com/nulzo/polymage/internal/config"
	"github.com/nulzo/polymage/internal/gateway"
	"github.com/nulzo/polymage/internal/server/validator"
	"github.com/nulzo/polymage/internal/store"
	"go.uber.org/zap"
)

type Server struct {
	router  *gin.Engine
	config  *config.Config
	logger  *zap.Logger
	service gateway.Service

	repo     store.Repository
	ingestor analytics.Ingestor
}

type Option func(*Server)

// WithHistory records every invocation through ingestor and exposes the
// history held in repo under /v1/invocations.
func WithHistory(repo store.Repository, ingestor analytics.Ingestor) Option {
	return func(s *Server) {
		s.repo = repo
		s.ingestor = ingestor
	}
}

func New(cfg *config.Config, logger *zap.Logger, service gateway.Service, opts ...Option) *Server {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	validator.InitValidator()

	engine := gin.New()
	engine.Use(ginzap.RecoveryWithZap(logger, true))

	s := &Server{
		router:  engine,
		service: service,
		logger:  logger,
		config:  cfg,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort("", s.config.Server.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
