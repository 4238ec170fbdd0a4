package server

import (
	"github.com/gin-gonic/gin"
	"github.com/nulzo/polymage/internal/server/middleware"
	v1 "github.com/nulzo/polymage/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.Tracing(s.config.Tracing.ServiceName))
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.ErrorHandler(s.logger))

	h := v1.NewHandler(s.service, s.logger)
	s.router.GET("/health", h.HandleHealth)

	api := s.router.Group("/v1")
	api.Use(middleware.Auth(s.config.Server.APIKeys))
	if rl := s.config.RateLimit; rl.RequestsPerSecond > 0 {
		api.Use(middleware.NewRateLimiter(rl.RequestsPerSecond, rl.Burst, s.logger).Middleware())
	}
	{
		api.GET("/platforms", h.HandleListPlatforms)
		api.GET("/models", h.HandleListModels)

		invoke := api.Group("")
		if s.ingestor != nil {
			invoke.Use(middleware.Record(s.ingestor))
		}
		s.invokeRoutes(invoke, h)

		if s.repo != nil {
			hh := v1.NewHistoryHandler(s.repo, s.logger)
			api.GET("/invocations", hh.HandleRecent)
			api.GET("/invocations/stats", hh.HandleStats)
		}
	}
}

func (s *Server) invokeRoutes(g *gin.RouterGroup, h *v1.Handler) {
	g.POST("/text2text", h.HandleText2Text)
	g.POST("/text2image", h.HandleText2Image)
	g.POST("/image2text", h.HandleImage2Text)
	g.POST("/image2image", h.HandleImage2Image)
}
