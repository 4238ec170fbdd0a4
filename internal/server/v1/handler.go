package v1

import (
	"github.com/nulzo/polymage/internal/gateway"
	"go.uber.org/zap"
)

// Handler serves the /v1 API over the gateway service.
type Handler struct {
	service gateway.Service
	logger  *zap.Logger
}

func NewHandler(service gateway.Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}
