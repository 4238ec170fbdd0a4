package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/polymage/internal/server/validator"
	"github.com/nulzo/polymage/internal/store"
	"go.uber.org/zap"
)

// HistoryHandler serves recorded invocations.
type HistoryHandler struct {
	repo   store.Repository
	logger *zap.Logger
}

func NewHistoryHandler(repo store.Repository, logger *zap.Logger) *HistoryHandler {
	return &HistoryHandler{repo: repo, logger: logger}
}

type HistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

func (h *HistoryHandler) HandleRecent(c *gin.Context) {
	var q HistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(validator.Problem(err))
		return
	}

	invocations, err := h.repo.Invocations().Recent(c.Request.Context(), q.Limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if invocations == nil {
		invocations = []store.Invocation{}
	}
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   invocations,
	})
}

func (h *HistoryHandler) HandleStats(c *gin.Context) {
	stats, err := h.repo.Invocations().Stats(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if stats == nil {
		stats = []store.ModelStats{}
	}
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   stats,
	})
}
