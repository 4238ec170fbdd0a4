package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/polymage/internal/gateway"
	"github.com/nulzo/polymage/internal/server/validator"
)

func (h *Handler) HandleListPlatforms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   h.service.Platforms(),
	})
}

// HandleListModels supports ?platform= and ?capability= filters.
func (h *Handler) HandleListModels(c *gin.Context) {
	var filter gateway.ModelFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		_ = c.Error(validator.Problem(err))
		return
	}

	models := h.service.ListModels(filter)
	if models == nil {
		models = []gateway.ModelInfo{}
	}
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   models,
	})
}
