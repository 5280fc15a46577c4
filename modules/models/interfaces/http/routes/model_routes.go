package routes

import (
	"transcriptai/server/modules/models/interfaces/http/handlers"

	"github.com/gin-gonic/gin"
)

// ModelRoutes wires the model registry/download endpoints.
type ModelRoutes struct {
	handlers *handlers.ModelHandlers
}

// NewModelRoutes creates model routes.
func NewModelRoutes(handlers *handlers.ModelHandlers) *ModelRoutes {
	return &ModelRoutes{handlers: handlers}
}

// Setup registers routes under group (typically /api/v1).
func (r *ModelRoutes) Setup(group *gin.RouterGroup) {
	modelsGroup := group.Group("/models")
	{
		modelsGroup.GET("", r.handlers.List)
		modelsGroup.POST("/download", r.handlers.Download)
		modelsGroup.POST("/select", r.handlers.Select)
	}
}
