package routes

import (
	"transcriptai/server/modules/live/interfaces/http/handlers"

	"github.com/gin-gonic/gin"
)

// LiveRoutes wires the live microphone session endpoints.
type LiveRoutes struct {
	handlers *handlers.LiveHandlers
}

// NewLiveRoutes creates live routes.
func NewLiveRoutes(handlers *handlers.LiveHandlers) *LiveRoutes {
	return &LiveRoutes{handlers: handlers}
}

// Setup registers routes under group (typically /api/v1).
func (r *LiveRoutes) Setup(group *gin.RouterGroup) {
	liveGroup := group.Group("/live")
	{
		liveGroup.POST("/start", r.handlers.Start)
		liveGroup.POST("/chunk", r.handlers.Chunk)
		liveGroup.POST("/stop", r.handlers.Stop)
	}
}
