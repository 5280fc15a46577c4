package routes

import (
	"transcriptai/server/modules/transcription/interfaces/http/handlers"

	"github.com/gin-gonic/gin"
)

// StreamRoutes wires the SSE transcription stream endpoint.
type StreamRoutes struct {
	handlers *handlers.StreamHandlers
}

// NewStreamRoutes creates stream routes.
func NewStreamRoutes(handlers *handlers.StreamHandlers) *StreamRoutes {
	return &StreamRoutes{handlers: handlers}
}

// Setup registers routes under group (typically /api/v1).
func (r *StreamRoutes) Setup(group *gin.RouterGroup) {
	group.GET("/transcription/stream", r.handlers.Stream)
}
