package routes

import (
	"transcriptai/server/modules/calls/interfaces/http/handlers"

	"github.com/gin-gonic/gin"
)

// CallRoutes wires the call-status endpoint.
type CallRoutes struct {
	handlers *handlers.CallHandlers
}

// NewCallRoutes creates call routes.
func NewCallRoutes(handlers *handlers.CallHandlers) *CallRoutes {
	return &CallRoutes{handlers: handlers}
}

// Setup registers routes under group (typically /api/v1).
func (r *CallRoutes) Setup(group *gin.RouterGroup) {
	calls := group.Group("/calls")
	{
		calls.GET("/:call_id/status", r.handlers.GetStatus)
	}
}
