package handlers

import (
	"net/http"

	callservices "transcriptai/server/modules/calls/application/services"
	"transcriptai/server/modules/calls/interfaces/http/dtos"
	"transcriptai/server/seedwork/application/middleware"

	"github.com/gin-gonic/gin"
)

// CallHandlers exposes read-only lookups over the Call aggregate. Upload
// and full-pipeline endpoints live under the pipeline module, which owns
// the orchestrator that actually creates Call rows.
type CallHandlers struct {
	calls *callservices.CallService
}

// NewCallHandlers creates call-status handlers.
func NewCallHandlers(calls *callservices.CallService) *CallHandlers {
	return &CallHandlers{calls: calls}
}

// GetStatus handles GET /calls/{call_id}/status.
func (h *CallHandlers) GetStatus(c *gin.Context) {
	callID := c.Param("call_id")
	call, err := h.calls.GetByID(c.Request.Context(), callID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.ToCallStatusResponse(call))
}
