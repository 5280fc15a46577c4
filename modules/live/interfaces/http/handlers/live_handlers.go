package handlers

import (
	"io"
	"net/http"

	"transcriptai/server/modules/live"
	"transcriptai/server/modules/live/interfaces/http/dtos"
	"transcriptai/server/seedwork/application/middleware"
	"transcriptai/server/seedwork/domain"

	"github.com/gin-gonic/gin"
)

const maxChunkBytes = 16 << 20 // 16 MiB per chunk

// LiveHandlers exposes the live microphone session manager (C5) over HTTP.
type LiveHandlers struct {
	manager *live.Manager
}

// NewLiveHandlers creates live-session handlers.
func NewLiveHandlers(manager *live.Manager) *LiveHandlers {
	return &LiveHandlers{manager: manager}
}

// Start handles POST /live/start.
func (h *LiveHandlers) Start(c *gin.Context) {
	sessionID, err := h.manager.Start(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dtos.StartResponse{SessionID: sessionID})
}

// Chunk handles POST /live/chunk?session_id=: the request body is the raw
// audio chunk.
func (h *LiveHandlers) Chunk(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		middleware.RespondError(c, domain.NewDomainError(domain.ErrValidation, "missing session_id query parameter", nil))
		return
	}

	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, maxChunkBytes+1))
	if err != nil {
		middleware.RespondError(c, domain.NewDomainError(domain.ErrValidation, "could not read chunk body", err))
		return
	}
	if len(raw) > maxChunkBytes {
		middleware.RespondError(c, domain.NewDomainError(domain.ErrValidation, "chunk exceeds the maximum accepted size", nil))
		return
	}

	idx, err := h.manager.Push(c.Request.Context(), sessionID, raw, c.ContentType())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.ChunkResponse{ChunkIndex: idx})
}

// Stop handles POST /live/stop?session_id=.
func (h *LiveHandlers) Stop(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		middleware.RespondError(c, domain.NewDomainError(domain.ErrValidation, "missing session_id query parameter", nil))
		return
	}

	result, err := h.manager.Stop(c.Request.Context(), sessionID)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.ToStopResponse(result))
}
