package handlers

import (
	"encoding/json"
	"net/http"

	"transcriptai/server/modules/events"

	"github.com/gin-gonic/gin"
)

// StreamHandlers exposes the event bus (C4) as an SSE endpoint.
type StreamHandlers struct {
	bus *events.Bus
}

// NewStreamHandlers creates SSE handlers over bus.
func NewStreamHandlers(bus *events.Bus) *StreamHandlers {
	return &StreamHandlers{bus: bus}
}

// Stream handles GET /transcription/stream?call_id=: a Server-Sent-Events
// feed of the given session's progressive transcription and pipeline
// events, replaying the session's buffered events first.
func (h *StreamHandlers) Stream(c *gin.Context) {
	sessionID := c.Query("call_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing call_id query parameter"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	ch := h.bus.Subscribe(ctx, sessionID)

	c.SSEvent("ping", "{}")
	c.Writer.Flush()

	c.Stream(func(w gin.ResponseWriter) bool {
		select {
		case event, ok := <-ch:
			if !ok {
				return false
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				return false
			}
			c.SSEvent(event.Type, string(data))
			return true
		case <-ctx.Done():
			return false
		}
	})
}
