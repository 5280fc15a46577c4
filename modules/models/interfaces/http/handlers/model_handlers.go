package handlers

import (
	"net/http"

	"transcriptai/server/modules/models"
	"transcriptai/server/modules/models/interfaces/http/dtos"
	"transcriptai/server/seedwork/application/middleware"
	"transcriptai/server/seedwork/domain"

	"github.com/gin-gonic/gin"
)

// ModelHandlers exposes the model registry/download manager (C3) over HTTP.
type ModelHandlers struct {
	manager *models.Manager
}

// NewModelHandlers creates model-registry handlers.
func NewModelHandlers(manager *models.Manager) *ModelHandlers {
	return &ModelHandlers{manager: manager}
}

// List handles GET /models.
func (h *ModelHandlers) List(c *gin.Context) {
	entries, err := h.manager.List(c.Request.Context())
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.ToListEntryResponses(entries))
}

// Download handles POST /models/download.
func (h *ModelHandlers) Download(c *gin.Context) {
	var req dtos.ModelNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, domain.NewDomainError(domain.ErrValidation, "invalid request body", err))
		return
	}

	status, err := h.manager.Download(c.Request.Context(), req.Name)
	if err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dtos.DownloadResponse{Status: status})
}

// Select handles POST /models/select.
func (h *ModelHandlers) Select(c *gin.Context) {
	var req dtos.ModelNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondError(c, domain.NewDomainError(domain.ErrValidation, "invalid request body", err))
		return
	}

	if err := h.manager.Select(c.Request.Context(), req.Name); err != nil {
		middleware.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
