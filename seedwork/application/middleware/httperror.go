package middleware

import (
	"errors"
	"net/http"

	"transcriptai/server/seedwork/domain"

	"github.com/gin-gonic/gin"
)

// RespondError maps a DomainError's Code to an HTTP status and writes a
// {"error": ...} JSON body. Every handler in this service funnels
// collaborator errors through here instead of hand-picking status codes,
// so a given ErrorCode always produces the same response shape.
func RespondError(c *gin.Context, err error) {
	var de *domain.DomainError
	if !errors.As(err, &de) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch de.Code {
	case domain.ErrValidation:
		status = http.StatusBadRequest
	case domain.ErrNotFound:
		status = http.StatusNotFound
	case domain.ErrConflict:
		status = http.StatusConflict
	case domain.ErrUnavailable:
		status = http.StatusServiceUnavailable
	case domain.ErrTransient:
		status = http.StatusBadGateway
	case domain.ErrFatal:
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": de.Message})
}
