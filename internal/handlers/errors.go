package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/chachabrian/tripshare-backend/internal/services"
)

// respondError maps service error kinds onto distinct HTTP responses. The
// "kind" field lets clients tell "seats full" from "not allowed" from
// "already decided" without parsing messages.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(404, gin.H{"error": err.Error(), "kind": "not_found"})
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(403, gin.H{"error": err.Error(), "kind": "unauthorized"})
	case errors.Is(err, services.ErrFull):
		c.JSON(409, gin.H{"error": err.Error(), "kind": "full"})
	case errors.Is(err, services.ErrConflict):
		c.JSON(409, gin.H{"error": err.Error(), "kind": "conflict"})
	case errors.Is(err, services.ErrInvalidState):
		c.JSON(400, gin.H{"error": err.Error(), "kind": "invalid_state"})
	case errors.Is(err, services.ErrValidation):
		c.JSON(400, gin.H{"error": err.Error(), "kind": "validation"})
	default:
		c.JSON(500, gin.H{"error": "internal error"})
	}
}
