package handlers

import (
	"net/http"

	apperrors "calendar-relay-backend/internal/errors"

	"github.com/gin-gonic/gin"
)

// respondWithError maps service errors onto the HTTP surface:
// validation -> 400, authentication and reconnect -> 401 (reconnect keeps its
// user-facing message and reason), provider failures -> 502 with the
// provider's status and body preserved, everything else -> 500.
func respondWithError(c *gin.Context, err error) {
	switch {
	case apperrors.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.IsReconnect(err):
		var reason apperrors.ReconnectReason
		if reconnectErr, ok := err.(*apperrors.ReconnectError); ok {
			reason = reconnectErr.Reason
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "reason": reason})
	case apperrors.IsAuthentication(err):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		if providerErr, ok := apperrors.AsProvider(err); ok {
			c.JSON(http.StatusBadGateway, gin.H{
				"error":           "Microsoft Graph request failed",
				"provider_status": providerErr.StatusCode,
				"provider_body":   providerErr.Body,
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "details": err.Error()})
	}
}
