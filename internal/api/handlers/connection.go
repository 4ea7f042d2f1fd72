package handlers

import (
	"net/http"

	"calendar-relay-backend/internal/auth"
	"calendar-relay-backend/internal/logger"
	"calendar-relay-backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ConnectionHandler handles HTTP requests for the Microsoft connection lifecycle
type ConnectionHandler struct {
	tokenService service.TokenServiceInterface
	validate     *validator.Validate
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(tokenService service.TokenServiceInterface, validate *validator.Validate) *ConnectionHandler {
	return &ConnectionHandler{tokenService: tokenService, validate: validate}
}

// ExchangeTokenRequest is the body of POST /connections/token
type ExchangeTokenRequest struct {
	Code string `json:"code" validate:"required" example:"M.C507_BAY.2.U.aaaa-bbbb"`
}

// StatusRequest is the body of POST /connections/status
type StatusRequest struct {
	UserID string `json:"user_id" validate:"required,uuid" example:"11111111-1111-1111-1111-111111111111"`
}

// StatusResponse reports whether a Microsoft token record exists
type StatusResponse struct {
	Connected bool `json:"connected"`
}

// DisconnectResponse is the body returned by POST /connections/disconnect
type DisconnectResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ConsentURLResponse carries the Microsoft authorization URL
type ConsentURLResponse struct {
	URL string `json:"url"`
}

// Start handles GET /connections/start
// @Summary Get the Microsoft consent URL
// @Description Returns the authorization URL the frontend redirects the user to. An optional state query parameter is echoed back on the provider redirect.
// @Tags connections
// @Produce json
// @Param state query string false "Opaque state echoed back by the provider"
// @Success 200 {object} ConsentURLResponse
// @Security BearerAuth
// @Router /connections/start [get]
func (h *ConnectionHandler) Start(c *gin.Context) {
	state := c.Query("state")
	if state == "" {
		state = uuid.NewString()
	}
	c.JSON(http.StatusOK, ConsentURLResponse{URL: h.tokenService.ConsentURL(state)})
}

// ExchangeToken handles POST /connections/token
// @Summary Exchange an authorization code for Microsoft tokens
// @Description Redeems the OAuth2 authorization code and persists the token record for the authenticated caller. The provider's token response is relayed verbatim; a response without an access token signals failure without persisting.
// @Tags connections
// @Accept json
// @Produce json
// @Param body body ExchangeTokenRequest true "Authorization code"
// @Success 200 {object} map[string]interface{} "Raw provider token response"
// @Failure 400 {object} map[string]interface{} "Missing code or invalid user id"
// @Failure 401 {object} map[string]interface{} "Authentication required"
// @Security BearerAuth
// @Router /connections/token [post]
func (h *ConnectionHandler) ExchangeToken(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	log := logger.FromGinContext(c).WithField("user_id", userID)

	var req ExchangeTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing code"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing code"})
		return
	}

	raw, err := h.tokenService.ExchangeCode(c.Request.Context(), userID, req.Code)
	if err != nil {
		log.Warnf("code exchange failed: %v", err)
		respondWithError(c, err)
		return
	}

	log.Debug("code exchange response relayed")
	c.Data(http.StatusOK, "application/json", raw)
}

// Status handles POST /connections/status
// @Summary Check whether a user has a Microsoft connection
// @Tags connections
// @Accept json
// @Produce json
// @Param body body StatusRequest true "User id to check"
// @Success 200 {object} StatusResponse
// @Failure 400 {object} map[string]interface{} "Missing or malformed user id"
// @Security BearerAuth
// @Router /connections/status [post]
func (h *ConnectionHandler) Status(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing user_id"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is not a valid UUID"})
		return
	}

	connected, err := h.tokenService.Status(req.UserID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, StatusResponse{Connected: connected})
}

// Disconnect handles POST /connections/disconnect
// @Summary Disconnect the caller's Microsoft account
// @Description Deletes the caller's token record. Idempotent: always reports success, even when no record exists.
// @Tags connections
// @Produce json
// @Success 200 {object} DisconnectResponse
// @Security BearerAuth
// @Router /connections/disconnect [post]
func (h *ConnectionHandler) Disconnect(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if err := h.tokenService.Disconnect(userID); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, DisconnectResponse{
		Success: true,
		Message: "Microsoft account disconnected",
	})
}
