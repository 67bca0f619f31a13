package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"lambda-http-router/internal/middleware"
)

// AuthHandler issues tokens the local authorizer accepts
type AuthHandler struct {
	authService *middleware.AuthService
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *middleware.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// TokenRequest represents the token request body
type TokenRequest struct {
	Subject string   `json:"subject" binding:"required"`
	Email   string   `json:"email" binding:"omitempty,email"`
	Roles   []string `json:"roles"`
}

// TokenResponse represents the token response
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// @Summary Issue a development token
// @Description Sign a JWT the local gateway authorizer accepts
// @Tags gateway
// @Accept json
// @Produce json
// @Param request body TokenRequest true "Token subject and roles"
// @Success 200 {object} TokenResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /_gateway/token [post]
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	token, err := h.authService.GenerateToken(req.Subject, req.Email, req.Roles)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Token generation failed", err)
		return
	}
	claims, err := h.authService.ValidateToken(token)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Token generation failed", err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	})
}
