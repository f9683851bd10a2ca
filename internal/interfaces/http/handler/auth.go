package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/application/identity"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
)

// AuthHandler handles sign-up, verification and session endpoints
type AuthHandler struct {
	BaseHandler
	authService *identity.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *identity.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register creates a customer account and sends the verification email
func (h *AuthHandler) Register(c *gin.Context) {
	var req identity.RegisterCustomerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.RegisterCustomer(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// RegisterBrand accepts a brand invitation
func (h *AuthHandler) RegisterBrand(c *gin.Context) {
	var req identity.RegisterBrandRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.RegisterBrand(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// VerifyEmail consumes a verification token
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req identity.VerifyEmailRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.authService.VerifyEmail(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}

// ResendVerification issues a fresh verification email
func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req identity.ResendVerificationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.authService.ResendVerification(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Verification email sent"})
}

// Login authenticates with email and password
func (h *AuthHandler) Login(c *gin.Context) {
	var req identity.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RefreshToken exchanges a refresh token for a new token pair
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req identity.RefreshTokenRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Logout revokes the access token used for this request
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	err := h.authService.Logout(c.Request.Context(), identity.LogoutInput{
		UserID:     userID,
		TokenJTI:   claims.ID,
		TokenTTL:   claims.GetRemainingTTL(),
		SessionKey: claims.SessionKey(),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Logged out successfully"})
}

// Me returns the signed-in user with their customer or brand profile
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	me, err := h.authService.Me(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, me)
}
