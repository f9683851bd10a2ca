package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/partner"
)

// RegisterCustomerRequest is the customer sign-up payload
type RegisterCustomerRequest struct {
	Email     string `json:"email" binding:"required,email,max=200"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	FirstName string `json:"first_name" binding:"required,min=1,max=100"`
	LastName  string `json:"last_name" binding:"max=100"`
	Phone     string `json:"phone" binding:"max=30"`
}

// RegisterBrandRequest accepts a brand invitation
type RegisterBrandRequest struct {
	Token       string `json:"token" binding:"required"`
	Password    string `json:"password" binding:"required,min=8,max=72"`
	Description string `json:"description" binding:"max=2000"`
}

// VerifyEmailRequest carries the token from the verification link
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// ResendVerificationRequest asks for a fresh verification email
type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// LoginRequest contains credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshTokenRequest carries a refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutInput identifies the access token and session being revoked
type LogoutInput struct {
	UserID     uuid.UUID
	TokenJTI   string
	TokenTTL   time.Duration
	SessionKey string
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	Role            string     `json:"role"`
	Status          string     `json:"status"`
	EmailVerified   bool       `json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ToUserResponse converts a domain user
func ToUserResponse(u *identity.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		Role:            string(u.Role),
		Status:          string(u.Status),
		EmailVerified:   u.EmailVerified,
		EmailVerifiedAt: u.EmailVerifiedAt,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
	}
}

// RegistrationResult is returned by the sign-up endpoints
type RegistrationResult struct {
	User    UserResponse `json:"user"`
	Message string       `json:"message"`
}

// AuthResult is returned after login and refresh
type AuthResult struct {
	AccessToken           string        `json:"access_token"`
	RefreshToken          string        `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time     `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time     `json:"refresh_token_expires_at"`
	TokenType             string        `json:"token_type"`
	User                  *UserResponse `json:"user,omitempty"`
}

// MeResponse is the current user with their profile, if any
type MeResponse struct {
	User     UserResponse     `json:"user"`
	Customer *CustomerSummary `json:"customer,omitempty"`
	Brand    *BrandSummary    `json:"brand,omitempty"`
}

// CustomerSummary is the profile part of MeResponse for customers
type CustomerSummary struct {
	ID        uuid.UUID `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// BrandSummary is the profile part of MeResponse for brand owners
type BrandSummary struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Slug   string    `json:"slug"`
	Status string    `json:"status"`
}

func toCustomerSummary(c *partner.Customer) *CustomerSummary {
	return &CustomerSummary{ID: c.ID, FirstName: c.FirstName, LastName: c.LastName}
}

func toBrandSummary(b *partner.Brand) *BrandSummary {
	return &BrandSummary{ID: b.ID, Name: b.Name, Slug: b.Slug, Status: string(b.Status)}
}

// CreateInvitationRequest is the admin payload for inviting a brand
type CreateInvitationRequest struct {
	Email     string `json:"email" binding:"required,email,max=200"`
	BrandName string `json:"brand_name" binding:"required,min=1,max=100"`
}

// InvitationResponse is the admin view of an invitation. The token itself is never returned.
type InvitationResponse struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	BrandName string     `json:"brand_name"`
	InvitedBy uuid.UUID  `json:"invited_by"`
	State     string     `json:"state"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ToInvitationResponse converts a domain invitation, deriving its state at now
func ToInvitationResponse(inv *identity.InvitationToken, now time.Time) InvitationResponse {
	state := "pending"
	switch {
	case inv.IsUsed():
		state = "used"
	case inv.IsExpired(now):
		state = "expired"
	}
	return InvitationResponse{
		ID:        inv.ID,
		Email:     inv.Email,
		BrandName: inv.BrandName,
		InvitedBy: inv.InvitedBy,
		State:     state,
		ExpiresAt: inv.ExpiresAt,
		UsedAt:    inv.UsedAt,
		CreatedAt: inv.CreatedAt,
	}
}

// InvitationListFilter holds query parameters for listing invitations
type InvitationListFilter struct {
	State    string `form:"state" binding:"omitempty,oneof=pending used expired"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// UserListFilter holds query parameters for the admin user list
type UserListFilter struct {
	Search   string `form:"search"`
	Role     string `form:"role" binding:"omitempty,oneof=customer brand admin"`
	Status   string `form:"status" binding:"omitempty,oneof=active deactivated"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// UpdateUserStatusRequest activates or deactivates a user
type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active deactivated"`
}
