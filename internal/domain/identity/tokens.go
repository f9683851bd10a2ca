package identity

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// tokenBytes is the entropy of verification and invitation tokens
const tokenBytes = 32

// GenerateToken returns a random hex-encoded token
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// EmailVerificationToken proves ownership of a user's email address
type EmailVerificationToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// NewEmailVerificationToken issues a token for the user valid for ttl
func NewEmailVerificationToken(userID uuid.UUID, ttl time.Duration) (*EmailVerificationToken, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "User ID cannot be empty")
	}
	if ttl <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Token lifetime must be positive")
	}
	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &EmailVerificationToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}

// IsExpired reports whether the token is past its expiry at now
func (t *EmailVerificationToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// InvitationToken lets an invited brand owner create an account
type InvitationToken struct {
	ID        uuid.UUID
	Email     string
	BrandName string
	Token     string
	InvitedBy uuid.UUID
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// NewInvitationToken issues an invitation for email valid for ttl
func NewInvitationToken(email, brandName string, invitedBy uuid.UUID, ttl time.Duration) (*InvitationToken, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	brandName = strings.TrimSpace(brandName)
	if brandName == "" {
		return nil, shared.NewDomainError("INVALID_BRAND_NAME", "Brand name cannot be empty")
	}
	if len(brandName) > 100 {
		return nil, shared.NewDomainError("INVALID_BRAND_NAME", "Brand name cannot exceed 100 characters")
	}
	if ttl <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invitation lifetime must be positive")
	}
	token, err := GenerateToken()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &InvitationToken{
		ID:        uuid.New(),
		Email:     email,
		BrandName: brandName,
		Token:     token,
		InvitedBy: invitedBy,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}, nil
}

// IsExpired reports whether the invitation is past its expiry at now
func (t *InvitationToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// IsUsed reports whether the invitation was already accepted
func (t *InvitationToken) IsUsed() bool {
	return t.UsedAt != nil
}

// IsPending reports whether the invitation can still be accepted at now
func (t *InvitationToken) IsPending(now time.Time) bool {
	return !t.IsUsed() && !t.IsExpired(now)
}

// CheckAcceptable returns the reason the invitation cannot be accepted at now, or nil
func (t *InvitationToken) CheckAcceptable(now time.Time) error {
	if t.IsUsed() {
		return shared.NewDomainError("INVITATION_USED", "Invitation has already been used")
	}
	if t.IsExpired(now) {
		return shared.NewDomainError("INVITATION_EXPIRED", "Invitation has expired")
	}
	return nil
}

// MarkUsed records acceptance of the invitation
func (t *InvitationToken) MarkUsed(now time.Time) error {
	if err := t.CheckAcceptable(now); err != nil {
		return err
	}
	t.UsedAt = &now
	return nil
}
