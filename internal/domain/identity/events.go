package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Aggregate type constant for User
const (
	AggregateTypeUser       = "User"
	AggregateTypeInvitation = "Invitation"
)

// User domain event types
const (
	EventTypeUserRegistered = "UserRegistered"
	EventTypeEmailVerified  = "EmailVerified"
	EventTypeBrandInvited   = "BrandInvited"
)

// UserRegisteredEvent is published when an account is created
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(user *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, user.ID),
		Email:           user.Email,
		Role:            user.Role,
	}
}

// EmailVerifiedEvent is published when a user proves their email address
type EmailVerifiedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

// NewEmailVerifiedEvent creates a new EmailVerifiedEvent
func NewEmailVerifiedEvent(user *User) *EmailVerifiedEvent {
	return &EmailVerifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEmailVerified, AggregateTypeUser, user.ID),
		Email:           user.Email,
	}
}

// BrandInvitedEvent is published when an admin invites a brand to register
type BrandInvitedEvent struct {
	shared.BaseDomainEvent
	Email     string    `json:"email"`
	BrandName string    `json:"brand_name"`
	InvitedBy uuid.UUID `json:"invited_by"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewBrandInvitedEvent creates a new BrandInvitedEvent
func NewBrandInvitedEvent(inv *InvitationToken) *BrandInvitedEvent {
	return &BrandInvitedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBrandInvited, AggregateTypeInvitation, inv.ID),
		Email:           inv.Email,
		BrandName:       inv.BrandName,
		InvitedBy:       inv.InvitedBy,
		ExpiresAt:       inv.ExpiresAt,
	}
}
