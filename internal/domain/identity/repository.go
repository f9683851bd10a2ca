package identity

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// UserRepository defines persistence operations for users
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]User, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create inserts a new user; a duplicate email yields shared.ErrAlreadyExists
	Create(ctx context.Context, user *User) error
	// Update persists changes guarded by the user's version
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// EmailVerificationTokenRepository persists verification tokens
type EmailVerificationTokenRepository interface {
	Create(ctx context.Context, token *EmailVerificationToken) error
	FindByToken(ctx context.Context, token string) (*EmailVerificationToken, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

// InvitationTokenRepository persists brand invitations
type InvitationTokenRepository interface {
	Create(ctx context.Context, invitation *InvitationToken) error
	FindByID(ctx context.Context, id uuid.UUID) (*InvitationToken, error)
	FindByToken(ctx context.Context, token string) (*InvitationToken, error)
	// FindPendingByEmail returns an unused, unexpired invitation for email
	FindPendingByEmail(ctx context.Context, email string) (*InvitationToken, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]InvitationToken, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	Update(ctx context.Context, invitation *InvitationToken) error
	Delete(ctx context.Context, id uuid.UUID) error
}
