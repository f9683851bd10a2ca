package identity

import (
	"context"

	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/partner"
)

// TransactionScope makes account creation atomic: the user, its profile and
// its token are written together or not at all
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes repositories bound to one transaction
type TransactionalRepositories interface {
	Users() identity.UserRepository
	Customers() partner.CustomerRepository
	Brands() partner.BrandRepository
	VerificationTokens() identity.EmailVerificationTokenRepository
	Invitations() identity.InvitationTokenRepository
}
