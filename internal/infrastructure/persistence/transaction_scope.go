package persistence

import (
	"context"

	appidentity "github.com/marketplace/backend/internal/application/identity"
	apporder "github.com/marketplace/backend/internal/application/order"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/partner"
	"gorm.io/gorm"
)

// GormOrderTransactionScope implements the order TransactionScope using GORM transactions
type GormOrderTransactionScope struct {
	db *gorm.DB
}

// NewGormOrderTransactionScope creates a new GormOrderTransactionScope
func NewGormOrderTransactionScope(db *gorm.DB) *GormOrderTransactionScope {
	return &GormOrderTransactionScope{db: db}
}

// Execute runs fn within a database transaction, committing only if fn succeeds
func (s *GormOrderTransactionScope) Execute(ctx context.Context, fn func(repos apporder.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// GormIdentityTransactionScope implements the identity TransactionScope using GORM transactions
type GormIdentityTransactionScope struct {
	db *gorm.DB
}

// NewGormIdentityTransactionScope creates a new GormIdentityTransactionScope
func NewGormIdentityTransactionScope(db *gorm.DB) *GormIdentityTransactionScope {
	return &GormIdentityTransactionScope{db: db}
}

// Execute runs fn within a database transaction, committing only if fn succeeds
func (s *GormIdentityTransactionScope) Execute(ctx context.Context, fn func(repos appidentity.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories hands out repositories sharing one *gorm.DB transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) Users() identity.UserRepository {
	return NewGormUserRepository(r.tx)
}

func (r *gormTransactionalRepositories) Customers() partner.CustomerRepository {
	return NewGormCustomerRepository(r.tx)
}

func (r *gormTransactionalRepositories) Brands() partner.BrandRepository {
	return NewGormBrandRepository(r.tx)
}

func (r *gormTransactionalRepositories) VerificationTokens() identity.EmailVerificationTokenRepository {
	return NewGormEmailVerificationTokenRepository(r.tx)
}

func (r *gormTransactionalRepositories) Invitations() identity.InvitationTokenRepository {
	return NewGormInvitationTokenRepository(r.tx)
}

func (r *gormTransactionalRepositories) Products() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *gormTransactionalRepositories) Carts() cart.CartRepository {
	return NewGormCartRepository(r.tx)
}

func (r *gormTransactionalRepositories) Coupons() cart.CouponRepository {
	return NewGormCouponRepository(r.tx)
}

func (r *gormTransactionalRepositories) Orders() order.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

var (
	_ apporder.TransactionScope             = (*GormOrderTransactionScope)(nil)
	_ appidentity.TransactionScope          = (*GormIdentityTransactionScope)(nil)
	_ apporder.TransactionalRepositories    = (*gormTransactionalRepositories)(nil)
	_ appidentity.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
