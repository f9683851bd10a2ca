package order

import (
	"context"

	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/partner"
)

// TransactionScope runs checkout and status changes atomically.
// If fn returns an error every write made through repos is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories exposes repositories bound to one transaction
type TransactionalRepositories interface {
	Products() catalog.ProductRepository
	Brands() partner.BrandRepository
	Carts() cart.CartRepository
	Coupons() cart.CouponRepository
	Orders() order.OrderRepository
}
