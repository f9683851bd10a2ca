package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// CartRepository persists carts, one per customer
type CartRepository interface {
	// FindByCustomerID returns NOT_FOUND when the customer has no cart yet
	FindByCustomerID(ctx context.Context, customerID uuid.UUID) (*Cart, error)
	// Save inserts or updates the cart
	Save(ctx context.Context, cart *Cart) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CouponRepository persists coupons
type CouponRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Coupon, error)
	// FindByCode looks up a normalized (uppercase) code
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Coupon, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, coupon *Coupon) error
	Update(ctx context.Context, coupon *Coupon) error
	Delete(ctx context.Context, id uuid.UUID) error
	// IncrementRedemptions counts one use in a single conditional update;
	// returns COUPON_EXHAUSTED when no redemptions are left
	IncrementRedemptions(ctx context.Context, id uuid.UUID) error
}
