package cart

import (
	"strings"
	"time"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Coupon error codes
const (
	CodeCouponNotFound      = "COUPON_NOT_FOUND"
	CodeCouponExpired       = "COUPON_EXPIRED"
	CodeCouponExhausted     = "COUPON_EXHAUSTED"
	CodeCouponMinimumNotMet = "COUPON_MINIMUM_NOT_MET"
)

// Coupon is a percentage discount code managed by admins
type Coupon struct {
	shared.BaseAggregateRoot
	Code           string
	PercentOff     decimal.Decimal
	MinSubtotal    decimal.Decimal
	ExpiresAt      *time.Time
	MaxRedemptions int // 0 means unlimited
	Redemptions    int
	Active         bool
}

// NewCoupon creates an active coupon
func NewCoupon(code string, percentOff, minSubtotal decimal.Decimal, expiresAt *time.Time, maxRedemptions int) (*Coupon, error) {
	code = NormalizeCode(code)
	if code == "" || len(code) > 50 {
		return nil, shared.NewDomainError("INVALID_COUPON_CODE", "Coupon code must be 1-50 characters")
	}
	if strings.ContainsAny(code, " \t\n") {
		return nil, shared.NewDomainError("INVALID_COUPON_CODE", "Coupon code cannot contain whitespace")
	}
	if err := valueobject.ValidatePercent(percentOff); err != nil {
		return nil, err
	}
	if minSubtotal.IsNegative() {
		return nil, shared.NewDomainError("INVALID_MIN_SUBTOTAL", "Minimum subtotal cannot be negative")
	}
	if maxRedemptions < 0 {
		return nil, shared.NewDomainError("INVALID_MAX_REDEMPTIONS", "Max redemptions cannot be negative")
	}
	if expiresAt != nil && !expiresAt.After(time.Now()) {
		return nil, shared.NewDomainError("INVALID_EXPIRY", "Expiry must be in the future")
	}
	return &Coupon{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		PercentOff:        percentOff,
		MinSubtotal:       minSubtotal,
		ExpiresAt:         expiresAt,
		MaxRedemptions:    maxRedemptions,
		Active:            true,
	}, nil
}

// NormalizeCode trims and uppercases a coupon code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsExpired reports whether the coupon expired at now
func (c *Coupon) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}

// IsExhausted reports whether all redemptions are used
func (c *Coupon) IsExhausted() bool {
	return c.MaxRedemptions > 0 && c.Redemptions >= c.MaxRedemptions
}

// CheckApplicable validates the coupon against a cart subtotal
func (c *Coupon) CheckApplicable(subtotal decimal.Decimal, now time.Time) error {
	if !c.Active {
		return shared.NewDomainError(CodeCouponNotFound, "Coupon not found")
	}
	if c.IsExpired(now) {
		return shared.NewDomainError(CodeCouponExpired, "Coupon has expired")
	}
	if c.IsExhausted() {
		return shared.NewDomainError(CodeCouponExhausted, "Coupon has no redemptions left")
	}
	if subtotal.LessThan(c.MinSubtotal) {
		return shared.NewDomainError(CodeCouponMinimumNotMet, "Cart subtotal is below the coupon minimum of "+c.MinSubtotal.StringFixed(2))
	}
	return nil
}

// Deactivate disables the coupon
func (c *Coupon) Deactivate() {
	if !c.Active {
		return
	}
	c.Active = false
	c.Touch()
	c.IncrementVersion()
}
