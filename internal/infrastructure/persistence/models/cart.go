package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/shopspring/decimal"
)

// CartModel is the persistence model for a customer's cart
type CartModel struct {
	AggregateModel
	CustomerID uuid.UUID           `gorm:"type:uuid;not null;uniqueIndex"`
	Items      []cart.CartItem     `gorm:"type:jsonb;serializer:json"`
	Coupon     *cart.AppliedCoupon `gorm:"type:jsonb;serializer:json"`
	Subtotal   decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	Discount   decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
	Total      decimal.Decimal     `gorm:"type:decimal(12,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (CartModel) TableName() string {
	return "carts"
}

// ToDomain converts the persistence model to a domain Cart
func (m *CartModel) ToDomain() *cart.Cart {
	items := m.Items
	if items == nil {
		items = []cart.CartItem{}
	}
	return &cart.Cart{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		CustomerID:        m.CustomerID,
		Items:             items,
		Coupon:            m.Coupon,
		Subtotal:          m.Subtotal,
		Discount:          m.Discount,
		Total:             m.Total,
	}
}

// CartModelFromDomain creates a persistence model from a domain Cart
func CartModelFromDomain(c *cart.Cart) *CartModel {
	m := &CartModel{
		CustomerID: c.CustomerID,
		Items:      c.Items,
		Coupon:     c.Coupon,
		Subtotal:   c.Subtotal,
		Discount:   c.Discount,
		Total:      c.Total,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// CouponModel is the persistence model for the Coupon aggregate
type CouponModel struct {
	AggregateModel
	Code           string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	PercentOff     decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	MinSubtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	ExpiresAt      *time.Time
	MaxRedemptions int  `gorm:"not null;default:0"`
	Redemptions    int  `gorm:"not null;default:0"`
	Active         bool `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (CouponModel) TableName() string {
	return "coupons"
}

// ToDomain converts the persistence model to a domain Coupon
func (m *CouponModel) ToDomain() *cart.Coupon {
	return &cart.Coupon{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Code:              m.Code,
		PercentOff:        m.PercentOff,
		MinSubtotal:       m.MinSubtotal,
		ExpiresAt:         m.ExpiresAt,
		MaxRedemptions:    m.MaxRedemptions,
		Redemptions:       m.Redemptions,
		Active:            m.Active,
	}
}

// CouponModelFromDomain creates a persistence model from a domain Coupon
func CouponModelFromDomain(c *cart.Coupon) *CouponModel {
	m := &CouponModel{
		Code:           c.Code,
		PercentOff:     c.PercentOff,
		MinSubtotal:    c.MinSubtotal,
		ExpiresAt:      c.ExpiresAt,
		MaxRedemptions: c.MaxRedemptions,
		Redemptions:    c.Redemptions,
		Active:         c.Active,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}
