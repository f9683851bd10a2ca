package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// OrderModel is the persistence model for the Order aggregate.
// Line items, shipping address and status history are JSON columns.
type OrderModel struct {
	AggregateModel
	OrderNumber     string               `gorm:"type:varchar(32);not null;uniqueIndex"`
	CustomerID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	BrandID         uuid.UUID            `gorm:"type:uuid;not null;index"`
	Items           []order.OrderItem    `gorm:"type:jsonb;serializer:json"`
	Subtotal        decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	CouponCode      string               `gorm:"type:varchar(50)"`
	PercentOff      decimal.Decimal      `gorm:"type:decimal(5,2);not null;default:0"`
	Discount        decimal.Decimal      `gorm:"type:decimal(12,2);not null;default:0"`
	Total           decimal.Decimal      `gorm:"type:decimal(12,2);not null"`
	ShippingAddress valueobject.Address  `gorm:"type:jsonb;serializer:json"`
	Status          order.OrderStatus    `gorm:"type:varchar(20);not null;index"`
	StatusHistory   []order.StatusChange `gorm:"type:jsonb;serializer:json"`
	CancelReason    string               `gorm:"type:varchar(500)"`
	ConfirmedAt     *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	ReturnedAt      *time.Time
	RefundedAt      *time.Time
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	items := m.Items
	if items == nil {
		items = []order.OrderItem{}
	}
	history := m.StatusHistory
	if history == nil {
		history = []order.StatusChange{}
	}
	return &order.Order{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		OrderNumber:       m.OrderNumber,
		CustomerID:        m.CustomerID,
		BrandID:           m.BrandID,
		Items:             items,
		Subtotal:          m.Subtotal,
		CouponCode:        m.CouponCode,
		PercentOff:        m.PercentOff,
		Discount:          m.Discount,
		Total:             m.Total,
		ShippingAddress:   m.ShippingAddress,
		Status:            m.Status,
		StatusHistory:     history,
		CancelReason:      m.CancelReason,
		ConfirmedAt:       m.ConfirmedAt,
		ShippedAt:         m.ShippedAt,
		DeliveredAt:       m.DeliveredAt,
		CancelledAt:       m.CancelledAt,
		ReturnedAt:        m.ReturnedAt,
		RefundedAt:        m.RefundedAt,
	}
}

// OrderModelFromDomain creates a persistence model from a domain Order
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		BrandID:         o.BrandID,
		Items:           o.Items,
		Subtotal:        o.Subtotal,
		CouponCode:      o.CouponCode,
		PercentOff:      o.PercentOff,
		Discount:        o.Discount,
		Total:           o.Total,
		ShippingAddress: o.ShippingAddress,
		Status:          o.Status,
		StatusHistory:   o.StatusHistory,
		CancelReason:    o.CancelReason,
		ConfirmedAt:     o.ConfirmedAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		ReturnedAt:      o.ReturnedAt,
		RefundedAt:      o.RefundedAt,
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	return m
}

// AllModels lists every persistence model, for AutoMigrate in tests
func AllModels() []any {
	return []any{
		&UserModel{},
		&EmailVerificationTokenModel{},
		&InvitationTokenModel{},
		&CustomerModel{},
		&BrandModel{},
		&ProductModel{},
		&CartModel{},
		&CouponModel{},
		&OrderModel{},
	}
}
