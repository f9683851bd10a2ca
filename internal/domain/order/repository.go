package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Filter keys understood by OrderRepository list methods
const (
	FilterStatus = "status"
)

// StatusSummary is the order count and revenue for one status
type StatusSummary struct {
	Status  OrderStatus     `json:"status"`
	Count   int64           `json:"count"`
	Revenue decimal.Decimal `json:"revenue"`
}

// OrderRepository defines persistence operations for orders
type OrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByOrderNumber(ctx context.Context, number string) (*Order, error)
	FindByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) ([]Order, error)
	CountByCustomer(ctx context.Context, customerID uuid.UUID, filter shared.Filter) (int64, error)
	FindByBrand(ctx context.Context, brandID uuid.UUID, filter shared.Filter) ([]Order, error)
	CountByBrand(ctx context.Context, brandID uuid.UUID, filter shared.Filter) (int64, error)
	// SummarizeByBrand aggregates count and total per status
	SummarizeByBrand(ctx context.Context, brandID uuid.UUID) ([]StatusSummary, error)
	Create(ctx context.Context, order *Order) error
	// Update saves status fields guarded by the persisted version
	Update(ctx context.Context, order *Order) error
}
