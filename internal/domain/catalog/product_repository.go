package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// Filter keys understood by ProductRepository.FindAll and Count
const (
	FilterBrandID  = "brand_id"
	FilterCategory = "category"
	FilterMinPrice = "min_price"
	FilterMaxPrice = "max_price"
	FilterActive   = "active"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByIDs finds multiple products by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// FindAll finds products matching the filter; Search matches name and description
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsBySKU checks whether a brand already uses sku
	ExistsBySKU(ctx context.Context, brandID uuid.UUID, sku string) (bool, error)

	// Create inserts a new product
	Create(ctx context.Context, product *Product) error

	// Update saves a product guarded by its previous version
	Update(ctx context.Context, product *Product) error

	// Delete deletes a product
	Delete(ctx context.Context, id uuid.UUID) error

	// DecrementStock removes quantity in a single conditional update;
	// returns INSUFFICIENT_STOCK when stock < quantity
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error

	// IncrementStock adds quantity back to stock
	IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error
}
