package catalog

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to list a new product
type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	Description string          `json:"description" binding:"max=5000"`
	SKU         string          `json:"sku" binding:"required,min=1,max=50"`
	Category    string          `json:"category" binding:"max=100"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" binding:"min=0"`
	Active      *bool           `json:"active"`
}

// UpdateProductRequest replaces a product's descriptive fields and price
type UpdateProductRequest struct {
	Name        string          `json:"name" binding:"required,min=1,max=200"`
	Description string          `json:"description" binding:"max=5000"`
	Category    string          `json:"category" binding:"max=100"`
	Price       decimal.Decimal `json:"price"`
	Active      *bool           `json:"active"`
}

// AdjustStockRequest either applies a delta or sets an absolute stock level
type AdjustStockRequest struct {
	Delta *int `json:"delta"`
	Stock *int `json:"stock" binding:"omitempty,min=0"`
}

// ImageUpload is an image file received from a multipart form
type ImageUpload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// ProductListFilter holds query parameters for product listings
type ProductListFilter struct {
	Search   string `form:"search"`
	BrandID  string `form:"brand_id" binding:"omitempty,uuid"`
	Category string `form:"category"`
	MinPrice string `form:"min_price" binding:"omitempty,numeric"`
	MaxPrice string `form:"max_price" binding:"omitempty,numeric"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=name price created_at stock"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// ProductResponse is the public view of a product
type ProductResponse struct {
	ID          uuid.UUID              `json:"id"`
	BrandID     uuid.UUID              `json:"brand_id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	SKU         string                 `json:"sku"`
	Category    string                 `json:"category,omitempty"`
	Price       decimal.Decimal        `json:"price"`
	Stock       int                    `json:"stock"`
	InStock     bool                   `json:"in_stock"`
	Images      []ProductImageResponse `json:"images"`
	Active      bool                   `json:"active"`
	Version     int                    `json:"version"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// ProductImageResponse is an image attached to a product
type ProductImageResponse struct {
	ID  uuid.UUID `json:"id"`
	URL string    `json:"url"`
}

// ToProductResponse converts a domain product
func ToProductResponse(p *catalog.Product) ProductResponse {
	images := make([]ProductImageResponse, len(p.Images))
	for i, img := range p.Images {
		images[i] = ProductImageResponse{ID: img.ID, URL: img.URL}
	}
	return ProductResponse{
		ID:          p.ID,
		BrandID:     p.BrandID,
		Name:        p.Name,
		Description: p.Description,
		SKU:         p.SKU,
		Category:    p.Category,
		Price:       p.Price,
		Stock:       p.Stock,
		InStock:     p.Stock > 0,
		Images:      images,
		Active:      p.Active,
		Version:     p.Version,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
