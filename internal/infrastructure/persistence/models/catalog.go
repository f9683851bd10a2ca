package models

import (
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductModel is the persistence model for the Product aggregate.
// Images are stored inline as a JSON array.
type ProductModel struct {
	AggregateModel
	BrandID     uuid.UUID              `gorm:"type:uuid;not null;index;uniqueIndex:idx_products_brand_sku"`
	Name        string                 `gorm:"type:varchar(200);not null"`
	Description string                 `gorm:"type:text"`
	SKU         string                 `gorm:"column:sku;type:varchar(64);not null;uniqueIndex:idx_products_brand_sku"`
	Category    string                 `gorm:"type:varchar(100);index"`
	Price       decimal.Decimal        `gorm:"type:decimal(12,2);not null"`
	Stock       int                    `gorm:"not null;default:0"`
	Images      []catalog.ProductImage `gorm:"type:jsonb;serializer:json"`
	Active      bool                   `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	images := m.Images
	if images == nil {
		images = []catalog.ProductImage{}
	}
	return &catalog.Product{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		BrandID:           m.BrandID,
		Name:              m.Name,
		Description:       m.Description,
		SKU:               m.SKU,
		Category:          m.Category,
		Price:             m.Price,
		Stock:             m.Stock,
		Images:            images,
		Active:            m.Active,
	}
}

// ProductModelFromDomain creates a persistence model from a domain Product
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		BrandID:     p.BrandID,
		Name:        p.Name,
		Description: p.Description,
		SKU:         p.SKU,
		Category:    p.Category,
		Price:       p.Price,
		Stock:       p.Stock,
		Images:      p.Images,
		Active:      p.Active,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}
