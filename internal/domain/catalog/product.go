package catalog

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DefaultMaxImages is the image limit used when none is configured
const DefaultMaxImages = 10

var skuPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9_-]*$`)

// ProductImage is an uploaded image stored in object storage
type ProductImage struct {
	ID  uuid.UUID `json:"id"`
	URL string    `json:"url"`
	Key string    `json:"key"`
}

// Product is a sellable item listed by a brand
// It is the aggregate root for stock and image changes
type Product struct {
	shared.BaseAggregateRoot
	BrandID     uuid.UUID
	Name        string
	Description string
	SKU         string
	Category    string
	Price       decimal.Decimal
	Stock       int
	Images      []ProductImage
	Active      bool
}

// NewProduct creates an active product for brandID
func NewProduct(brandID uuid.UUID, name, sku string, price decimal.Decimal, stock int) (*Product, error) {
	if brandID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_BRAND", "Brand ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := valueobject.ValidatePrice(price); err != nil {
		return nil, err
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_STOCK", "Stock cannot be negative")
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BrandID:           brandID,
		Name:              name,
		SKU:               sku,
		Price:             price,
		Stock:             stock,
		Images:            make([]ProductImage, 0),
		Active:            true,
	}
	product.AddDomainEvent(NewProductCreatedEvent(product))
	return product, nil
}

// Update replaces the descriptive fields and price
func (p *Product) Update(name, description, category string, price decimal.Decimal) error {
	name = strings.TrimSpace(name)
	if err := validateProductName(name); err != nil {
		return err
	}
	if len(description) > 5000 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 5000 characters")
	}
	category = strings.ToLower(strings.TrimSpace(category))
	if len(category) > 100 {
		return shared.NewDomainError("INVALID_CATEGORY", "Category cannot exceed 100 characters")
	}
	if err := valueobject.ValidatePrice(price); err != nil {
		return err
	}

	oldPrice := p.Price
	p.Name = name
	p.Description = description
	p.Category = category
	p.Price = price
	p.Touch()
	p.IncrementVersion()

	if !oldPrice.Equal(price) {
		p.AddDomainEvent(NewProductPriceChangedEvent(p, oldPrice))
	}
	return nil
}

// SetActive lists or unlists the product
func (p *Product) SetActive(active bool) {
	if p.Active == active {
		return
	}
	p.Active = active
	p.Touch()
	p.IncrementVersion()
}

// ReserveStock removes quantity from stock for an order
func (p *Product) ReserveStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if quantity > p.Stock {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Insufficient stock for "+p.Name)
	}
	p.Stock -= quantity
	p.Touch()
	p.IncrementVersion()
	return nil
}

// RestoreStock returns quantity to stock after a cancellation or return
func (p *Product) RestoreStock(quantity int) error {
	if quantity <= 0 {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	p.Stock += quantity
	p.Touch()
	p.IncrementVersion()
	return nil
}

// AdjustStock applies a manual correction; the result cannot go below zero
func (p *Product) AdjustStock(delta int) error {
	if p.Stock+delta < 0 {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Stock cannot go below zero")
	}
	old := p.Stock
	p.Stock += delta
	p.Touch()
	p.IncrementVersion()
	p.AddDomainEvent(NewProductStockAdjustedEvent(p, old))
	return nil
}

// HasStock reports whether quantity units are available
func (p *Product) HasStock(quantity int) bool {
	return quantity <= p.Stock
}

// AddImage appends an image, keeping at most maxImages
func (p *Product) AddImage(image ProductImage, maxImages int) error {
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}
	if len(p.Images) >= maxImages {
		return shared.NewDomainError("TOO_MANY_IMAGES", "Product image limit reached")
	}
	if image.Key == "" || image.URL == "" {
		return shared.NewDomainError("INVALID_IMAGE", "Image key and URL are required")
	}
	if image.ID == uuid.Nil {
		image.ID = uuid.New()
	}
	p.Images = append(p.Images, image)
	p.Touch()
	p.IncrementVersion()
	return nil
}

// RemoveImage detaches the image and returns it so the stored object can be deleted
func (p *Product) RemoveImage(imageID uuid.UUID) (ProductImage, error) {
	for i, img := range p.Images {
		if img.ID == imageID {
			p.Images = append(p.Images[:i], p.Images[i+1:]...)
			p.Touch()
			p.IncrementVersion()
			return img, nil
		}
	}
	return ProductImage{}, shared.NewDomainError("IMAGE_NOT_FOUND", "Image not found")
}

// IsOwnedBy reports whether the product belongs to brandID
func (p *Product) IsOwnedBy(brandID uuid.UUID) bool {
	return p.BrandID == brandID
}

func validateProductName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}

func validateSKU(sku string) error {
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 50 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 50 characters")
	}
	if !skuPattern.MatchString(sku) {
		return shared.NewDomainError("INVALID_SKU", "SKU may only contain letters, digits, hyphens and underscores")
	}
	return nil
}
