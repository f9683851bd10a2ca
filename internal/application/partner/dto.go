package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/partner"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

// AddressRequest is a postal address in request bodies
type AddressRequest struct {
	Line1      string `json:"line1" binding:"required,max=200"`
	Line2      string `json:"line2" binding:"max=200"`
	City       string `json:"city" binding:"required,max=100"`
	State      string `json:"state" binding:"max=100"`
	PostalCode string `json:"postal_code" binding:"required,max=20"`
	Country    string `json:"country" binding:"required,len=2"`
}

// ToAddress validates and converts the request
func (r AddressRequest) ToAddress() (valueobject.Address, error) {
	return valueobject.NewAddress(r.Line1, r.Line2, r.City, r.State, r.PostalCode, r.Country)
}

// UpdateCustomerProfileRequest replaces the customer's editable fields.
// A nil DefaultAddress leaves the stored address unchanged unless ClearDefaultAddress is set.
type UpdateCustomerProfileRequest struct {
	FirstName           string          `json:"first_name" binding:"required,min=1,max=100"`
	LastName            string          `json:"last_name" binding:"max=100"`
	Phone               string          `json:"phone" binding:"max=30"`
	DefaultAddress      *AddressRequest `json:"default_address"`
	ClearDefaultAddress bool            `json:"clear_default_address"`
}

// CustomerResponse is the customer's own profile
type CustomerResponse struct {
	ID             uuid.UUID            `json:"id"`
	UserID         uuid.UUID            `json:"user_id"`
	FirstName      string               `json:"first_name"`
	LastName       string               `json:"last_name"`
	Phone          string               `json:"phone,omitempty"`
	DefaultAddress *valueobject.Address `json:"default_address,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// ToCustomerResponse converts a domain customer
func ToCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:             c.ID,
		UserID:         c.UserID,
		FirstName:      c.FirstName,
		LastName:       c.LastName,
		Phone:          c.Phone,
		DefaultAddress: c.DefaultAddress,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

// UpdateBrandProfileRequest replaces the brand's storefront fields
type UpdateBrandProfileRequest struct {
	Description string `json:"description" binding:"max=2000"`
	LogoURL     string `json:"logo_url" binding:"omitempty,url,max=500"`
	Website     string `json:"website" binding:"omitempty,url,max=500"`
}

// UpdateBrandStatusRequest suspends or reinstates a brand
type UpdateBrandStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=active suspended"`
}

// BrandResponse is the storefront view of a brand
type BrandResponse struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	LogoURL     string    `json:"logo_url,omitempty"`
	Website     string    `json:"website,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToBrandResponse converts a domain brand
func ToBrandResponse(b *partner.Brand) BrandResponse {
	return BrandResponse{
		ID:          b.ID,
		OwnerID:     b.OwnerID,
		Name:        b.Name,
		Slug:        b.Slug,
		Description: b.Description,
		LogoURL:     b.LogoURL,
		Website:     b.Website,
		Status:      string(b.Status),
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// BrandListFilter holds query parameters for brand listings
type BrandListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=active suspended"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}
