package partner

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
)

// BrandStatus represents whether a brand may sell
type BrandStatus string

const (
	BrandStatusActive    BrandStatus = "active"
	BrandStatusSuspended BrandStatus = "suspended"
)

// IsValid checks if the status is a known value
func (s BrandStatus) IsValid() bool {
	return s == BrandStatusActive || s == BrandStatusSuspended
}

var slugInvalidChars = regexp.MustCompile(`[^a-z0-9]+`)

// Brand is a seller storefront owned by a brand user
type Brand struct {
	shared.BaseAggregateRoot
	OwnerID     uuid.UUID
	Name        string
	Slug        string
	Description string
	LogoURL     string
	Website     string
	Status      BrandStatus
}

// NewBrand creates an active brand owned by ownerID
func NewBrand(ownerID uuid.UUID, name, description string) (*Brand, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if err := validateBrandName(name); err != nil {
		return nil, err
	}
	if len(description) > 2000 {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 2000 characters")
	}
	return &Brand{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OwnerID:           ownerID,
		Name:              name,
		Slug:              Slugify(name),
		Description:       strings.TrimSpace(description),
		Status:            BrandStatusActive,
	}, nil
}

// UpdateProfile replaces the editable storefront fields
func (b *Brand) UpdateProfile(description, logoURL, website string) error {
	if len(description) > 2000 {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 2000 characters")
	}
	for _, raw := range []string{logoURL, website} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return shared.NewDomainError("INVALID_URL", "URLs must be absolute http(s) addresses")
		}
	}
	b.Description = strings.TrimSpace(description)
	b.LogoURL = logoURL
	b.Website = website
	b.Touch()
	b.IncrementVersion()
	return nil
}

// Suspend stops the brand from selling
func (b *Brand) Suspend() error {
	if b.Status == BrandStatusSuspended {
		return shared.NewDomainError("INVALID_STATE", "Brand is already suspended")
	}
	b.Status = BrandStatusSuspended
	b.Touch()
	b.IncrementVersion()
	return nil
}

// Reinstate lets a suspended brand sell again
func (b *Brand) Reinstate() error {
	if b.Status == BrandStatusActive {
		return shared.NewDomainError("INVALID_STATE", "Brand is already active")
	}
	b.Status = BrandStatusActive
	b.Touch()
	b.IncrementVersion()
	return nil
}

// IsActive reports whether the brand may sell
func (b *Brand) IsActive() bool {
	return b.Status == BrandStatusActive
}

// IsOwnedBy reports whether userID owns the brand
func (b *Brand) IsOwnedBy(userID uuid.UUID) bool {
	return b.OwnerID == userID
}

// Slugify lowercases name and joins alphanumeric runs with hyphens
func Slugify(name string) string {
	slug := slugInvalidChars.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

func validateBrandName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_BRAND_NAME", "Brand name cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_BRAND_NAME", "Brand name cannot exceed 100 characters")
	}
	if Slugify(name) == "" {
		return shared.NewDomainError("INVALID_BRAND_NAME", "Brand name must contain letters or digits")
	}
	return nil
}
