package valueobject

import (
	"strings"

	"github.com/marketplace/backend/internal/domain/shared"
)

// Address is a postal address used for shipping and customer profiles
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// NewAddress trims and validates the given address
func NewAddress(line1, line2, city, state, postalCode, country string) (Address, error) {
	addr := Address{
		Line1:      strings.TrimSpace(line1),
		Line2:      strings.TrimSpace(line2),
		City:       strings.TrimSpace(city),
		State:      strings.TrimSpace(state),
		PostalCode: strings.TrimSpace(postalCode),
		Country:    strings.ToUpper(strings.TrimSpace(country)),
	}
	if err := addr.Validate(); err != nil {
		return Address{}, err
	}
	return addr, nil
}

// Validate checks required fields and lengths
func (a Address) Validate() error {
	if a.Line1 == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "Address line 1 is required")
	}
	if len(a.Line1) > 200 || len(a.Line2) > 200 {
		return shared.NewDomainError("INVALID_ADDRESS", "Address lines cannot exceed 200 characters")
	}
	if a.City == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "City is required")
	}
	if a.PostalCode == "" {
		return shared.NewDomainError("INVALID_ADDRESS", "Postal code is required")
	}
	if len(a.Country) != 2 {
		return shared.NewDomainError("INVALID_ADDRESS", "Country must be a 2-letter ISO code")
	}
	return nil
}

// IsEmpty reports whether no field is set
func (a Address) IsEmpty() bool {
	return a == Address{}
}

// String renders the address on one line
func (a Address) String() string {
	parts := []string{a.Line1}
	if a.Line2 != "" {
		parts = append(parts, a.Line2)
	}
	parts = append(parts, a.City)
	if a.State != "" {
		parts = append(parts, a.State)
	}
	parts = append(parts, a.PostalCode, a.Country)
	return strings.Join(parts, ", ")
}
