package partner

import (
	"strings"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
)

// Customer is the buyer profile attached to a customer user
type Customer struct {
	shared.BaseAggregateRoot
	UserID         uuid.UUID
	FirstName      string
	LastName       string
	Phone          string
	DefaultAddress *valueobject.Address
}

// NewCustomer creates a customer profile for userID
func NewCustomer(userID uuid.UUID, firstName, lastName string) (*Customer, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User ID cannot be empty")
	}
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if err := validatePersonName(firstName, lastName); err != nil {
		return nil, err
	}
	return &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		UserID:            userID,
		FirstName:         firstName,
		LastName:          lastName,
	}, nil
}

// UpdateProfile replaces the editable profile fields
func (c *Customer) UpdateProfile(firstName, lastName, phone string) error {
	firstName, lastName = strings.TrimSpace(firstName), strings.TrimSpace(lastName)
	if err := validatePersonName(firstName, lastName); err != nil {
		return err
	}
	phone = strings.TrimSpace(phone)
	if len(phone) > 30 {
		return shared.NewDomainError("INVALID_PHONE", "Phone cannot exceed 30 characters")
	}
	c.FirstName = firstName
	c.LastName = lastName
	c.Phone = phone
	c.Touch()
	c.IncrementVersion()
	return nil
}

// SetDefaultAddress sets or clears (nil) the default shipping address
func (c *Customer) SetDefaultAddress(addr *valueobject.Address) error {
	if addr != nil {
		if err := addr.Validate(); err != nil {
			return err
		}
	}
	c.DefaultAddress = addr
	c.Touch()
	c.IncrementVersion()
	return nil
}

// FullName returns first and last name joined
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func validatePersonName(firstName, lastName string) error {
	if firstName == "" {
		return shared.NewDomainError("INVALID_NAME", "First name cannot be empty")
	}
	if len(firstName) > 100 || len(lastName) > 100 {
		return shared.NewDomainError("INVALID_NAME", "Names cannot exceed 100 characters")
	}
	return nil
}
