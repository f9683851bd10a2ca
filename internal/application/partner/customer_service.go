package partner

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/partner"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CustomerService manages the customer profile of the signed-in user
type CustomerService struct {
	customers partner.CustomerRepository
	logger    *zap.Logger
}

// NewCustomerService creates a new CustomerService
func NewCustomerService(customers partner.CustomerRepository, logger *zap.Logger) *CustomerService {
	return &CustomerService{customers: customers, logger: logger}
}

// GetProfile returns the profile of the customer user
func (s *CustomerService) GetProfile(ctx context.Context, userID uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

// UpdateProfile replaces name, phone and optionally the default address
func (s *CustomerService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateCustomerProfileRequest) (*CustomerResponse, error) {
	customer, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := customer.UpdateProfile(req.FirstName, req.LastName, req.Phone); err != nil {
		return nil, err
	}

	switch {
	case req.DefaultAddress != nil:
		addr, err := req.DefaultAddress.ToAddress()
		if err != nil {
			return nil, err
		}
		if err := customer.SetDefaultAddress(&addr); err != nil {
			return nil, err
		}
	case req.ClearDefaultAddress:
		if err := customer.SetDefaultAddress(nil); err != nil {
			return nil, err
		}
	}

	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Customer profile updated", zap.String("customer_id", customer.ID.String()))
	resp := ToCustomerResponse(customer)
	return &resp, nil
}

func (s *CustomerService) find(ctx context.Context, userID uuid.UUID) (*partner.Customer, error) {
	customer, err := s.customers.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Customer profile not found")
		}
		return nil, err
	}
	return customer, nil
}
