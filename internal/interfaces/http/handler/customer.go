package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/application/partner"
)

// CustomerHandler serves the signed-in customer's profile
type CustomerHandler struct {
	BaseHandler
	customerService *partner.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *partner.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

// GetProfile returns the caller's customer profile
func (h *CustomerHandler) GetProfile(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	profile, err := h.customerService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}

// UpdateProfile replaces the caller's name, phone and default address
func (h *CustomerHandler) UpdateProfile(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req partner.UpdateCustomerProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	profile, err := h.customerService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, profile)
}
