package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/application/cart"
)

// CartHandler handles the signed-in customer's cart
type CartHandler struct {
	BaseHandler
	cartService *cart.CartService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService *cart.CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
	}
}

// Get returns the cart with computed totals
func (h *CartHandler) Get(c *gin.Context) {
	customerID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	result, err := h.cartService.Get(c.Request.Context(), customerID)
	h.respond(c, result, err)
}

// AddItem adds a product or increases its quantity
func (h *CartHandler) AddItem(c *gin.Context) {
	customerID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req cart.AddCartItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.cartService.AddItem(c.Request.Context(), customerID, req)
	h.respond(c, result, err)
}

// UpdateItem sets a line's quantity; zero removes it
func (h *CartHandler) UpdateItem(c *gin.Context) {
	customerID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "product_id")
	if !ok {
		return
	}
	var req cart.UpdateCartItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.cartService.UpdateItem(c.Request.Context(), customerID, productID, req)
	h.respond(c, result, err)
}

// RemoveItem deletes a line
func (h *CartHandler) RemoveItem(c *gin.Context) {
	customerID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "product_id")
	if !ok {
		return
	}

	result, err := h.cartService.RemoveItem(c.Request.Context(), customerID, productID)
	h.respond(c, result, err)
}

// Clear empties the cart and drops its coupon
func (h *CartHandler) Clear(c *gin.Context) {
	customerID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	result, err := h.cartService.Clear(c.Request.Context(), customerID)
	h.respond(c, result, err)
}

// ApplyCoupon attaches a coupon code
func (h *CartHandler) ApplyCoupon(c *gin.Context) {
	customerID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req cart.ApplyCouponRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.cartService.ApplyCoupon(c.Request.Context(), customerID, req)
	h.respond(c, result, err)
}

// RemoveCoupon detaches the coupon
func (h *CartHandler) RemoveCoupon(c *gin.Context) {
	customerID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	result, err := h.cartService.RemoveCoupon(c.Request.Context(), customerID)
	h.respond(c, result, err)
}

func (h *CartHandler) respond(c *gin.Context, result *cart.CartResponse, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
