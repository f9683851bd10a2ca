package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/application/order"
	"github.com/marketplace/backend/internal/domain/identity"
	domainorder "github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
)

// OrderHandler handles checkout and the order lifecycle for customers, brands and admins
type OrderHandler struct {
	BaseHandler
	orderService *order.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *order.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// actor resolves the caller into the principal used for order access checks
func (h *OrderHandler) actor(c *gin.Context) (domainorder.Actor, bool) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return domainorder.Actor{}, false
	}
	actor, err := h.orderService.ResolveActor(c.Request.Context(), userID, identity.Role(middleware.GetJWTRole(c)))
	if err != nil {
		h.HandleError(c, err)
		return domainorder.Actor{}, false
	}
	return actor, true
}

// brandID resolves the caller's brand
func (h *OrderHandler) brandID(c *gin.Context) (uuid.UUID, bool) {
	actor, ok := h.actor(c)
	if !ok {
		return uuid.Nil, false
	}
	return actor.BrandID, true
}

// Checkout places one order per brand from the cart
func (h *OrderHandler) Checkout(c *gin.Context) {
	customerID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req order.CheckoutRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	result, err := h.orderService.Checkout(c.Request.Context(), customerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ListMine returns the caller's orders
func (h *OrderHandler) ListMine(c *gin.Context) {
	customerID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var filter order.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.orderService.ListForCustomer(c.Request.Context(), customerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(&h.BaseHandler, c, page)
}

// Get returns an order visible to the caller
func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.orderService.Get(c.Request.Context(), actor, orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Cancel cancels the caller's order and restores stock
func (h *OrderHandler) Cancel(c *gin.Context) {
	customerID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req order.CancelOrderRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	result, err := h.orderService.Cancel(c.Request.Context(), customerID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Return marks the caller's delivered order as returned
func (h *OrderHandler) Return(c *gin.Context) {
	customerID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req order.ReturnOrderRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	result, err := h.orderService.Return(c.Request.Context(), customerID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListForBrand returns orders placed with the caller's brand
func (h *OrderHandler) ListForBrand(c *gin.Context) {
	brandID, ok := h.brandID(c)
	if !ok {
		return
	}
	var filter order.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.orderService.ListForBrand(c.Request.Context(), brandID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(&h.BaseHandler, c, page)
}

// SalesSummary returns the caller's order counts and revenue per status
func (h *OrderHandler) SalesSummary(c *gin.Context) {
	brandID, ok := h.brandID(c)
	if !ok {
		return
	}

	summary, err := h.orderService.SalesSummary(c.Request.Context(), brandID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// UpdateStatus moves an order along the lifecycle on behalf of a brand or an admin
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req order.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	result, err := h.orderService.UpdateStatus(c.Request.Context(), actor, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
