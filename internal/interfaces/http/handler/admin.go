package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/application/cart"
	"github.com/marketplace/backend/internal/application/identity"
)

// AdminHandler handles brand invitations, coupons and user moderation
type AdminHandler struct {
	BaseHandler
	invitationService *identity.InvitationService
	userService       *identity.UserService
	couponService     *cart.CouponService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	invitationService *identity.InvitationService,
	userService *identity.UserService,
	couponService *cart.CouponService,
) *AdminHandler {
	return &AdminHandler{
		invitationService: invitationService,
		userService:       userService,
		couponService:     couponService,
	}
}

// CreateInvitation invites a brand and mails the registration link
func (h *AdminHandler) CreateInvitation(c *gin.Context) {
	adminID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req identity.CreateInvitationRequest
	if !h.bindJSON(c, &req) {
		return
	}

	invitation, err := h.invitationService.Invite(c.Request.Context(), adminID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invitation)
}

// ListInvitations returns invitations, optionally filtered by state
func (h *AdminHandler) ListInvitations(c *gin.Context) {
	var filter identity.InvitationListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.invitationService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(&h.BaseHandler, c, page)
}

// RevokeInvitation deletes an unused invitation
func (h *AdminHandler) RevokeInvitation(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.invitationService.Revoke(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateCoupon creates a percentage coupon
func (h *AdminHandler) CreateCoupon(c *gin.Context) {
	var req cart.CreateCouponRequest
	if !h.bindJSON(c, &req) {
		return
	}

	coupon, err := h.couponService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, coupon)
}

// ListCoupons returns coupons
func (h *AdminHandler) ListCoupons(c *gin.Context) {
	var filter cart.CouponListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.couponService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(&h.BaseHandler, c, page)
}

// DeleteCoupon removes a coupon, or deactivates it once redeemed
func (h *AdminHandler) DeleteCoupon(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.couponService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListUsers returns user accounts
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var filter identity.UserListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.userService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(&h.BaseHandler, c, page)
}

// UpdateUserStatus activates or deactivates an account
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	adminID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	userID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req identity.UpdateUserStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateStatus(c.Request.Context(), adminID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, user)
}
