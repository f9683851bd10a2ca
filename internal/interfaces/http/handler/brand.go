package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/application/partner"
)

// BrandHandler handles storefront, brand profile and brand moderation endpoints
type BrandHandler struct {
	BaseHandler
	brandService *partner.BrandService
}

// NewBrandHandler creates a new BrandHandler
func NewBrandHandler(brandService *partner.BrandService) *BrandHandler {
	return &BrandHandler{
		brandService: brandService,
	}
}

// List returns active brands
func (h *BrandHandler) List(c *gin.Context) {
	h.list(c, true)
}

// AdminList returns brands in any status
func (h *BrandHandler) AdminList(c *gin.Context) {
	h.list(c, false)
}

func (h *BrandHandler) list(c *gin.Context, public bool) {
	var filter partner.BrandListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.brandService.List(c.Request.Context(), filter, public)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(&h.BaseHandler, c, page)
}

// Get returns an active brand by id or slug
func (h *BrandHandler) Get(c *gin.Context) {
	brand, err := h.brandService.Get(c.Request.Context(), c.Param("id"), true)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, brand)
}

// GetProfile returns the caller's brand
func (h *BrandHandler) GetProfile(c *gin.Context) {
	ownerID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	brand, err := h.brandService.GetProfile(c.Request.Context(), ownerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, brand)
}

// UpdateProfile replaces the caller's storefront fields
func (h *BrandHandler) UpdateProfile(c *gin.Context) {
	ownerID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	var req partner.UpdateBrandProfileRequest
	if !h.bindJSON(c, &req) {
		return
	}

	brand, err := h.brandService.UpdateProfile(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, brand)
}

// UpdateStatus suspends or reinstates a brand
func (h *BrandHandler) UpdateStatus(c *gin.Context) {
	adminID, ok := h.currentUserID(c)
	if !ok {
		return
	}
	brandID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req partner.UpdateBrandStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	brand, err := h.brandService.UpdateStatus(c.Request.Context(), adminID, brandID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, brand)
}
