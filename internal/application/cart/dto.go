package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/shopspring/decimal"
)

// AddCartItemRequest adds a product to the cart
type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1,max=99"`
}

// UpdateCartItemRequest sets a line quantity; zero removes the line
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"min=0,max=99"`
}

// ApplyCouponRequest applies a coupon code to the cart
type ApplyCouponRequest struct {
	Code string `json:"code" binding:"required,max=50"`
}

// CartItemResponse is one cart line
type CartItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	BrandID   uuid.UUID       `json:"brand_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// AppliedCouponResponse is the coupon attached to a cart
type AppliedCouponResponse struct {
	Code       string          `json:"code"`
	PercentOff decimal.Decimal `json:"percent_off"`
}

// CartResponse is the customer's cart with computed totals
type CartResponse struct {
	ID        uuid.UUID              `json:"id"`
	Items     []CartItemResponse     `json:"items"`
	ItemCount int                    `json:"item_count"`
	Coupon    *AppliedCouponResponse `json:"coupon,omitempty"`
	Subtotal  decimal.Decimal        `json:"subtotal"`
	Discount  decimal.Decimal        `json:"discount"`
	Total     decimal.Decimal        `json:"total"`
	UpdatedAt time.Time              `json:"updated_at"`
}

// ToCartResponse converts a domain cart
func ToCartResponse(c *cart.Cart) CartResponse {
	items := make([]CartItemResponse, len(c.Items))
	for i, item := range c.Items {
		items[i] = CartItemResponse{
			ProductID: item.ProductID,
			BrandID:   item.BrandID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		}
	}
	resp := CartResponse{
		ID:        c.ID,
		Items:     items,
		ItemCount: c.ItemCount(),
		Subtotal:  c.Subtotal,
		Discount:  c.Discount,
		Total:     c.Total,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Coupon != nil {
		resp.Coupon = &AppliedCouponResponse{Code: c.Coupon.Code, PercentOff: c.Coupon.PercentOff}
	}
	return resp
}

// CreateCouponRequest is the admin payload for a new coupon
type CreateCouponRequest struct {
	Code           string          `json:"code" binding:"required,min=1,max=50"`
	PercentOff     decimal.Decimal `json:"percent_off"`
	MinSubtotal    decimal.Decimal `json:"min_subtotal"`
	ExpiresAt      *time.Time      `json:"expires_at"`
	MaxRedemptions int             `json:"max_redemptions" binding:"min=0"`
}

// CouponListFilter holds query parameters for the admin coupon list
type CouponListFilter struct {
	Search   string `form:"search"`
	Active   *bool  `form:"active"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// CouponResponse is the admin view of a coupon
type CouponResponse struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	PercentOff     decimal.Decimal `json:"percent_off"`
	MinSubtotal    decimal.Decimal `json:"min_subtotal"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	MaxRedemptions int             `json:"max_redemptions"`
	Redemptions    int             `json:"redemptions"`
	Active         bool            `json:"active"`
	CreatedAt      time.Time       `json:"created_at"`
}

// ToCouponResponse converts a domain coupon
func ToCouponResponse(c *cart.Coupon) CouponResponse {
	return CouponResponse{
		ID:             c.ID,
		Code:           c.Code,
		PercentOff:     c.PercentOff,
		MinSubtotal:    c.MinSubtotal,
		ExpiresAt:      c.ExpiresAt,
		MaxRedemptions: c.MaxRedemptions,
		Redemptions:    c.Redemptions,
		Active:         c.Active,
		CreatedAt:      c.CreatedAt,
	}
}
