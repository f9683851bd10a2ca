package order

import (
	"time"

	"github.com/google/uuid"
	apppartner "github.com/marketplace/backend/internal/application/partner"
	"github.com/marketplace/backend/internal/domain/order"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CheckoutRequest places orders for the cart contents. The customer's default
// address is used when ShippingAddress is omitted.
type CheckoutRequest struct {
	ShippingAddress *apppartner.AddressRequest `json:"shipping_address"`
}

// UpdateStatusRequest moves an order to a new status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note" binding:"max=500"`
}

// CancelOrderRequest is the customer's cancellation payload
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// ReturnOrderRequest is the customer's return payload
type ReturnOrderRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// OrderListFilter holds query parameters for order lists
type OrderListFilter struct {
	Status   string `form:"status"`
	Search   string `form:"search"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by" binding:"omitempty,oneof=created_at total status order_number"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderItemResponse is one ordered line
type OrderItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// StatusChangeResponse is one entry of the status history
type StatusChangeResponse struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	At   time.Time `json:"at"`
	By   uuid.UUID `json:"by"`
	Note string    `json:"note,omitempty"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID              uuid.UUID              `json:"id"`
	OrderNumber     string                 `json:"order_number"`
	CustomerID      uuid.UUID              `json:"customer_id"`
	BrandID         uuid.UUID              `json:"brand_id"`
	Items           []OrderItemResponse    `json:"items"`
	Subtotal        decimal.Decimal        `json:"subtotal"`
	CouponCode      string                 `json:"coupon_code,omitempty"`
	PercentOff      decimal.Decimal        `json:"percent_off"`
	Discount        decimal.Decimal        `json:"discount"`
	Total           decimal.Decimal        `json:"total"`
	ShippingAddress valueobject.Address    `json:"shipping_address"`
	Status          string                 `json:"status"`
	NextStatuses    []string               `json:"next_statuses"`
	StatusHistory   []StatusChangeResponse `json:"status_history"`
	CancelReason    string                 `json:"cancel_reason,omitempty"`
	ConfirmedAt     *time.Time             `json:"confirmed_at,omitempty"`
	ShippedAt       *time.Time             `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time             `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time             `json:"cancelled_at,omitempty"`
	ReturnedAt      *time.Time             `json:"returned_at,omitempty"`
	RefundedAt      *time.Time             `json:"refunded_at,omitempty"`
	Version         int                    `json:"version"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// ToOrderResponse converts a domain order
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			SKU:       item.SKU,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal,
		}
	}
	history := make([]StatusChangeResponse, len(o.StatusHistory))
	for i, change := range o.StatusHistory {
		history[i] = StatusChangeResponse{
			From: string(change.From),
			To:   string(change.To),
			At:   change.At,
			By:   change.By,
			Note: change.Note,
		}
	}
	next := o.Status.NextStatuses()
	nextStatuses := make([]string, len(next))
	for i, s := range next {
		nextStatuses[i] = string(s)
	}

	return OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		BrandID:         o.BrandID,
		Items:           items,
		Subtotal:        o.Subtotal,
		CouponCode:      o.CouponCode,
		PercentOff:      o.PercentOff,
		Discount:        o.Discount,
		Total:           o.Total,
		ShippingAddress: o.ShippingAddress,
		Status:          string(o.Status),
		NextStatuses:    nextStatuses,
		StatusHistory:   history,
		CancelReason:    o.CancelReason,
		ConfirmedAt:     o.ConfirmedAt,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CancelledAt:     o.CancelledAt,
		ReturnedAt:      o.ReturnedAt,
		RefundedAt:      o.RefundedAt,
		Version:         o.Version,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// CheckoutResponse lists the orders created by one checkout, one per brand
type CheckoutResponse struct {
	Orders     []OrderResponse `json:"orders"`
	OrderCount int             `json:"order_count"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// SalesSummaryResponse is a brand's order count and revenue per status
type SalesSummaryResponse struct {
	BrandID      uuid.UUID             `json:"brand_id"`
	ByStatus     []order.StatusSummary `json:"by_status"`
	TotalOrders  int64                 `json:"total_orders"`
	TotalRevenue decimal.Decimal       `json:"total_revenue"`
}
