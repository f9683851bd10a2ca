package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Order error codes
const (
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeNotOrderOwner     = "NOT_ORDER_OWNER"
)

// ActorRole identifies who requests a status change
type ActorRole string

const (
	ActorCustomer ActorRole = "customer"
	ActorBrand    ActorRole = "brand"
	ActorAdmin    ActorRole = "admin"
)

// Actor is the principal changing an order. BrandID is set for brand actors.
type Actor struct {
	UserID  uuid.UUID
	Role    ActorRole
	BrandID uuid.UUID
}

// OrderItem is a priced line captured at checkout
type OrderItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// StatusChange is one entry of an order's status history
type StatusChange struct {
	From OrderStatus `json:"from"`
	To   OrderStatus `json:"to"`
	At   time.Time   `json:"at"`
	By   uuid.UUID   `json:"by"`
	Note string      `json:"note,omitempty"`
}

// Order is a single brand's share of a checkout
type Order struct {
	shared.BaseAggregateRoot
	OrderNumber     string
	CustomerID      uuid.UUID
	BrandID         uuid.UUID
	Items           []OrderItem
	Subtotal        decimal.Decimal
	CouponCode      string
	PercentOff      decimal.Decimal
	Discount        decimal.Decimal
	Total           decimal.Decimal
	ShippingAddress valueobject.Address
	Status          OrderStatus
	StatusHistory   []StatusChange
	CancelReason    string
	ConfirmedAt     *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	ReturnedAt      *time.Time
	RefundedAt      *time.Time
}

// GenerateOrderNumber returns ORD-YYYYMMDD-XXXXXXXX for the given day
func GenerateOrderNumber(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", at.UTC().Format("20060102"), suffix)
}

// NewOrderItem builds a line priced at unitPrice
func NewOrderItem(productID uuid.UUID, name, sku string, unitPrice decimal.Decimal, quantity int) (OrderItem, error) {
	if productID == uuid.Nil {
		return OrderItem{}, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if quantity <= 0 {
		return OrderItem{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}
	if err := valueobject.ValidatePrice(unitPrice); err != nil {
		return OrderItem{}, err
	}
	return OrderItem{
		ProductID: productID,
		Name:      name,
		SKU:       sku,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		LineTotal: valueobject.LineTotal(unitPrice, quantity),
	}, nil
}

// NewOrder creates a pending order. percentOff is zero when no coupon applies.
func NewOrder(
	customerID, brandID uuid.UUID,
	items []OrderItem,
	shipping valueobject.Address,
	couponCode string,
	percentOff decimal.Decimal,
) (*Order, error) {
	if customerID == uuid.Nil || brandID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER", "Customer and brand are required")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("INVALID_ORDER", "Order must contain at least one item")
	}
	if err := shipping.Validate(); err != nil {
		return nil, err
	}
	if couponCode != "" {
		if err := valueobject.ValidatePercent(percentOff); err != nil {
			return nil, err
		}
	} else {
		percentOff = decimal.Zero
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		BrandID:           brandID,
		Items:             append([]OrderItem(nil), items...),
		CouponCode:        couponCode,
		PercentOff:        percentOff,
		ShippingAddress:   shipping,
		Status:            StatusPending,
		StatusHistory:     make([]StatusChange, 0),
	}
	o.OrderNumber = GenerateOrderNumber(o.CreatedAt)
	o.calculateTotals()
	o.AddDomainEvent(NewOrderPlacedEvent(o))
	return o, nil
}

func (o *Order) calculateTotals() {
	lineTotals := make([]decimal.Decimal, len(o.Items))
	for i, item := range o.Items {
		lineTotals[i] = item.LineTotal
	}
	o.Subtotal = valueobject.SumAmounts(lineTotals...)
	o.Discount = decimal.Zero
	if o.CouponCode != "" {
		o.Discount = valueobject.PercentOf(o.Subtotal, o.PercentOff)
	}
	o.Total = o.Subtotal.Sub(o.Discount)
}

// CheckOwner verifies actor is the admin, the ordering customer or the
// selling brand
func (o *Order) CheckOwner(actor Actor) error {
	switch actor.Role {
	case ActorAdmin:
		return nil
	case ActorBrand:
		if actor.BrandID != o.BrandID {
			return shared.NewDomainError(CodeNotOrderOwner, "Order does not belong to this brand")
		}
		return nil
	case ActorCustomer:
		if actor.UserID != o.CustomerID {
			return shared.NewDomainError(CodeNotOrderOwner, "Order does not belong to this customer")
		}
		return nil
	}
	return shared.NewDomainError("FORBIDDEN", "Unknown actor")
}

// CheckActor verifies actor may move the order to target
func (o *Order) CheckActor(actor Actor, target OrderStatus) error {
	if err := o.CheckOwner(actor); err != nil {
		return err
	}
	if actor.Role != ActorCustomer {
		return nil
	}
	switch {
	case target == StatusCancelled && (o.Status == StatusPending || o.Status == StatusConfirmed):
		return nil
	case target == StatusReturned && o.Status == StatusDelivered:
		return nil
	case target == StatusCancelled || target == StatusReturned:
		return o.transitionError(target)
	}
	return shared.NewDomainError("FORBIDDEN", "Customers may only cancel or return orders")
}

// TransitionTo moves the order to target, recording history and milestones
func (o *Order) TransitionTo(target OrderStatus, by uuid.UUID, note string) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+string(target))
	}
	if !o.Status.CanTransitionTo(target) {
		return o.transitionError(target)
	}

	now := time.Now()
	from := o.Status
	o.Status = target
	o.StatusHistory = append(o.StatusHistory, StatusChange{From: from, To: target, At: now, By: by, Note: note})

	switch target {
	case StatusConfirmed:
		o.ConfirmedAt = &now
	case StatusShipped:
		o.ShippedAt = &now
	case StatusDelivered:
		o.DeliveredAt = &now
	case StatusCancelled:
		o.CancelledAt = &now
		o.CancelReason = note
	case StatusReturned:
		o.ReturnedAt = &now
	case StatusRefunded:
		o.RefundedAt = &now
	}

	o.UpdatedAt = now
	o.IncrementVersion()
	o.AddDomainEvent(NewOrderStatusChangedEvent(o, from, by, note))
	return nil
}

// ChangeStatus checks actor permission and applies the transition. Ownership
// is checked first so strangers learn nothing about the order's state.
func (o *Order) ChangeStatus(actor Actor, target OrderStatus, note string) error {
	if err := o.CheckOwner(actor); err != nil {
		return err
	}
	if !o.Status.CanTransitionTo(target) {
		if !target.IsValid() {
			return shared.NewDomainError("INVALID_STATUS", "Unknown order status: "+string(target))
		}
		return o.transitionError(target)
	}
	if err := o.CheckActor(actor, target); err != nil {
		return err
	}
	return o.TransitionTo(target, actor.UserID, note)
}

// ItemCount returns the number of units ordered
func (o *Order) ItemCount() int {
	n := 0
	for _, item := range o.Items {
		n += item.Quantity
	}
	return n
}

func (o *Order) transitionError(target OrderStatus) error {
	return shared.NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("Cannot change order status from %s to %s", o.Status, target))
}
