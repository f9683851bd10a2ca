package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Per-line quantity bounds
const (
	MinItemQuantity = 1
	MaxItemQuantity = 99
)

// AggregateTypeCart is the aggregate type name for carts
const AggregateTypeCart = "Cart"

// CartItem is a product line inside a cart
type CartItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	BrandID   uuid.UUID       `json:"brand_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// AppliedCoupon is the coupon snapshot held by a cart
type AppliedCoupon struct {
	Code       string          `json:"code"`
	PercentOff decimal.Decimal `json:"percent_off"`
}

// BrandItems groups cart lines sold by one brand
type BrandItems struct {
	BrandID uuid.UUID
	Items   []CartItem
}

// Cart holds a customer's pending purchase. CustomerID is the customer's user id.
type Cart struct {
	shared.BaseAggregateRoot
	CustomerID uuid.UUID
	Items      []CartItem
	Coupon     *AppliedCoupon
	Subtotal   decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
}

// NewCart creates an empty cart for customerID
func NewCart(customerID uuid.UUID) *Cart {
	return &Cart{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Items:             make([]CartItem, 0),
		Subtotal:          decimal.Zero,
		Discount:          decimal.Zero,
		Total:             decimal.Zero,
	}
}

// AddItem adds quantity of a product, merging with an existing line
// for the same product. The line takes the latest unit price.
func (c *Cart) AddItem(productID, brandID uuid.UUID, name string, unitPrice decimal.Decimal, quantity int) error {
	if productID == uuid.Nil || brandID == uuid.Nil {
		return shared.NewDomainError("INVALID_PRODUCT", "Product and brand are required")
	}
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	if err := valueobject.ValidatePrice(unitPrice); err != nil {
		return err
	}

	if idx := c.indexOf(productID); idx >= 0 {
		merged := c.Items[idx].Quantity + quantity
		if err := validateQuantity(merged); err != nil {
			return err
		}
		c.Items[idx].Quantity = merged
		c.Items[idx].UnitPrice = unitPrice
		c.Items[idx].Name = name
	} else {
		c.Items = append(c.Items, CartItem{
			ProductID: productID,
			BrandID:   brandID,
			Name:      name,
			UnitPrice: unitPrice,
			Quantity:  quantity,
		})
	}
	c.changed()
	return nil
}

// UpdateItemQuantity sets a line's quantity; zero removes the line
func (c *Cart) UpdateItemQuantity(productID uuid.UUID, quantity int) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return shared.NewDomainError("CART_ITEM_NOT_FOUND", "Product is not in the cart")
	}
	if quantity == 0 {
		c.removeAt(idx)
		c.changed()
		return nil
	}
	if err := validateQuantity(quantity); err != nil {
		return err
	}
	c.Items[idx].Quantity = quantity
	c.changed()
	return nil
}

// RemoveItem removes a product line
func (c *Cart) RemoveItem(productID uuid.UUID) error {
	idx := c.indexOf(productID)
	if idx < 0 {
		return shared.NewDomainError("CART_ITEM_NOT_FOUND", "Product is not in the cart")
	}
	c.removeAt(idx)
	c.changed()
	return nil
}

// Clear empties the cart and drops any coupon
func (c *Cart) Clear() {
	c.Items = make([]CartItem, 0)
	c.Coupon = nil
	c.changed()
}

// ApplyCoupon attaches a coupon after checking it against the current subtotal
func (c *Cart) ApplyCoupon(coupon *Coupon, now time.Time) error {
	if c.IsEmpty() {
		return shared.NewDomainError("CART_EMPTY", "Cannot apply a coupon to an empty cart")
	}
	if err := coupon.CheckApplicable(c.Subtotal, now); err != nil {
		return err
	}
	c.Coupon = &AppliedCoupon{Code: coupon.Code, PercentOff: coupon.PercentOff}
	c.changed()
	return nil
}

// RemoveCoupon detaches the coupon
func (c *Cart) RemoveCoupon() error {
	if c.Coupon == nil {
		return shared.NewDomainError("NO_COUPON", "No coupon applied")
	}
	c.Coupon = nil
	c.changed()
	return nil
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemCount returns the total number of units
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// ItemsByBrand groups lines per brand in first-seen order
func (c *Cart) ItemsByBrand() []BrandItems {
	groups := make([]BrandItems, 0)
	index := make(map[uuid.UUID]int)
	for _, item := range c.Items {
		i, ok := index[item.BrandID]
		if !ok {
			i = len(groups)
			index[item.BrandID] = i
			groups = append(groups, BrandItems{BrandID: item.BrandID})
		}
		groups[i].Items = append(groups[i].Items, item)
	}
	return groups
}

// Recalculate recomputes line totals, subtotal, discount and total
func (c *Cart) Recalculate() {
	lineTotals := make([]decimal.Decimal, len(c.Items))
	for i := range c.Items {
		c.Items[i].LineTotal = valueobject.LineTotal(c.Items[i].UnitPrice, c.Items[i].Quantity)
		lineTotals[i] = c.Items[i].LineTotal
	}
	c.Subtotal = valueobject.SumAmounts(lineTotals...)
	c.Discount = decimal.Zero
	if c.Coupon != nil {
		c.Discount = valueobject.PercentOf(c.Subtotal, c.Coupon.PercentOff)
	}
	c.Total = c.Subtotal.Sub(c.Discount)
}

func (c *Cart) changed() {
	c.Recalculate()
	c.Touch()
	c.IncrementVersion()
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) removeAt(idx int) {
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	if len(c.Items) == 0 {
		c.Coupon = nil
	}
}

func validateQuantity(q int) error {
	if q < MinItemQuantity || q > MaxItemQuantity {
		return shared.NewDomainError("INVALID_QUANTITY", "Quantity must be between 1 and 99")
	}
	return nil
}
