package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/partner"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CartService manages the signed-in customer's cart. Stock is checked but
// not reserved; reservation happens at checkout.
type CartService struct {
	carts    cart.CartRepository
	coupons  cart.CouponRepository
	products catalog.ProductRepository
	brands   partner.BrandRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewCartService creates a new CartService
func NewCartService(
	carts cart.CartRepository,
	coupons cart.CouponRepository,
	products catalog.ProductRepository,
	brands partner.BrandRepository,
	logger *zap.Logger,
) *CartService {
	return &CartService{
		carts:    carts,
		coupons:  coupons,
		products: products,
		brands:   brands,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns the customer's cart, empty when none was saved yet
func (s *CartService) Get(ctx context.Context, customerID uuid.UUID) (*CartResponse, error) {
	c, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	resp := ToCartResponse(c)
	return &resp, nil
}

// AddItem adds a product at its current price. The merged quantity must not exceed stock.
func (s *CartService) AddItem(ctx context.Context, customerID uuid.UUID, req AddCartItemRequest) (*CartResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cart", "add_item",
		telemetry.SpanAttrCustomerID, customerID.String(),
		telemetry.SpanAttrProductID, req.ProductID.String(),
		telemetry.SpanAttrQuantity, req.Quantity)
	defer span.End()

	c, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	product, err := s.purchasableProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	wanted := req.Quantity + quantityOf(c, product.ID)
	if !product.HasStock(wanted) {
		return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
			fmt.Sprintf("Only %d of %s in stock", product.Stock, product.Name))
	}

	if err := c.AddItem(product.ID, product.BrandID, product.Name, product.Price, req.Quantity); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

// UpdateItem sets the quantity of a line; zero removes it
func (s *CartService) UpdateItem(ctx context.Context, customerID, productID uuid.UUID, req UpdateCartItemRequest) (*CartResponse, error) {
	c, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if req.Quantity > 0 {
		product, err := s.purchasableProduct(ctx, productID)
		if err != nil {
			return nil, err
		}
		if !product.HasStock(req.Quantity) {
			return nil, shared.NewDomainError("INSUFFICIENT_STOCK",
				fmt.Sprintf("Only %d of %s in stock", product.Stock, product.Name))
		}
	}
	if err := c.UpdateItemQuantity(productID, req.Quantity); err != nil {
		return nil, err
	}
	if err := s.dropInapplicableCoupon(ctx, c); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

// RemoveItem removes a line
func (s *CartService) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*CartResponse, error) {
	c, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := c.RemoveItem(productID); err != nil {
		return nil, err
	}
	if err := s.dropInapplicableCoupon(ctx, c); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

// Clear empties the cart
func (s *CartService) Clear(ctx context.Context, customerID uuid.UUID) (*CartResponse, error) {
	c, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() && c.Coupon == nil {
		resp := ToCartResponse(c)
		return &resp, nil
	}
	c.Clear()
	return s.save(ctx, c)
}

// ApplyCoupon attaches a coupon after checking it against the current subtotal
func (s *CartService) ApplyCoupon(ctx context.Context, customerID uuid.UUID, req ApplyCouponRequest) (*CartResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cart", "apply_coupon",
		telemetry.SpanAttrCustomerID, customerID.String(),
		telemetry.SpanAttrCouponCode, cart.NormalizeCode(req.Code))
	defer span.End()

	c, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	coupon, err := s.coupons.FindByCode(ctx, cart.NormalizeCode(req.Code))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(cart.CodeCouponNotFound, "Coupon not found")
		}
		return nil, err
	}
	if err := c.ApplyCoupon(coupon, s.now()); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

// RemoveCoupon detaches the coupon
func (s *CartService) RemoveCoupon(ctx context.Context, customerID uuid.UUID) (*CartResponse, error) {
	c, err := s.load(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := c.RemoveCoupon(); err != nil {
		return nil, err
	}
	return s.save(ctx, c)
}

func (s *CartService) load(ctx context.Context, customerID uuid.UUID) (*cart.Cart, error) {
	c, err := s.carts.FindByCustomerID(ctx, customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return cart.NewCart(customerID), nil
		}
		return nil, err
	}
	return c, nil
}

func (s *CartService) save(ctx context.Context, c *cart.Cart) (*CartResponse, error) {
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	logger.L(ctx).Debug("Cart saved",
		zap.String("cart_id", c.ID.String()),
		zap.Int("items", len(c.Items)))
	resp := ToCartResponse(c)
	return &resp, nil
}

// purchasableProduct loads a product that is listed and sold by an active brand
func (s *CartService) purchasableProduct(ctx context.Context, productID uuid.UUID) (*catalog.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Product not found")
		}
		return nil, err
	}
	if !product.Active {
		return nil, shared.NewDomainError("INVALID_STATE", "Product is not available")
	}
	brand, err := s.brands.FindByID(ctx, product.BrandID)
	if err != nil {
		return nil, err
	}
	if !brand.IsActive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Brand is not currently selling")
	}
	return product, nil
}

// dropInapplicableCoupon detaches a coupon that is gone or whose rules the
// cart no longer meets. Lookup failures are returned and leave the cart as is.
func (s *CartService) dropInapplicableCoupon(ctx context.Context, c *cart.Cart) error {
	if c.Coupon == nil {
		return nil
	}
	coupon, err := s.coupons.FindByCode(ctx, c.Coupon.Code)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if err == nil {
		err = coupon.CheckApplicable(c.Subtotal, s.now())
	}
	if err != nil {
		logger.L(ctx).Info("Removing coupon from cart",
			zap.String("code", c.Coupon.Code), zap.Error(err))
		_ = c.RemoveCoupon()
	}
	return nil
}

func quantityOf(c *cart.Cart, productID uuid.UUID) int {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}
