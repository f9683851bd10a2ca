package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/cart"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/partner"
	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockCartRepository is a mock implementation of cart.CartRepository
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) FindByCustomerID(ctx context.Context, customerID uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCartRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockCouponRepository is a mock implementation of cart.CouponRepository
type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) FindByID(ctx context.Context, id uuid.UUID) (*cart.Coupon, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Coupon), args.Error(1)
}

func (m *MockCouponRepository) FindByCode(ctx context.Context, code string) (*cart.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Coupon), args.Error(1)
}

func (m *MockCouponRepository) FindAll(ctx context.Context, filter shared.Filter) ([]cart.Coupon, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]cart.Coupon), args.Error(1)
}

func (m *MockCouponRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCouponRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockCouponRepository) Create(ctx context.Context, coupon *cart.Coupon) error {
	return m.Called(ctx, coupon).Error(0)
}

func (m *MockCouponRepository) Update(ctx context.Context, coupon *cart.Coupon) error {
	return m.Called(ctx, coupon).Error(0)
}

func (m *MockCouponRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCouponRepository) IncrementRedemptions(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ExistsBySKU(ctx context.Context, brandID uuid.UUID, sku string) (bool, error) {
	args := m.Called(ctx, brandID, sku)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	return m.Called(ctx, id, quantity).Error(0)
}

func (m *MockProductRepository) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) error {
	return m.Called(ctx, id, quantity).Error(0)
}

// MockBrandRepository is a mock implementation of partner.BrandRepository
type MockBrandRepository struct {
	mock.Mock
}

func (m *MockBrandRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Brand, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Brand), args.Error(1)
}

func (m *MockBrandRepository) FindByOwnerID(ctx context.Context, ownerID uuid.UUID) (*partner.Brand, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Brand), args.Error(1)
}

func (m *MockBrandRepository) FindBySlug(ctx context.Context, slug string) (*partner.Brand, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Brand), args.Error(1)
}

func (m *MockBrandRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Brand, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Brand), args.Error(1)
}

func (m *MockBrandRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBrandRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockBrandRepository) Create(ctx context.Context, brand *partner.Brand) error {
	return m.Called(ctx, brand).Error(0)
}

func (m *MockBrandRepository) Update(ctx context.Context, brand *partner.Brand) error {
	return m.Called(ctx, brand).Error(0)
}

func (m *MockBrandRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type cartFixture struct {
	carts      *MockCartRepository
	coupons    *MockCouponRepository
	products   *MockProductRepository
	brands     *MockBrandRepository
	service    *CartService
	customerID uuid.UUID
	brand      *partner.Brand
	now        time.Time
}

func newCartFixture(t *testing.T) *cartFixture {
	t.Helper()
	brand, err := partner.NewBrand(uuid.New(), "Acme", "")
	require.NoError(t, err)

	f := &cartFixture{
		carts:      new(MockCartRepository),
		coupons:    new(MockCouponRepository),
		products:   new(MockProductRepository),
		brands:     new(MockBrandRepository),
		customerID: uuid.New(),
		brand:      brand,
		now:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	f.brands.On("FindByID", mock.Anything, brand.ID).Return(brand, nil).Maybe()
	f.service = NewCartService(f.carts, f.coupons, f.products, f.brands, zap.NewNop())
	f.service.now = func() time.Time { return f.now }
	return f
}

func (f *cartFixture) product(t *testing.T, price string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(f.brand.ID, "Anvil", "ANV-"+uuid.NewString()[:8], decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	p.ClearDomainEvents()
	f.products.On("FindByID", mock.Anything, p.ID).Return(p, nil).Maybe()
	return p
}

func (f *cartFixture) noCart() {
	f.carts.On("FindByCustomerID", mock.Anything, f.customerID).Return(nil, shared.ErrNotFound)
}

func (f *cartFixture) existingCart(t *testing.T, lines ...*catalog.Product) *cart.Cart {
	t.Helper()
	c := cart.NewCart(f.customerID)
	for _, p := range lines {
		require.NoError(t, c.AddItem(p.ID, p.BrandID, p.Name, p.Price, 1))
	}
	c.MarkPersisted()
	f.carts.On("FindByCustomerID", mock.Anything, f.customerID).Return(c, nil)
	return c
}

func (f *cartFixture) expectSave() {
	f.carts.On("Save", mock.Anything, mock.AnythingOfType("*cart.Cart")).Return(nil)
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	return domainErr.Code
}

func TestCartService_Get_NoCartYet(t *testing.T) {
	f := newCartFixture(t)
	f.noCart()

	resp, err := f.service.Get(context.Background(), f.customerID)

	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.True(t, resp.Total.IsZero())
	f.carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCartService_Get_RepositoryError(t *testing.T) {
	f := newCartFixture(t)
	f.carts.On("FindByCustomerID", mock.Anything, f.customerID).Return(nil, errors.New("connection reset"))

	_, err := f.service.Get(context.Background(), f.customerID)

	assert.EqualError(t, err, "connection reset")
}

func TestCartService_AddItem(t *testing.T) {
	f := newCartFixture(t)
	p := f.product(t, "19.99", 10)
	f.noCart()
	f.expectSave()

	resp, err := f.service.AddItem(context.Background(), f.customerID, AddCartItemRequest{ProductID: p.ID, Quantity: 3})

	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 3, resp.ItemCount)
	assert.Equal(t, f.brand.ID, resp.Items[0].BrandID)
	assert.True(t, resp.Subtotal.Equal(decimal.RequireFromString("59.97")))
	assert.True(t, resp.Total.Equal(resp.Subtotal))
	f.carts.AssertExpectations(t)
}

func TestCartService_AddItem_MergesAgainstStock(t *testing.T) {
	f := newCartFixture(t)
	p := f.product(t, "5.00", 3)
	f.existingCart(t, p)
	f.expectSave()

	resp, err := f.service.AddItem(context.Background(), f.customerID, AddCartItemRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Items[0].Quantity)

	_, err = f.service.AddItem(context.Background(), f.customerID, AddCartItemRequest{ProductID: p.ID, Quantity: 1})
	assert.Equal(t, "INSUFFICIENT_STOCK", errCode(t, err))
}

func TestCartService_AddItem_Rejections(t *testing.T) {
	t.Run("unknown product", func(t *testing.T) {
		f := newCartFixture(t)
		f.noCart()
		id := uuid.New()
		f.products.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := f.service.AddItem(context.Background(), f.customerID, AddCartItemRequest{ProductID: id, Quantity: 1})

		assert.Equal(t, "NOT_FOUND", errCode(t, err))
	})

	t.Run("inactive product", func(t *testing.T) {
		f := newCartFixture(t)
		f.noCart()
		p := f.product(t, "5.00", 3)
		p.SetActive(false)

		_, err := f.service.AddItem(context.Background(), f.customerID, AddCartItemRequest{ProductID: p.ID, Quantity: 1})

		assert.Equal(t, "INVALID_STATE", errCode(t, err))
	})

	t.Run("suspended brand", func(t *testing.T) {
		f := newCartFixture(t)
		f.noCart()
		p := f.product(t, "5.00", 3)
		require.NoError(t, f.brand.Suspend())

		_, err := f.service.AddItem(context.Background(), f.customerID, AddCartItemRequest{ProductID: p.ID, Quantity: 1})

		assert.Equal(t, "INVALID_STATE", errCode(t, err))
	})

	t.Run("out of stock", func(t *testing.T) {
		f := newCartFixture(t)
		f.noCart()
		p := f.product(t, "5.00", 0)

		_, err := f.service.AddItem(context.Background(), f.customerID, AddCartItemRequest{ProductID: p.ID, Quantity: 1})

		assert.Equal(t, "INSUFFICIENT_STOCK", errCode(t, err))
	})

	t.Run("nothing saved on rejection", func(t *testing.T) {
		f := newCartFixture(t)
		f.noCart()
		p := f.product(t, "5.00", 0)

		_, _ = f.service.AddItem(context.Background(), f.customerID, AddCartItemRequest{ProductID: p.ID, Quantity: 1})

		f.carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestCartService_UpdateItem(t *testing.T) {
	t.Run("sets quantity", func(t *testing.T) {
		f := newCartFixture(t)
		p := f.product(t, "2.50", 10)
		f.existingCart(t, p)
		f.expectSave()

		resp, err := f.service.UpdateItem(context.Background(), f.customerID, p.ID, UpdateCartItemRequest{Quantity: 4})

		require.NoError(t, err)
		assert.True(t, resp.Subtotal.Equal(decimal.NewFromInt(10)))
	})

	t.Run("zero removes the line without a product lookup", func(t *testing.T) {
		f := newCartFixture(t)
		p := f.product(t, "2.50", 10)
		f.existingCart(t, p)
		f.expectSave()

		resp, err := f.service.UpdateItem(context.Background(), f.customerID, p.ID, UpdateCartItemRequest{Quantity: 0})

		require.NoError(t, err)
		assert.Empty(t, resp.Items)
		f.products.AssertNotCalled(t, "FindByID", mock.Anything, p.ID)
	})

	t.Run("above stock", func(t *testing.T) {
		f := newCartFixture(t)
		p := f.product(t, "2.50", 2)
		f.existingCart(t, p)

		_, err := f.service.UpdateItem(context.Background(), f.customerID, p.ID, UpdateCartItemRequest{Quantity: 3})

		assert.Equal(t, "INSUFFICIENT_STOCK", errCode(t, err))
	})

	t.Run("line not in cart", func(t *testing.T) {
		f := newCartFixture(t)
		p := f.product(t, "2.50", 2)
		f.existingCart(t)

		_, err := f.service.UpdateItem(context.Background(), f.customerID, p.ID, UpdateCartItemRequest{Quantity: 1})

		assert.Equal(t, "CART_ITEM_NOT_FOUND", errCode(t, err))
	})
}

func TestCartService_RemoveItem_DropsCouponBelowMinimum(t *testing.T) {
	f := newCartFixture(t)
	cheap := f.product(t, "10.00", 5)
	pricey := f.product(t, "90.00", 5)
	c := f.existingCart(t, cheap, pricey)

	coupon, err := cart.NewCoupon("SAVE10", decimal.NewFromInt(10), decimal.NewFromInt(50), nil, 0)
	require.NoError(t, err)
	require.NoError(t, c.ApplyCoupon(coupon, f.now))
	f.coupons.On("FindByCode", mock.Anything, "SAVE10").Return(coupon, nil)
	f.expectSave()

	resp, err := f.service.RemoveItem(context.Background(), f.customerID, pricey.ID)

	require.NoError(t, err)
	assert.Nil(t, resp.Coupon)
	assert.True(t, resp.Discount.IsZero())
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(10)))
}

func TestCartService_RemoveItem_CouponLookupFailure(t *testing.T) {
	f := newCartFixture(t)
	cheap := f.product(t, "10.00", 5)
	pricey := f.product(t, "90.00", 5)
	c := f.existingCart(t, cheap, pricey)

	coupon, err := cart.NewCoupon("SAVE10", decimal.NewFromInt(10), decimal.NewFromInt(50), nil, 0)
	require.NoError(t, err)
	require.NoError(t, c.ApplyCoupon(coupon, f.now))
	f.coupons.On("FindByCode", mock.Anything, "SAVE10").Return(nil, errors.New("connection reset by peer"))

	_, err = f.service.RemoveItem(context.Background(), f.customerID, pricey.ID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	require.NotNil(t, c.Coupon)
	assert.Equal(t, "SAVE10", c.Coupon.Code)
	f.carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCartService_UpdateItem_DropsDeletedCoupon(t *testing.T) {
	f := newCartFixture(t)
	p := f.product(t, "60.00", 5)
	c := f.existingCart(t, p)

	coupon, err := cart.NewCoupon("GONE", decimal.NewFromInt(10), decimal.Zero, nil, 0)
	require.NoError(t, err)
	require.NoError(t, c.ApplyCoupon(coupon, f.now))
	f.coupons.On("FindByCode", mock.Anything, "GONE").Return(nil, shared.ErrNotFound)
	f.expectSave()

	resp, err := f.service.UpdateItem(context.Background(), f.customerID, p.ID, UpdateCartItemRequest{Quantity: 2})

	require.NoError(t, err)
	assert.Nil(t, resp.Coupon)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(120)))
}

func TestCartService_Clear(t *testing.T) {
	t.Run("empties a cart", func(t *testing.T) {
		f := newCartFixture(t)
		p := f.product(t, "3.00", 5)
		f.existingCart(t, p)
		f.expectSave()

		resp, err := f.service.Clear(context.Background(), f.customerID)

		require.NoError(t, err)
		assert.Empty(t, resp.Items)
		f.carts.AssertExpectations(t)
	})

	t.Run("empty cart is not saved", func(t *testing.T) {
		f := newCartFixture(t)
		f.noCart()

		_, err := f.service.Clear(context.Background(), f.customerID)

		require.NoError(t, err)
		f.carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestCartService_ApplyCoupon(t *testing.T) {
	f := newCartFixture(t)
	p := f.product(t, "40.00", 5)
	f.existingCart(t, p)
	coupon, err := cart.NewCoupon("spring20", decimal.NewFromInt(20), decimal.Zero, nil, 0)
	require.NoError(t, err)
	f.coupons.On("FindByCode", mock.Anything, "SPRING20").Return(coupon, nil)
	f.expectSave()

	resp, err := f.service.ApplyCoupon(context.Background(), f.customerID, ApplyCouponRequest{Code: " spring20 "})

	require.NoError(t, err)
	require.NotNil(t, resp.Coupon)
	assert.Equal(t, "SPRING20", resp.Coupon.Code)
	assert.True(t, resp.Discount.Equal(decimal.NewFromInt(8)))
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(32)))
}

func TestCartService_ApplyCoupon_Rejections(t *testing.T) {
	past := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		coupon   func(t *testing.T) *cart.Coupon
		wantCode string
	}{
		{
			name:     "unknown code",
			coupon:   func(t *testing.T) *cart.Coupon { return nil },
			wantCode: cart.CodeCouponNotFound,
		},
		{
			name: "expired",
			coupon: func(t *testing.T) *cart.Coupon {
				c, err := cart.NewCoupon("CODE", decimal.NewFromInt(10), decimal.Zero, nil, 0)
				require.NoError(t, err)
				c.ExpiresAt = &past
				return c
			},
			wantCode: cart.CodeCouponExpired,
		},
		{
			name: "exhausted",
			coupon: func(t *testing.T) *cart.Coupon {
				c, err := cart.NewCoupon("CODE", decimal.NewFromInt(10), decimal.Zero, nil, 1)
				require.NoError(t, err)
				c.Redemptions = 1
				return c
			},
			wantCode: cart.CodeCouponExhausted,
		},
		{
			name: "minimum not met",
			coupon: func(t *testing.T) *cart.Coupon {
				c, err := cart.NewCoupon("CODE", decimal.NewFromInt(10), decimal.NewFromInt(500), nil, 0)
				require.NoError(t, err)
				return c
			},
			wantCode: cart.CodeCouponMinimumNotMet,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCartFixture(t)
			p := f.product(t, "40.00", 5)
			f.existingCart(t, p)
			if coupon := tt.coupon(t); coupon != nil {
				f.coupons.On("FindByCode", mock.Anything, "CODE").Return(coupon, nil)
			} else {
				f.coupons.On("FindByCode", mock.Anything, "CODE").Return(nil, shared.ErrNotFound)
			}

			_, err := f.service.ApplyCoupon(context.Background(), f.customerID, ApplyCouponRequest{Code: "code"})

			assert.Equal(t, tt.wantCode, errCode(t, err))
			f.carts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}

func TestCartService_ApplyCoupon_EmptyCart(t *testing.T) {
	f := newCartFixture(t)
	f.noCart()
	coupon, err := cart.NewCoupon("CODE", decimal.NewFromInt(10), decimal.Zero, nil, 0)
	require.NoError(t, err)
	f.coupons.On("FindByCode", mock.Anything, "CODE").Return(coupon, nil)

	_, err = f.service.ApplyCoupon(context.Background(), f.customerID, ApplyCouponRequest{Code: "CODE"})

	assert.Equal(t, "CART_EMPTY", errCode(t, err))
}

func TestCartService_RemoveCoupon(t *testing.T) {
	f := newCartFixture(t)
	p := f.product(t, "40.00", 5)
	c := f.existingCart(t, p)

	_, err := f.service.RemoveCoupon(context.Background(), f.customerID)
	assert.Equal(t, "NO_COUPON", errCode(t, err))

	coupon, err := cart.NewCoupon("CODE", decimal.NewFromInt(10), decimal.Zero, nil, 0)
	require.NoError(t, err)
	require.NoError(t, c.ApplyCoupon(coupon, f.now))
	f.expectSave()

	resp, err := f.service.RemoveCoupon(context.Background(), f.customerID)

	require.NoError(t, err)
	assert.Nil(t, resp.Coupon)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(40)))
}

func TestCartService_SaveConflict(t *testing.T) {
	f := newCartFixture(t)
	p := f.product(t, "1.00", 5)
	f.noCart()
	f.carts.On("Save", mock.Anything, mock.Anything).Return(shared.ErrConcurrencyConflict)

	_, err := f.service.AddItem(context.Background(), f.customerID, AddCartItemRequest{ProductID: p.ID, Quantity: 1})

	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}
