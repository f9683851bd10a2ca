package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcart "github.com/marketplace/backend/internal/application/cart"
	apporder "github.com/marketplace/backend/internal/application/order"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAddress = map[string]any{
	"line1":       "1 Market Street",
	"city":        "Springfield",
	"postal_code": "12345",
	"country":     "US",
}

// shopRouter mounts the customer, brand and admin order routes for one principal
func shopRouter(env *testEnv, userID uuid.UUID, role identity.Role) *gin.Engine {
	router := engine(asUser(userID, role))
	router.GET("/cart", env.cart.Get)
	router.POST("/cart/items", env.cart.AddItem)
	router.PUT("/cart/items/:product_id", env.cart.UpdateItem)
	router.DELETE("/cart/items/:product_id", env.cart.RemoveItem)
	router.DELETE("/cart", env.cart.Clear)
	router.POST("/cart/coupon", env.cart.ApplyCoupon)
	router.DELETE("/cart/coupon", env.cart.RemoveCoupon)

	router.POST("/orders", env.order.Checkout)
	router.GET("/orders", env.order.ListMine)
	router.GET("/orders/:id", env.order.Get)
	router.POST("/orders/:id/cancel", env.order.Cancel)
	router.POST("/orders/:id/return", env.order.Return)

	router.GET("/brand/orders", env.order.ListForBrand)
	router.GET("/brand/orders/summary", env.order.SalesSummary)
	router.PATCH("/brand/orders/:id/status", env.order.UpdateStatus)
	router.PATCH("/admin/orders/:id/status", env.order.UpdateStatus)

	router.POST("/admin/coupons", env.admin.CreateCoupon)
	return router
}

func addToCart(t *testing.T, router http.Handler, productID uuid.UUID, quantity int) appcart.CartResponse {
	t.Helper()
	w := serve(router, jsonRequest(http.MethodPost, "/cart/items", map[string]any{
		"product_id": productID,
		"quantity":   quantity,
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeData[appcart.CartResponse](t, w)
}

func checkout(t *testing.T, router http.Handler) apporder.CheckoutResponse {
	t.Helper()
	w := serve(router, jsonRequest(http.MethodPost, "/orders", map[string]any{"shipping_address": testAddress}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeData[apporder.CheckoutResponse](t, w)
}

func TestCartHandler_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	customer := env.seedCustomer(t)
	_, brand := env.seedBrand(t)
	shirt := env.seedProduct(t, brand.ID, "10.00", 5)
	router := shopRouter(env, customer.ID, identity.RoleCustomer)

	w := serve(router, jsonRequest(http.MethodGet, "/cart", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeData[appcart.CartResponse](t, w).Items)

	addToCart(t, router, shirt.ID, 2)
	cart := addToCart(t, router, shirt.ID, 1)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
	assert.True(t, cart.Subtotal.Equal(decimal.RequireFromString("30")))

	w = serve(router, jsonRequest(http.MethodPost, "/cart/items", map[string]any{"product_id": shirt.ID, "quantity": 3}))
	assert.Equal(t, http.StatusConflict, w.Code, "6 units exceed the stock of 5")

	itemPath := "/cart/items/" + shirt.ID.String()
	w = serve(router, jsonRequest(http.MethodPut, itemPath, map[string]any{"quantity": 1}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decodeData[appcart.CartResponse](t, w).Total.Equal(decimal.RequireFromString("10")))

	w = serve(router, jsonRequest(http.MethodPut, itemPath, map[string]any{"quantity": 0}))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeData[appcart.CartResponse](t, w).Items)

	w = serve(router, jsonRequest(http.MethodDelete, itemPath, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CART_ITEM_NOT_FOUND", errorCode(t, w))

	w = serve(router, jsonRequest(http.MethodPost, "/cart/items", map[string]any{"product_id": uuid.New(), "quantity": 1}))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, jsonRequest(http.MethodPost, "/cart/items", map[string]any{"product_id": shirt.ID, "quantity": 0}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	addToCart(t, router, shirt.ID, 1)
	w = serve(router, jsonRequest(http.MethodDelete, "/cart", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeData[appcart.CartResponse](t, w).Items)
}

func TestCartHandler_Coupons(t *testing.T) {
	env := newTestEnv(t)
	customer := env.seedCustomer(t)
	admin := env.seedUser(t, identity.RoleAdmin)
	_, brand := env.seedBrand(t)
	product := env.seedProduct(t, brand.ID, "20.00", 10)
	router := shopRouter(env, customer.ID, identity.RoleCustomer)

	w := serve(shopRouter(env, admin.ID, identity.RoleAdmin), jsonRequest(http.MethodPost, "/admin/coupons", map[string]any{
		"code":         "spring10",
		"percent_off":  "10",
		"min_subtotal": "30",
	}))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "SPRING10", decodeData[appcart.CouponResponse](t, w).Code)

	addToCart(t, router, product.ID, 1)

	w = serve(router, jsonRequest(http.MethodPost, "/cart/coupon", map[string]any{"code": "SPRING10"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "COUPON_MINIMUM_NOT_MET", errorCode(t, w))

	w = serve(router, jsonRequest(http.MethodPost, "/cart/coupon", map[string]any{"code": "NOPE"}))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "COUPON_NOT_FOUND", errorCode(t, w))

	addToCart(t, router, product.ID, 1)
	w = serve(router, jsonRequest(http.MethodPost, "/cart/coupon", map[string]any{"code": "spring10"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cart := decodeData[appcart.CartResponse](t, w)
	require.NotNil(t, cart.Coupon)
	assert.True(t, cart.Discount.Equal(decimal.RequireFromString("4")))
	assert.True(t, cart.Total.Equal(decimal.RequireFromString("36")))

	w = serve(router, jsonRequest(http.MethodDelete, "/cart/coupon", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decodeData[appcart.CartResponse](t, w).Coupon)

	w = serve(router, jsonRequest(http.MethodDelete, "/cart/coupon", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NO_COUPON", errorCode(t, w))
}

func TestOrderHandler_CheckoutSplitsByBrand(t *testing.T) {
	env := newTestEnv(t)
	customer := env.seedCustomer(t)
	_, brandA := env.seedBrand(t)
	_, brandB := env.seedBrand(t)
	mug := env.seedProduct(t, brandA.ID, "10.00", 5)
	lamp := env.seedProduct(t, brandB.ID, "25.00", 2)
	router := shopRouter(env, customer.ID, identity.RoleCustomer)

	w := serve(router, jsonRequest(http.MethodPost, "/orders", map[string]any{"shipping_address": testAddress}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "CART_EMPTY", errorCode(t, w))

	addToCart(t, router, mug.ID, 2)
	addToCart(t, router, lamp.ID, 1)

	w = serve(router, jsonRequest(http.MethodPost, "/orders", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code, "no saved default address")
	assert.Equal(t, "INVALID_ADDRESS", errorCode(t, w))

	result := checkout(t, router)
	assert.Equal(t, 2, result.OrderCount)
	assert.True(t, result.GrandTotal.Equal(decimal.RequireFromString("45")))
	for _, o := range result.Orders {
		assert.Equal(t, "pending", o.Status)
		assert.Equal(t, customer.ID, o.CustomerID)
		assert.Equal(t, "Springfield", o.ShippingAddress.City)
	}

	assert.Equal(t, 3, env.stockOf(t, mug.ID))
	assert.Equal(t, 1, env.stockOf(t, lamp.ID))

	w = serve(router, jsonRequest(http.MethodGet, "/cart", nil))
	assert.Empty(t, decodeData[appcart.CartResponse](t, w).Items)

	w = serve(router, jsonRequest(http.MethodGet, "/orders?page_size=10", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]apporder.OrderResponse](t, w), 2)
}

func TestOrderHandler_CheckoutInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	customer := env.seedCustomer(t)
	owner, brand := env.seedBrand(t)
	product := env.seedProduct(t, brand.ID, "10.00", 3)
	router := shopRouter(env, customer.ID, identity.RoleCustomer)
	addToCart(t, router, product.ID, 3)

	w := serve(productRouter(env, owner.ID, identity.RoleBrand), jsonRequest(http.MethodPatch,
		"/products/"+product.ID.String()+"/stock", map[string]any{"stock": 1}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = serve(router, jsonRequest(http.MethodPost, "/orders", map[string]any{"shipping_address": testAddress}))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ERR_INSUFFICIENT_STOCK", errorCode(t, w))
	assert.Equal(t, 1, env.stockOf(t, product.ID))

	w = serve(router, jsonRequest(http.MethodGet, "/cart", nil))
	assert.Len(t, decodeData[appcart.CartResponse](t, w).Items, 1, "a failed checkout keeps the cart")
}

func TestOrderHandler_CancelRestoresStock(t *testing.T) {
	env := newTestEnv(t)
	customer := env.seedCustomer(t)
	_, brand := env.seedBrand(t)
	first := env.seedProduct(t, brand.ID, "10.00", 5)
	second := env.seedProduct(t, brand.ID, "4.50", 8)
	router := shopRouter(env, customer.ID, identity.RoleCustomer)

	addToCart(t, router, first.ID, 2)
	addToCart(t, router, second.ID, 3)
	placed := checkout(t, router).Orders[0]
	require.Equal(t, 3, env.stockOf(t, first.ID))
	require.Equal(t, 5, env.stockOf(t, second.ID))

	w := serve(router, jsonRequest(http.MethodPost, "/orders/"+placed.ID.String()+"/cancel", map[string]any{"reason": "changed my mind"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cancelled := decodeData[apporder.OrderResponse](t, w)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "changed my mind", cancelled.CancelReason)

	assert.Equal(t, 5, env.stockOf(t, first.ID))
	assert.Equal(t, 8, env.stockOf(t, second.ID))

	w = serve(router, jsonRequest(http.MethodPost, "/orders/"+placed.ID.String()+"/cancel", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, w))
	assert.Equal(t, 5, env.stockOf(t, first.ID), "a repeated cancel must not restore twice")
}

func TestOrderHandler_BrandFulfilment(t *testing.T) {
	env := newTestEnv(t)
	customer := env.seedCustomer(t)
	owner, brand := env.seedBrand(t)
	rival, _ := env.seedBrand(t)
	admin := env.seedUser(t, identity.RoleAdmin)
	product := env.seedProduct(t, brand.ID, "12.00", 4)

	shop := shopRouter(env, customer.ID, identity.RoleCustomer)
	addToCart(t, shop, product.ID, 1)
	placed := checkout(t, shop).Orders[0]

	brandRouter := shopRouter(env, owner.ID, identity.RoleBrand)
	statusPath := "/brand/orders/" + placed.ID.String() + "/status"

	w := serve(shopRouter(env, rival.ID, identity.RoleBrand), jsonRequest(http.MethodPatch, statusPath, map[string]any{"status": "confirmed"}))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "NOT_ORDER_OWNER", errorCode(t, w))

	w = serve(brandRouter, jsonRequest(http.MethodPatch, statusPath, map[string]any{"status": "shipped"}))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, w))

	for _, status := range []string{"confirmed", "processing", "shipped", "out_for_delivery"} {
		w = serve(brandRouter, jsonRequest(http.MethodPatch, statusPath, map[string]any{"status": status}))
		require.Equal(t, http.StatusOK, w.Code, "%s: %s", status, w.Body.String())
		assert.Equal(t, status, decodeData[apporder.OrderResponse](t, w).Status)
	}

	w = serve(shop, jsonRequest(http.MethodPost, "/orders/"+placed.ID.String()+"/return", nil))
	assert.Equal(t, http.StatusConflict, w.Code, "only delivered orders can be returned")

	w = serve(shopRouter(env, admin.ID, identity.RoleAdmin), jsonRequest(http.MethodPatch,
		"/admin/orders/"+placed.ID.String()+"/status", map[string]any{"status": "delivered", "note": "carrier confirmed"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = serve(shop, jsonRequest(http.MethodPost, "/orders/"+placed.ID.String()+"/return", map[string]any{"reason": "too small"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	returned := decodeData[apporder.OrderResponse](t, w)
	assert.Equal(t, "returned", returned.Status)
	assert.Len(t, returned.StatusHistory, 6)
	assert.Equal(t, 4, env.stockOf(t, product.ID))

	w = serve(brandRouter, jsonRequest(http.MethodGet, "/brand/orders", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]apporder.OrderResponse](t, w), 1)

	w = serve(brandRouter, jsonRequest(http.MethodGet, "/brand/orders/summary", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	summary := decodeData[apporder.SalesSummaryResponse](t, w)
	assert.Equal(t, brand.ID, summary.BrandID)
	assert.EqualValues(t, 1, summary.TotalOrders)
	assert.True(t, summary.TotalRevenue.IsZero(), "returned orders earn nothing")
}

func TestOrderHandler_GetVisibility(t *testing.T) {
	env := newTestEnv(t)
	customer := env.seedCustomer(t)
	stranger := env.seedCustomer(t)
	owner, brand := env.seedBrand(t)
	admin := env.seedUser(t, identity.RoleAdmin)
	product := env.seedProduct(t, brand.ID, "9.99", 2)

	shop := shopRouter(env, customer.ID, identity.RoleCustomer)
	addToCart(t, shop, product.ID, 1)
	path := "/orders/" + checkout(t, shop).Orders[0].ID.String()

	tests := []struct {
		name   string
		userID uuid.UUID
		role   identity.Role
		status int
	}{
		{"buyer", customer.ID, identity.RoleCustomer, http.StatusOK},
		{"selling brand", owner.ID, identity.RoleBrand, http.StatusOK},
		{"admin", admin.ID, identity.RoleAdmin, http.StatusOK},
		{"other customer", stranger.ID, identity.RoleCustomer, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(shopRouter(env, tt.userID, tt.role), jsonRequest(http.MethodGet, path, nil))
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w := serve(shop, jsonRequest(http.MethodGet, "/orders/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
