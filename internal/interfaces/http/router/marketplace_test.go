package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcart "github.com/marketplace/backend/internal/application/cart"
	appcatalog "github.com/marketplace/backend/internal/application/catalog"
	appidentity "github.com/marketplace/backend/internal/application/identity"
	apporder "github.com/marketplace/backend/internal/application/order"
	apppartner "github.com/marketplace/backend/internal/application/partner"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/partner"
	"github.com/marketplace/backend/internal/infrastructure/auth"
	"github.com/marketplace/backend/internal/infrastructure/cache"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/mail"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"github.com/marketplace/backend/internal/infrastructure/storage"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/marketplace/backend/internal/interfaces/http/handler"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
)

const password = "Passw0rd!"

type server struct {
	engine *gin.Engine
	users  *persistence.GormUserRepository
	cust   *persistence.GormCustomerRepository
	brands *persistence.GormBrandRepository
}

func newServer(t *testing.T, authLimit int) *server {
	t.Helper()

	database, err := persistence.Open(sqlite.Open(":memory:"), nil)
	require.NoError(t, err)
	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, database.DB.AutoMigrate(models.AllModels()...))
	db := database.DB

	log := zap.NewNop()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "router-test-secret-key-32-chars!!",
		RefreshSecret:          "router-test-refresh-key-32-chars!",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "marketplace-test",
		MaxRefreshCount:        3,
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	notifier := mail.NewNotifier(mail.NewLogMailer(log), "https://shop.example.com", time.Hour)

	users := persistence.NewGormUserRepository(db)
	customers := persistence.NewGormCustomerRepository(db)
	brands := persistence.NewGormBrandRepository(db)
	products := persistence.NewGormProductRepository(db)
	coupons := persistence.NewGormCouponRepository(db)
	invitations := persistence.NewGormInvitationTokenRepository(db)

	authService := appidentity.NewAuthService(
		appidentity.Repositories{
			Users:              users,
			VerificationTokens: persistence.NewGormEmailVerificationTokenRepository(db),
			Invitations:        invitations,
			Customers:          customers,
			Brands:             brands,
		},
		persistence.NewGormIdentityTransactionScope(db),
		notifier, jwtService, blacklist, nil,
		appidentity.AuthServiceConfig{VerificationTTL: time.Hour}, log)

	h := Handlers{
		Auth: handler.NewAuthHandler(authService),
		Product: handler.NewProductHandler(appcatalog.NewProductService(products, brands,
			storage.NewMemoryObjectStorage("https://cdn.example.com"), nil,
			appcatalog.ProductServiceConfig{MaxImageBytes: 1 << 20, MaxImagesPerProduct: 5}, log)),
		Brand:    handler.NewBrandHandler(apppartner.NewBrandService(brands, log)),
		Customer: handler.NewCustomerHandler(apppartner.NewCustomerService(customers, log)),
		Cart: handler.NewCartHandler(appcart.NewCartService(
			persistence.NewGormCartRepository(db), coupons, products, brands, log)),
		Order: handler.NewOrderHandler(apporder.NewOrderService(persistence.NewGormOrderRepository(db),
			brands, customers, persistence.NewGormOrderTransactionScope(db), nil, log)),
		Admin: handler.NewAdminHandler(
			appidentity.NewInvitationService(invitations, users, brands, notifier, nil, time.Hour, log),
			appidentity.NewUserService(users, blacklist, time.Hour, log),
			appcart.NewCouponService(coupons, log)),
		System: handler.NewSystemHandler(database, "marketplace", "test"),
	}

	opts := Options{
		HTTP:      config.HTTPConfig{MaxBodySize: 1 << 20, CORSAllowOrigins: []string{"https://shop.example.com"}},
		JWT:       jwtService,
		Blacklist: blacklist,
		Logger:    log,
		Tracing:   middleware.TracingConfig{Enabled: false},
		Metrics:   telemetry.NewMetrics("marketplace_test"),

		Idempotency:    cache.NewInMemoryIdempotencyStore(),
		IdempotencyTTL: time.Hour,
	}
	if authLimit > 0 {
		opts.AuthLimiter = middleware.NewRateLimiter(authLimit, time.Hour)
	}

	return &server{
		engine: NewEngine(opts, h),
		users:  users,
		cust:   customers,
		brands: brands,
	}
}

func (s *server) seedUser(t *testing.T, email string, role identity.Role) *identity.User {
	t.Helper()
	user, err := identity.NewVerifiedUser(email, password, role)
	require.NoError(t, err)
	require.NoError(t, s.users.Create(t.Context(), user))
	switch role {
	case identity.RoleCustomer:
		customer, err := partner.NewCustomer(user.ID, "Test", "Customer")
		require.NoError(t, err)
		require.NoError(t, s.cust.Create(t.Context(), customer))
	case identity.RoleBrand:
		brand, err := partner.NewBrand(user.ID, "Brand "+uuid.NewString()[:8], "")
		require.NoError(t, err)
		require.NoError(t, s.brands.Create(t.Context(), brand))
	}
	return user
}

func (s *server) do(method, path, token string, body any) *httptest.ResponseRecorder {
	return s.doWithHeaders(method, path, token, body, nil)
}

func (s *server) doWithHeaders(method, path, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *server) login(t *testing.T, email string) string {
	t.Helper()
	w := s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Data appidentity.AuthResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Data.AccessToken
}

func data[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.True(t, resp.Success, w.Body.String())
	return resp.Data
}

func errCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Error.Code
}

func TestMarketplace_Operational(t *testing.T) {
	s := newServer(t, 0)

	w := s.do(http.MethodGet, HealthPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = s.do(http.MethodGet, "/api/v1/products", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, DefaultMetricsPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "marketplace_test_http")
	assert.Contains(t, w.Body.String(), `route="/api/v1/products"`)

	w = s.do(http.MethodGet, "/api/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERR_NOT_FOUND", errCode(t, w))

	w = s.do(http.MethodGet, "/api/v1/system/info", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMarketplace_RoleGuards(t *testing.T) {
	s := newServer(t, 0)
	s.seedUser(t, "buyer@example.com", identity.RoleCustomer)
	s.seedUser(t, "maker@example.com", identity.RoleBrand)
	customerToken := s.login(t, "buyer@example.com")
	brandToken := s.login(t, "maker@example.com")

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"anonymous cart", http.MethodGet, "/api/v1/cart", "", http.StatusUnauthorized},
		{"garbage token", http.MethodGet, "/api/v1/cart", "not-a-jwt", http.StatusUnauthorized},
		{"customer cart", http.MethodGet, "/api/v1/cart", customerToken, http.StatusOK},
		{"brand cart", http.MethodGet, "/api/v1/cart", brandToken, http.StatusForbidden},
		{"customer creates product", http.MethodPost, "/api/v1/products", customerToken, http.StatusForbidden},
		{"brand profile", http.MethodGet, "/api/v1/brand/profile", brandToken, http.StatusOK},
		{"customer admin", http.MethodGet, "/api/v1/admin/users", customerToken, http.StatusForbidden},
		{"brand admin", http.MethodGet, "/api/v1/admin/coupons", brandToken, http.StatusForbidden},
		{"public brands", http.MethodGet, "/api/v1/brands", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body any
			if tt.method == http.MethodPost {
				body = map[string]any{}
			}
			w := s.do(tt.method, tt.path, tt.token, body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestMarketplace_PurchaseFlow(t *testing.T) {
	s := newServer(t, 0)
	s.seedUser(t, "root@example.com", identity.RoleAdmin)
	s.seedUser(t, "buyer@example.com", identity.RoleCustomer)
	s.seedUser(t, "maker@example.com", identity.RoleBrand)
	adminToken := s.login(t, "root@example.com")
	customerToken := s.login(t, "buyer@example.com")
	brandToken := s.login(t, "maker@example.com")

	w := s.do(http.MethodPost, "/api/v1/products", brandToken, map[string]any{
		"name": "Stoneware Mug", "sku": "mug-1", "price": "18.00", "stock": 4,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := data[appcatalog.ProductResponse](t, w)

	w = s.do(http.MethodPost, "/api/v1/admin/coupons", adminToken, map[string]any{"code": "MUGS", "percent_off": "25"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/cart/items", customerToken, map[string]any{"product_id": product.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = s.do(http.MethodPost, "/api/v1/cart/coupon", customerToken, map[string]any{"code": "mugs"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, data[appcart.CartResponse](t, w).Total.Equal(decimal.NewFromInt(27)))

	w = s.do(http.MethodPost, "/api/v1/orders", customerToken, map[string]any{
		"shipping_address": map[string]any{"line1": "9 Elm Row", "city": "Leeds", "postal_code": "LS1 1AA", "country": "GB"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	placed := data[apporder.CheckoutResponse](t, w)
	require.Equal(t, 1, placed.OrderCount)
	orderID := placed.Orders[0].ID.String()

	w = s.do(http.MethodGet, "/api/v1/orders/"+orderID, brandToken, nil)
	require.Equal(t, http.StatusOK, w.Code, "the selling brand reads the order: %s", w.Body.String())

	w = s.do(http.MethodPatch, "/api/v1/brand/orders/"+orderID+"/status", brandToken, map[string]any{"status": "confirmed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPatch, "/api/v1/admin/orders/"+orderID+"/status", adminToken, map[string]any{"status": "processing"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/orders/"+orderID+"/cancel", customerToken, nil)
	assert.Equal(t, http.StatusConflict, w.Code, "processing orders can no longer be cancelled by the customer")

	w = s.do(http.MethodGet, "/api/v1/products/"+product.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, data[appcatalog.ProductResponse](t, w).Stock)

	w = s.do(http.MethodGet, "/api/v1/brand/orders/summary", brandToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, data[apporder.SalesSummaryResponse](t, w).TotalRevenue.Equal(decimal.NewFromInt(27)))
}

func TestMarketplace_DeactivationRevokesSessions(t *testing.T) {
	s := newServer(t, 0)
	s.seedUser(t, "root@example.com", identity.RoleAdmin)
	buyer := s.seedUser(t, "buyer@example.com", identity.RoleCustomer)
	adminToken := s.login(t, "root@example.com")
	customerToken := s.login(t, "buyer@example.com")

	require.Equal(t, http.StatusOK, s.do(http.MethodGet, "/api/v1/auth/me", customerToken, nil).Code)

	w := s.do(http.MethodPatch, "/api/v1/admin/users/"+buyer.ID.String()+"/status", adminToken, map[string]any{"status": "deactivated"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/auth/me", customerToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", map[string]any{"email": "buyer@example.com", "password": password})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "ACCOUNT_DEACTIVATED", errCode(t, w))
}

func TestMarketplace_AuthRateLimit(t *testing.T) {
	s := newServer(t, 2)
	body := map[string]any{"email": "nobody@example.com", "password": password}

	for i := 0; i < 2; i++ {
		w := s.do(http.MethodPost, "/api/v1/auth/login", "", body)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := s.do(http.MethodPost, "/api/v1/auth/login", "", body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "ERR_RATE_LIMITED", errCode(t, w))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	w = s.do(http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, w.Code, "storefront reads are not subject to the auth limiter")
}

func TestMarketplace_CheckoutIdempotency(t *testing.T) {
	s := newServer(t, 0)
	s.seedUser(t, "buyer@example.com", identity.RoleCustomer)
	s.seedUser(t, "maker@example.com", identity.RoleBrand)
	customerToken := s.login(t, "buyer@example.com")
	brandToken := s.login(t, "maker@example.com")

	w := s.do(http.MethodPost, "/api/v1/products", brandToken, map[string]any{
		"name": "Linen Tote", "sku": "tote-1", "price": "12.00", "stock": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	product := data[appcatalog.ProductResponse](t, w)

	address := map[string]any{
		"shipping_address": map[string]any{"line1": "1 Quay St", "city": "Bristol", "postal_code": "BS1 4DJ", "country": "GB"},
	}
	checkout := func(key string) *httptest.ResponseRecorder {
		return s.doWithHeaders(http.MethodPost, "/api/v1/orders", customerToken, address,
			map[string]string{middleware.IdempotencyKeyHeader: key})
	}
	addTote := func() {
		w := s.do(http.MethodPost, "/api/v1/cart/items", customerToken, map[string]any{"product_id": product.ID, "quantity": 1})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	w = checkout("empty-cart")
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	addTote()
	w = checkout("empty-cart")
	require.Equal(t, http.StatusCreated, w.Code, "a failed attempt must not burn the key: %s", w.Body.String())

	addTote()
	w = checkout("empty-cart")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ERR_DUPLICATE_REQUEST", errCode(t, w))

	w = s.do(http.MethodGet, "/api/v1/cart", customerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, data[appcart.CartResponse](t, w).Items, 1, "the rejected replay leaves the cart untouched")

	w = checkout("second-order")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}
