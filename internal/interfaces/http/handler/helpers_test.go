package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appcart "github.com/marketplace/backend/internal/application/cart"
	appcatalog "github.com/marketplace/backend/internal/application/catalog"
	appidentity "github.com/marketplace/backend/internal/application/identity"
	apporder "github.com/marketplace/backend/internal/application/order"
	apppartner "github.com/marketplace/backend/internal/application/partner"
	"github.com/marketplace/backend/internal/domain/catalog"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/domain/partner"
	"github.com/marketplace/backend/internal/infrastructure/auth"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/marketplace/backend/internal/infrastructure/persistence/models"
	"github.com/marketplace/backend/internal/infrastructure/storage"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testPassword = "Passw0rd!"

// recordingNotifier keeps the last token mailed to each address
type recordingNotifier struct {
	mu           sync.Mutex
	verification map[string]string
	invitations  map[string]string
	fail         error
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{
		verification: make(map[string]string),
		invitations:  make(map[string]string),
	}
}

func (n *recordingNotifier) SendVerificationEmail(_ context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.verification[email] = token
	return nil
}

func (n *recordingNotifier) SendBrandInvitation(_ context.Context, email, _, token string, _ time.Time) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.invitations[email] = token
	return nil
}

func (n *recordingNotifier) verificationToken(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.verification[email]
}

func (n *recordingNotifier) invitationToken(email string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.invitations[email]
}

// testEnv wires real services over an in-memory SQLite database
type testEnv struct {
	db        *gorm.DB
	jwt       *auth.JWTService
	blacklist *auth.InMemoryTokenBlacklist
	notifier  *recordingNotifier
	storage   *storage.MemoryObjectStorage

	users     *persistence.GormUserRepository
	customers *persistence.GormCustomerRepository
	brands    *persistence.GormBrandRepository
	products  *persistence.GormProductRepository
	coupons   *persistence.GormCouponRepository
	carts     *persistence.GormCartRepository
	orders    *persistence.GormOrderRepository

	auth     *AuthHandler
	product  *ProductHandler
	brand    *BrandHandler
	customer *CustomerHandler
	cart     *CartHandler
	order    *OrderHandler
	admin    *AdminHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database, err := persistence.Open(sqlite.Open(":memory:"), nil)
	require.NoError(t, err)
	sqlDB, err := database.DB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.DB.AutoMigrate(models.AllModels()...))
	db := database.DB

	env := &testEnv{
		db: db,
		jwt: auth.NewJWTService(config.JWTConfig{
			Secret:                 "test-secret-key-at-least-32-chars",
			RefreshSecret:          "test-refresh-secret-key-32-chars",
			AccessTokenExpiration:  15 * time.Minute,
			RefreshTokenExpiration: 24 * time.Hour,
			Issuer:                 "marketplace-test",
			MaxRefreshCount:        5,
		}),
		blacklist: auth.NewInMemoryTokenBlacklist(),
		notifier:  newRecordingNotifier(),
		storage:   storage.NewMemoryObjectStorage("https://cdn.example.com"),
		users:     persistence.NewGormUserRepository(db),
		customers: persistence.NewGormCustomerRepository(db),
		brands:    persistence.NewGormBrandRepository(db),
		products:  persistence.NewGormProductRepository(db),
		coupons:   persistence.NewGormCouponRepository(db),
		carts:     persistence.NewGormCartRepository(db),
		orders:    persistence.NewGormOrderRepository(db),
	}

	log := zap.NewNop()
	authService := appidentity.NewAuthService(
		appidentity.Repositories{
			Users:              env.users,
			VerificationTokens: persistence.NewGormEmailVerificationTokenRepository(db),
			Invitations:        persistence.NewGormInvitationTokenRepository(db),
			Customers:          env.customers,
			Brands:             env.brands,
		},
		persistence.NewGormIdentityTransactionScope(db),
		env.notifier,
		env.jwt,
		env.blacklist,
		nil,
		appidentity.AuthServiceConfig{VerificationTTL: time.Hour},
		log,
	)
	invitationService := appidentity.NewInvitationService(
		persistence.NewGormInvitationTokenRepository(db), env.users, env.brands, env.notifier, nil, time.Hour, log)
	userService := appidentity.NewUserService(env.users, env.blacklist, time.Hour, log)
	productService := appcatalog.NewProductService(env.products, env.brands, env.storage, nil,
		appcatalog.ProductServiceConfig{MaxImageBytes: 1 << 10, MaxImagesPerProduct: 2}, log)
	cartService := appcart.NewCartService(env.carts, env.coupons, env.products, env.brands, log)
	orderService := apporder.NewOrderService(env.orders, env.brands, env.customers,
		persistence.NewGormOrderTransactionScope(db), nil, log)

	env.auth = NewAuthHandler(authService)
	env.product = NewProductHandler(productService)
	env.brand = NewBrandHandler(apppartner.NewBrandService(env.brands, log))
	env.customer = NewCustomerHandler(apppartner.NewCustomerService(env.customers, log))
	env.cart = NewCartHandler(cartService)
	env.order = NewOrderHandler(orderService)
	env.admin = NewAdminHandler(invitationService, userService, appcart.NewCouponService(env.coupons, log))
	return env
}

// asUser stands in for JWTAuthMiddleware with a fixed principal
func asUser(userID uuid.UUID, role identity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTClaimsKey, &auth.Claims{UserID: userID.String(), Role: string(role)})
		c.Set(middleware.JWTUserIDKey, userID.String())
		c.Set(middleware.JWTRoleKey, string(role))
		c.Next()
	}
}

// engine returns a router with the RequestID middleware plus mw
func engine(mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(mw...)
	return router
}

func (e *testEnv) seedUser(t *testing.T, role identity.Role) *identity.User {
	t.Helper()
	user, err := identity.NewVerifiedUser(gofakeit.Email(), testPassword, role)
	require.NoError(t, err)
	require.NoError(t, e.users.Create(t.Context(), user))
	return user
}

func (e *testEnv) seedCustomer(t *testing.T) *identity.User {
	t.Helper()
	user := e.seedUser(t, identity.RoleCustomer)
	customer, err := partner.NewCustomer(user.ID, gofakeit.FirstName(), gofakeit.LastName())
	require.NoError(t, err)
	require.NoError(t, e.customers.Create(t.Context(), customer))
	return user
}

func (e *testEnv) seedBrand(t *testing.T) (*identity.User, *partner.Brand) {
	t.Helper()
	user := e.seedUser(t, identity.RoleBrand)
	brand, err := partner.NewBrand(user.ID, gofakeit.Company()+" "+gofakeit.LetterN(6), "")
	require.NoError(t, err)
	require.NoError(t, e.brands.Create(t.Context(), brand))
	return user, brand
}

func (e *testEnv) seedProduct(t *testing.T, brandID uuid.UUID, price string, stock int) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct(brandID, gofakeit.ProductName(), "SKU-"+gofakeit.LetterN(8), decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	require.NoError(t, e.products.Create(t.Context(), product))
	return product
}

func (e *testEnv) stockOf(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	product, err := e.products.FindByID(t.Context(), productID)
	require.NoError(t, err)
	return product.Stock
}

func jsonRequest(method, path string, body any) *http.Request {
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			data, _ := json.Marshal(b)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// envelope is the decoded response body with Data left raw
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var data T
	env := decode(t, w)
	require.True(t, env.Success, w.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode(t, w)
	require.False(t, env.Success, w.Body.String())
	require.NotNil(t, env.Error)
	return env.Error.Code
}
