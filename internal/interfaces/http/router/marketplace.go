package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/marketplace/backend/internal/domain/identity"
	"github.com/marketplace/backend/internal/infrastructure/auth"
	"github.com/marketplace/backend/internal/infrastructure/cache"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/marketplace/backend/internal/interfaces/http/dto"
	"github.com/marketplace/backend/internal/interfaces/http/handler"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

const (
	HealthPath         = "/health"
	DefaultMetricsPath = "/metrics"
)

// Handlers are the HTTP handlers mounted by the marketplace API
type Handlers struct {
	Auth     *handler.AuthHandler
	Product  *handler.ProductHandler
	Brand    *handler.BrandHandler
	Customer *handler.CustomerHandler
	Cart     *handler.CartHandler
	Order    *handler.OrderHandler
	Admin    *handler.AdminHandler
	System   *handler.SystemHandler
}

// Options configures the middleware stack
type Options struct {
	HTTP      config.HTTPConfig
	JWT       *auth.JWTService
	Blacklist auth.TokenBlacklist
	Logger    *zap.Logger
	Tracing   middleware.TracingConfig

	// Metrics is optional; nil disables request metrics and the scrape endpoint
	Metrics     *telemetry.Metrics
	MetricsPath string

	// APILimiter and AuthLimiter are optional. The auth limiter only guards
	// the unauthenticated credential endpoints.
	APILimiter  *middleware.RateLimiter
	AuthLimiter *middleware.RateLimiter

	// Idempotency guards checkout against replayed Idempotency-Key headers; nil disables it
	Idempotency    cache.IdempotencyStore
	IdempotencyTTL time.Duration
}

// NewEngine builds the gin engine with the full middleware chain, the
// operational endpoints and every /api/v1 route.
func NewEngine(opts Options, h Handlers) *gin.Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = DefaultMetricsPath
	}

	engine := gin.New()
	if len(opts.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(opts.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Order matters: the request id must exist before anything logs, and the
	// tracing span must wrap logging so log lines carry the trace id.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.TracingWithConfig(opts.Tracing))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.HTTPMetrics(opts.Metrics, HealthPath, metricsPath))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(corsConfig(opts.HTTP)))
	engine.Use(middleware.BodyLimit(opts.HTTP.MaxBodySize))
	if opts.APILimiter != nil {
		engine.Use(middleware.RateLimit(opts.APILimiter))
	}

	if h.System != nil {
		engine.GET(HealthPath, h.System.Health)
	}
	if opts.Metrics != nil {
		engine.GET(metricsPath, gin.WrapH(opts.Metrics.Handler()))
	}
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.ErrCodeNotFound, "Route not found", middleware.GetRequestID(c)))
	})

	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(MarketplaceGroups(opts, h)...)
	r.Setup()
	return engine
}

// MarketplaceGroups returns the route groups of the marketplace API. Each
// group carries its own authentication and role guard.
func MarketplaceGroups(opts Options, h Handlers) []RouteRegistrar {
	jwtCfg := middleware.DefaultJWTConfig(opts.JWT)
	jwtCfg.TokenBlacklist = opts.Blacklist
	jwtCfg.Logger = opts.Logger
	requireAuth := middleware.JWTAuthMiddlewareWithConfig(jwtCfg)
	optionalAuth := middleware.OptionalJWTAuthMiddleware(opts.JWT)

	customerOnly := middleware.RequireRoles(string(identity.RoleCustomer))
	brandOnly := middleware.RequireRoles(string(identity.RoleBrand))
	adminOnly := middleware.RequireRoles(string(identity.RoleAdmin))

	authLimit := func(c *gin.Context) { c.Next() }
	if opts.AuthLimiter != nil {
		authLimit = middleware.RateLimit(opts.AuthLimiter)
	}

	checkoutGuard := func(c *gin.Context) { c.Next() }
	if opts.Idempotency != nil {
		checkoutGuard = middleware.Idempotency(opts.Idempotency, opts.IdempotencyTTL, opts.Logger)
	}

	authRoutes := NewDomainGroup("auth", "/auth")
	authRoutes.POST("/register", authLimit, h.Auth.Register)
	authRoutes.POST("/register/brand", authLimit, h.Auth.RegisterBrand)
	authRoutes.POST("/verify-email", authLimit, h.Auth.VerifyEmail)
	authRoutes.POST("/resend-verification", authLimit, h.Auth.ResendVerification)
	authRoutes.POST("/login", authLimit, h.Auth.Login)
	authRoutes.POST("/refresh", authLimit, h.Auth.RefreshToken)
	authRoutes.POST("/logout", requireAuth, h.Auth.Logout)
	authRoutes.GET("/me", requireAuth, h.Auth.Me)

	// Storefront reads are public; a token, when present, lets brand owners
	// see their own unlisted products.
	storefront := NewDomainGroup("storefront", "").Use(optionalAuth)
	storefront.GET("/products", h.Product.List)
	storefront.GET("/products/:id", h.Product.Get)
	storefront.GET("/brands", h.Brand.List)
	storefront.GET("/brands/:id", h.Brand.Get)

	catalogRoutes := NewDomainGroup("catalog", "/products").Use(requireAuth, brandOnly)
	catalogRoutes.POST("", h.Product.Create)
	catalogRoutes.POST("/import", h.Product.Import)
	catalogRoutes.PUT("/:id", h.Product.Update)
	catalogRoutes.DELETE("/:id", h.Product.Delete)
	catalogRoutes.PATCH("/:id/stock", h.Product.AdjustStock)
	catalogRoutes.POST("/:id/images", h.Product.UploadImage)
	catalogRoutes.DELETE("/:id/images/:image_id", h.Product.DeleteImage)

	brandRoutes := NewDomainGroup("brand", "/brand").Use(requireAuth, brandOnly)
	brandRoutes.GET("/profile", h.Brand.GetProfile)
	brandRoutes.PUT("/profile", h.Brand.UpdateProfile)
	brandRoutes.GET("/orders", h.Order.ListForBrand)
	brandRoutes.GET("/orders/summary", h.Order.SalesSummary)
	brandRoutes.PATCH("/orders/:id/status", h.Order.UpdateStatus)

	customerRoutes := NewDomainGroup("customer", "").Use(requireAuth, customerOnly)
	customerRoutes.GET("/customer/profile", h.Customer.GetProfile)
	customerRoutes.PUT("/customer/profile", h.Customer.UpdateProfile)

	cart := customerRoutes.Group("cart", "/cart")
	cart.GET("", h.Cart.Get)
	cart.DELETE("", h.Cart.Clear)
	cart.POST("/items", h.Cart.AddItem)
	cart.PUT("/items/:product_id", h.Cart.UpdateItem)
	cart.DELETE("/items/:product_id", h.Cart.RemoveItem)
	cart.POST("/coupon", h.Cart.ApplyCoupon)
	cart.DELETE("/coupon", h.Cart.RemoveCoupon)

	orders := customerRoutes.Group("orders", "/orders")
	orders.POST("", checkoutGuard, h.Order.Checkout)
	orders.GET("", h.Order.ListMine)
	orders.POST("/:id/cancel", h.Order.Cancel)
	orders.POST("/:id/return", h.Order.Return)

	// Order detail is shared: the buyer, the selling brand and admins may read it.
	orderDetail := NewDomainGroup("order-detail", "/orders").Use(requireAuth)
	orderDetail.GET("/:id", h.Order.Get)

	adminRoutes := NewDomainGroup("admin", "/admin").Use(requireAuth, adminOnly)
	adminRoutes.POST("/invitations", h.Admin.CreateInvitation)
	adminRoutes.GET("/invitations", h.Admin.ListInvitations)
	adminRoutes.DELETE("/invitations/:id", h.Admin.RevokeInvitation)
	adminRoutes.POST("/coupons", h.Admin.CreateCoupon)
	adminRoutes.GET("/coupons", h.Admin.ListCoupons)
	adminRoutes.DELETE("/coupons/:id", h.Admin.DeleteCoupon)
	adminRoutes.GET("/users", h.Admin.ListUsers)
	adminRoutes.PATCH("/users/:id/status", h.Admin.UpdateUserStatus)
	adminRoutes.GET("/brands", h.Brand.AdminList)
	adminRoutes.PATCH("/brands/:id/status", h.Brand.UpdateStatus)
	adminRoutes.PATCH("/orders/:id/status", h.Order.UpdateStatus)

	system := NewDomainGroup("system", "/system")
	if h.System != nil {
		system.GET("/info", h.System.GetSystemInfo)
	}

	return []RouteRegistrar{
		authRoutes, storefront, catalogRoutes, brandRoutes,
		customerRoutes, orderDetail, adminRoutes, system,
	}
}

func corsConfig(cfg config.HTTPConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.CORSAllowOrigins
	if len(cfg.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.CORSAllowMethods
	}
	if len(cfg.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.CORSAllowHeaders
	}
	cors.MaxAge = 12 * time.Hour
	return cors
}
