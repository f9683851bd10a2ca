package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	cartapp "github.com/marketplace/backend/internal/application/cart"
	catalogapp "github.com/marketplace/backend/internal/application/catalog"
	identityapp "github.com/marketplace/backend/internal/application/identity"
	orderapp "github.com/marketplace/backend/internal/application/order"
	partnerapp "github.com/marketplace/backend/internal/application/partner"
	"github.com/marketplace/backend/internal/infrastructure/auth"
	"github.com/marketplace/backend/internal/infrastructure/cache"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/marketplace/backend/internal/infrastructure/event"
	"github.com/marketplace/backend/internal/infrastructure/logger"
	"github.com/marketplace/backend/internal/infrastructure/mail"
	"github.com/marketplace/backend/internal/infrastructure/persistence"
	"github.com/marketplace/backend/internal/infrastructure/scheduler"
	"github.com/marketplace/backend/internal/infrastructure/storage"
	"github.com/marketplace/backend/internal/infrastructure/telemetry"
	"github.com/marketplace/backend/internal/interfaces/http/handler"
	"github.com/marketplace/backend/internal/interfaces/http/middleware"
	"github.com/marketplace/backend/internal/interfaces/http/router"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(logger.FromAppConfig(cfg.Log))
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	if err := run(cfg, log); err != nil {
		log.Fatal("Server exited with error", zap.Error(err))
	}
	log.Info("Server exited gracefully")
}

func run(cfg *config.Config, log *zap.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("Starting marketplace API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Tracing first so the database plugin picks up the global provider
	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		err = multierr.Append(err, tp.Shutdown(shutdownCtx))
	}()

	// Database with a zap backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, db.Close())
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      !cfg.App.IsProduction(),
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			DBSystem:        "postgresql",
		}, log); err != nil {
			return err
		}
	}

	var metrics *telemetry.Metrics
	if cfg.Metrics.Enabled {
		metrics = telemetry.NewMetrics(cfg.Metrics.Namespace)
		sqlDB, err := db.DB.DB()
		if err != nil {
			return err
		}
		if err := metrics.RegisterDBStats(sqlDB, cfg.Database.DBName); err != nil {
			return err
		}
	}

	// Token revocation and checkout idempotency are shared across replicas
	// when Redis is configured
	var (
		blacklist   auth.TokenBlacklist
		idempotency cache.IdempotencyStore
	)
	if cfg.Redis.Enabled() {
		redisClient, redisErr := auth.NewRedisClient(ctx, cfg.Redis)
		if redisErr != nil {
			return redisErr
		}
		defer func() {
			err = multierr.Append(err, redisClient.Close())
		}()
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		idempotency = cache.NewRedisIdempotencyStore(redisClient, "")
		log.Info("Using Redis for token revocation and idempotency keys", zap.String("addr", cfg.Redis.Addr()))
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
		memoryStore := cache.NewInMemoryIdempotencyStore()
		go memoryStore.Run(ctx, 5*time.Minute)
		idempotency = memoryStore
		log.Warn("Redis not configured, token revocation and idempotency keys are local to this process")
	}

	objects, err := newObjectStorage(ctx, cfg, log)
	if err != nil {
		return err
	}

	notifier := mail.NewNotifier(mail.New(cfg.Mail, log), cfg.Marketplace.FrontendURL, cfg.Marketplace.VerificationTokenTTL)

	// Event bus: every event is logged, counted and optionally forwarded to Kafka
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewLoggingHandler(log))
	if metrics != nil {
		eventBus.Subscribe(event.NewMetricsHandler(metrics))
	}
	if cfg.Event.KafkaEnabled {
		var onError func(string)
		if metrics != nil {
			onError = metrics.RecordPublishError
		}
		kafkaPublisher := event.NewKafkaPublisher(event.NewKafkaWriter(cfg.Event, log, onError), log)
		eventBus.Subscribe(kafkaPublisher)
		defer func() {
			err = multierr.Append(err, kafkaPublisher.Close())
		}()
		log.Info("Forwarding domain events to Kafka",
			zap.Strings("brokers", cfg.Event.KafkaBrokers),
			zap.String("topic", cfg.Event.KafkaTopic),
		)
	}
	if err := eventBus.Start(ctx); err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, eventBus.Stop(context.Background()))
	}()

	// Initialize repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	brandRepo := persistence.NewGormBrandRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	couponRepo := persistence.NewGormCouponRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	verificationRepo := persistence.NewGormEmailVerificationTokenRepository(db.DB)
	invitationRepo := persistence.NewGormInvitationTokenRepository(db.DB)

	// Initialize application services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(
		identityapp.Repositories{
			Users:              userRepo,
			VerificationTokens: verificationRepo,
			Invitations:        invitationRepo,
			Customers:          customerRepo,
			Brands:             brandRepo,
		},
		persistence.NewGormIdentityTransactionScope(db.DB),
		notifier,
		jwtService,
		blacklist,
		eventBus,
		identityapp.AuthServiceConfig{VerificationTTL: cfg.Marketplace.VerificationTokenTTL},
		log,
	)
	userService := identityapp.NewUserService(userRepo, blacklist, cfg.JWT.RefreshTokenExpiration, log)
	invitationService := identityapp.NewInvitationService(
		invitationRepo, userRepo, brandRepo, notifier, eventBus, cfg.Marketplace.InvitationTTL, log,
	)
	brandService := partnerapp.NewBrandService(brandRepo, log)
	customerService := partnerapp.NewCustomerService(customerRepo, log)
	productService := catalogapp.NewProductService(productRepo, brandRepo, objects, eventBus,
		catalogapp.ProductServiceConfig{
			MaxImageBytes:       cfg.Marketplace.MaxImageBytes,
			MaxImagesPerProduct: cfg.Marketplace.MaxImagesPerProduct,
			MaxImportRows:       cfg.Marketplace.MaxImportRows,
		}, log)
	cartService := cartapp.NewCartService(cartRepo, couponRepo, productRepo, brandRepo, log)
	couponService := cartapp.NewCouponService(couponRepo, log)
	orderService := orderapp.NewOrderService(
		orderRepo, brandRepo, customerRepo, persistence.NewGormOrderTransactionScope(db.DB), eventBus, log,
	)

	housekeeping, err := scheduler.New(scheduler.Config{
		Interval:   cfg.Marketplace.CleanupInterval,
		JobTimeout: 5 * time.Minute,
		RunOnStart: true,
	}, log)
	if err != nil {
		return err
	}
	if err := housekeeping.Register(scheduler.NewTokenPurgeTask(
		verificationRepo, invitationRepo, cfg.Marketplace.InvitationRetention, log,
	)); err != nil {
		return err
	}
	housekeeping.Start(ctx)
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		err = multierr.Append(err, housekeeping.Stop(stopCtx))
	}()

	created, err := userService.EnsureAdmin(ctx, cfg.Marketplace.AdminEmail, cfg.Marketplace.AdminPassword)
	if err != nil {
		return err
	}
	if created {
		log.Info("Bootstrap admin created", zap.String("email", cfg.Marketplace.AdminEmail))
	}

	// Rate limiters evict idle buckets until shutdown
	var apiLimiter, authLimiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		apiLimiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		go apiLimiter.Run(ctx)
	}
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		go authLimiter.Run(ctx)
	}

	middleware.SetupValidator()

	tracing := middleware.DefaultTracingConfig()
	tracing.ServiceName = cfg.Telemetry.ServiceName
	tracing.Enabled = tp.IsEnabled()

	engine := router.NewEngine(router.Options{
		HTTP:        cfg.HTTP,
		JWT:         jwtService,
		Blacklist:   blacklist,
		Logger:      log,
		Tracing:     tracing,
		Metrics:     metrics,
		MetricsPath: cfg.Metrics.Path,
		APILimiter:  apiLimiter,
		AuthLimiter: authLimiter,

		Idempotency:    idempotency,
		IdempotencyTTL: cfg.Marketplace.IdempotencyTTL,
	}, router.Handlers{
		Auth:     handler.NewAuthHandler(authService),
		Product:  handler.NewProductHandler(productService),
		Brand:    handler.NewBrandHandler(brandService),
		Customer: handler.NewCustomerHandler(customerService),
		Cart:     handler.NewCartHandler(cartService),
		Order:    handler.NewOrderHandler(orderService),
		Admin:    handler.NewAdminHandler(invitationService, userService, couponService),
		System:   handler.NewSystemHandler(db, cfg.App.Name, version),
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newObjectStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (catalogapp.ObjectStorage, error) {
	if cfg.Storage.Provider != "s3" {
		log.Warn("Using in-memory object storage, uploaded images are lost on restart")
		return storage.NewMemoryObjectStorage(cfg.Storage.PublicBaseURL), nil
	}
	s3Storage, err := storage.NewS3ObjectStorage(ctx, &cfg.Storage, storage.WithLogger(log))
	if err != nil {
		return nil, err
	}
	if err := s3Storage.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("Using S3 object storage", zap.String("bucket", s3Storage.GetBucket()))
	return s3Storage, nil
}
