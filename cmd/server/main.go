package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/seu-repo/invoice-stripe-driver/internal/adapter/cache"
	stripeadapter "github.com/seu-repo/invoice-stripe-driver/internal/adapter/external/payment"
	"github.com/seu-repo/invoice-stripe-driver/internal/adapter/http/fiber/handlers"
	"github.com/seu-repo/invoice-stripe-driver/internal/adapter/http/fiber/middleware"
	"github.com/seu-repo/invoice-stripe-driver/internal/adapter/queue"
	"github.com/seu-repo/invoice-stripe-driver/internal/adapter/storage/postgres"
	"github.com/seu-repo/invoice-stripe-driver/internal/adapter/vault"
	"github.com/seu-repo/invoice-stripe-driver/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/invoice-stripe-driver/internal/observability/telemetry"
	"github.com/seu-repo/invoice-stripe-driver/internal/ports"
	"github.com/seu-repo/invoice-stripe-driver/internal/service/health"
	"github.com/seu-repo/invoice-stripe-driver/internal/service/payment"
	"github.com/seu-repo/invoice-stripe-driver/pkg/config"
)

func main() {
	// 1. Initialize Logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// 2. Load Configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger.Info("Starting invoice Stripe driver",
		zap.String("service", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	// 3. Driver settings, with Stripe keys overlaid from Vault when enabled
	settings := config.NewStripeSettings(cfg.App, cfg.Payment.Stripe)
	if cfg.Vault.Enabled {
		loadVaultKeys(cfg.Vault, settings, logger)
	}

	// 4. Initialize OpenTelemetry (Distributed Tracing)
	if cfg.OpenTelemetry.Enabled {
		tracerProvider, err := telemetry.InitTracer(
			cfg.OpenTelemetry.ServiceName,
			cfg.App.Version,
			cfg.OpenTelemetry.Jaeger.Endpoint,
			cfg.OpenTelemetry.Jaeger.SamplerParam,
		)
		if err != nil {
			logger.Fatal("Failed to initialize tracer", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				logger.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()
	}

	// 5. Initialize PostgreSQL Connection Pool
	db, err := postgres.NewConnection(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer postgres.Close(db)

	if cfg.Database.AutoMigrate {
		if err := postgres.RunMigrations(db); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// 6. Customer link cache: Redis, or in-process when Redis is absent
	customerCache := newCache(cfg.Redis, logger)
	defer customerCache.Close()

	// 7. Outcome event transport
	events, closeEvents := newEventPublisher(cfg, logger)
	defer closeEvents()

	// 8. Stripe gateway, one breaker per secret key
	breaker := circuitbreaker.DefaultSettings("stripe")
	if cfg.CircuitBreaker.MaxRequests > 0 {
		breaker.MaxRequests = cfg.CircuitBreaker.MaxRequests
	}
	if cfg.CircuitBreaker.Interval > 0 {
		breaker.Interval = cfg.CircuitBreaker.Interval
	}
	if cfg.CircuitBreaker.Timeout > 0 {
		breaker.Timeout = cfg.CircuitBreaker.Timeout
	}
	if cfg.CircuitBreaker.FailureThreshold > 0 {
		breaker.FailureThreshold = cfg.CircuitBreaker.FailureThreshold
	}

	var gatewayMiddleware []stripeadapter.Middleware
	if cfg.CircuitBreaker.Enabled {
		gatewayMiddleware = append(gatewayMiddleware, circuitbreaker.Middleware(breaker, logger))
	}
	gateways := stripeadapter.NewProvider(stripeadapter.ProviderConfig{
		APIURL:  cfg.Payment.Stripe.APIURL,
		Timeout: cfg.Payment.Stripe.Timeout,
	}, logger, gatewayMiddleware...)

	// 9. Repositories and the payment driver
	customerRepo := postgres.NewCustomerRepository(db, logger)
	sourceRepo := postgres.NewSourceRepository(db, logger)

	paymentService := payment.NewService(settings, gateways, customerRepo, sourceRepo, customerCache, events, logger)
	if !paymentService.IsAvailable() {
		logger.Warn("Stripe keys are missing for this environment; the driver will refuse payments")
	}

	// 10. Health checks
	healthService := health.NewService(&health.Config{
		Version: cfg.App.Version,
		DB:      sqlDB(db, logger),
		Cache:   customerCache,
		Driver:  paymentService,
	}, logger)

	// 11. Initialize Fiber HTTP Server
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		ServerHeader:          cfg.App.Name,
		DisableStartupMessage: true,
		ReadTimeout:           cfg.HTTP.ReadTimeout,
		WriteTimeout:          cfg.HTTP.WriteTimeout,
		IdleTimeout:           cfg.HTTP.IdleTimeout,
		ErrorHandler:          middleware.ErrorHandler(logger),
	})

	// Global Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(middleware.NewCORS(cfg.CORS))

	health.NewFiberHandler(healthService).RegisterRoutes(app)

	// Metrics endpoint for Prometheus
	if cfg.Prometheus.Enabled {
		metricsHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
		app.Get(cfg.Prometheus.Path, func(c *fiber.Ctx) error {
			metricsHandler(c.Context())
			return nil
		})
	}

	// API v1 Routes
	v1 := app.Group("/api/v1",
		middleware.AuthRequired(cfg.JWT),
		middleware.CircuitBreaker(cfg.CircuitBreaker, logger),
	)

	paymentHandler := handlers.NewPaymentHandler(paymentService, sourceRepo, logger)
	v1.Post("/charges", paymentHandler.Charge)
	v1.Post("/charges/sca", paymentHandler.Authenticate)
	v1.Post("/refunds", paymentHandler.Refund)
	v1.Post("/sources", paymentHandler.CreateSource)
	v1.Patch("/sources/:id", paymentHandler.UpdateSource)
	v1.Delete("/sources/:id", paymentHandler.DeleteSource)
	v1.Put("/customers/:id", paymentHandler.SyncCustomer)
	v1.Delete("/customers/:id", paymentHandler.RemoveCustomer)
	v1.Get("/driver", paymentHandler.Driver)

	// 12. Start HTTP Server
	go func() {
		logger.Info("Starting HTTP Server", zap.Int("port", cfg.HTTP.Port))
		if err := app.Listen(fmt.Sprintf(":%d", cfg.HTTP.Port)); err != nil {
			logger.Fatal("HTTP Server failed", zap.Error(err))
		}
	}()

	// 13. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited gracefully")
}

func loadVaultKeys(cfg config.VaultConfig, settings *config.StripeSettings, logger *zap.Logger) {
	sm, err := vault.NewSecretManager(cfg.Address, cfg.Token)
	if err != nil {
		logger.Fatal("Failed to create Vault client", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	n, err := sm.ApplyStripeKeys(ctx, cfg.StripePath, settings)
	if err != nil {
		logger.Fatal("Failed to load Stripe keys from Vault", zap.Error(err))
	}
	logger.Info("Loaded Stripe keys from Vault", zap.Int("keys", n))
}

func newCache(cfg config.RedisConfig, logger *zap.Logger) ports.Cache {
	if cfg.URL != "" {
		redisCache, err := cache.NewRedisCache(cfg.URL, logger)
		if err == nil {
			return redisCache
		}
		logger.Warn("Redis unavailable, falling back to local cache", zap.Error(err))
	}
	return cache.NewLocalCache(time.Minute, logger)
}

// newEventPublisher returns a nil publisher when events are disabled.
func newEventPublisher(cfg *config.Config, logger *zap.Logger) (ports.EventPublisher, func()) {
	var (
		mq  queue.MessageQueue
		err error
	)
	switch cfg.Events.Transport {
	case "nats":
		mq, err = queue.NewNATSQueue(cfg.NATS, cfg.App.Name, logger)
	case "rabbitmq":
		mq, err = queue.NewRabbitMQQueue(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, logger)
	case "", "none":
		return nil, func() {}
	default:
		logger.Fatal("Unknown event transport", zap.String("transport", cfg.Events.Transport))
	}
	if err != nil {
		logger.Fatal("Failed to connect event transport",
			zap.String("transport", cfg.Events.Transport),
			zap.Error(err),
		)
	}

	return queue.NewEventPublisher(mq, logger), func() {
		if err := mq.Close(); err != nil {
			logger.Warn("Failed to close event transport", zap.Error(err))
		}
	}
}

func sqlDB(db *gorm.DB, logger *zap.Logger) *sql.DB {
	s, err := db.DB()
	if err != nil {
		logger.Fatal("Failed to get underlying SQL DB", zap.Error(err))
	}
	return s
}
