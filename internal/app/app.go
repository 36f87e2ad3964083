// Package app wires configuration, storage, messaging and HTTP into one server.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hystore/internal/cache"
	"hystore/internal/config"
	"hystore/internal/handlers"
	"hystore/internal/locker"
	"hystore/internal/models"
	"hystore/internal/repositories"
	"hystore/internal/services"
	"hystore/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// App is a fully wired HyStore server.
type App struct {
	Fiber    *fiber.App
	Services handlers.Services
	Store    *repositories.Set

	cfg     *config.Config
	logger  *zap.Logger
	closers []func() error
}

// New opens every backing resource named in cfg and mounts the HTTP routes.
// Redis is required when configured; RabbitMQ is optional and only logged
// when unreachable.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger}

	store, err := a.openStore()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store

	var (
		cartCache cache.CartCache = cache.NoopCache{}
		lk        locker.Locker   = locker.NewKeyedMutex()
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.closers = append(a.closers, rdb.Close)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		cartCache = cache.NewRedisCache(rdb)
		lk = locker.NewRedisLocker(rdb, cfg.CheckoutLockTTL, logger)
		logger.Info("redis connected", zap.String("addr", cfg.RedisAddr))
	}

	var (
		publisher   services.EventPublisher
		orderEvents handlers.OrderEventStats
	)
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, logger)
		if err != nil {
			logger.Warn("order events disabled", zap.Error(err))
		} else {
			a.closers = append(a.closers, mq.Close)
			publisher = mq
			events := rabbitmq.NewOrderEventHandler(logger)
			if err := mq.ConsumeOrderEvents(events.Handle); err != nil {
				logger.Warn("order event consumer not started", zap.Error(err))
			} else {
				orderEvents = events
			}
		}
	}

	authService := services.NewAuthService(store.Customers, cfg.JWTSecret, cfg.JWTTTL, logger)
	cartService := services.NewCartService(store.Carts, store.Products, cartCache, logger)
	a.Services = handlers.Services{
		Auth:     authService,
		Products: services.NewProductService(store.Products),
		Carts:    cartService,
		Orders:   services.NewOrderService(store.Checkout, store.Orders, cartService, lk, publisher, logger),
		Reports:  services.NewReportService(store.Customers, store.Orders, store.Reports, logger),

		OrderEvents: orderEvents,
	}

	if err := a.seed(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.Fiber = fiber.New(fiber.Config{AppName: "HyStore"})
	a.Fiber.Use(recover.New())
	a.Fiber.Use(fiberlogger.New())
	handlers.SetupRoutes(a.Fiber, a.Services, logger)

	return a, nil
}

func (a *App) openStore() (*repositories.Set, error) {
	var dialector gorm.Dialector
	switch a.cfg.DBDriver {
	case config.DriverMemory:
		a.logger.Info("using in-memory storage")
		return repositories.NewMockSet(), nil
	case config.DriverSQLite:
		dialector = sqlite.Open(a.cfg.DatabaseDSN)
	case config.DriverPostgres:
		dialector = postgres.Open(a.cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown database driver %q", a.cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	a.closers = append(a.closers, sqlDB.Close)
	if a.cfg.DBDriver == config.DriverSQLite {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	}

	if err := repositories.AutoMigrate(db); err != nil {
		return nil, err
	}
	a.logger.Info("database ready", zap.String("driver", a.cfg.DBDriver))
	return repositories.NewGORMSet(db), nil
}

func (a *App) seed(ctx context.Context) error {
	staff := []struct {
		username, password string
		role               models.Role
	}{
		{a.cfg.AdminUsername, a.cfg.AdminPassword, models.RoleAdmin},
		{a.cfg.AdvertiserUsername, a.cfg.AdvertiserPassword, models.RoleAdvertiser},
	}
	for _, s := range staff {
		if s.password == "" {
			a.logger.Warn("staff account not seeded, no password configured", zap.String("role", string(s.role)))
			continue
		}
		if err := a.Services.Auth.EnsureStaffAccount(ctx, s.username, s.password, s.role); err != nil {
			return fmt.Errorf("failed to seed %s account: %w", s.role, err)
		}
	}

	if !a.cfg.SeedDemoProducts {
		return nil
	}
	existing, err := a.Services.Products.GetAllProducts(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, p := range demoProducts() {
		if err := a.Services.Products.CreateProduct(ctx, &p); err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.Name, err)
		}
		a.logger.Debug("seeded product", zap.String("id", p.ID), zap.String("name", p.Name))
	}
	return nil
}

func demoProducts() []models.Product {
	return []models.Product{
		{Name: "Birthday HyCard", Description: "Confetti card with a preloadable balance", Price: decimal.RequireFromString("12.50"), ImageRef: "/images/birthday.png"},
		{Name: "Thank You HyCard", Description: "Minimal card for saying thanks", Price: decimal.RequireFromString("9.00"), ImageRef: "/images/thank-you.png"},
		{Name: "Holiday HyCard", Description: "Seasonal card with a custom message", Price: decimal.RequireFromString("14.75"), ImageRef: "/images/holiday.png"},
		{Name: "Congratulations HyCard", Description: "Gold foil card for big moments", Price: decimal.RequireFromString("11.25"), ImageRef: "/images/congrats.png"},
	}
}

// Listen serves HTTP on the configured port until Shutdown.
func (a *App) Listen() error {
	a.logger.Info("starting server", zap.String("port", a.cfg.AppPort))
	return a.Fiber.Listen(a.cfg.AppPort)
}

// Shutdown stops the HTTP server and then releases every backing resource.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Fiber != nil {
		if err := a.Fiber.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("fiber shutdown: %w", err))
		}
	}
	if err := a.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close releases the database, Redis and RabbitMQ connections in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
