// Package app assembles the storefront API from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"rempah/internal/config"
	"rempah/internal/handlers"
	"rempah/internal/metrics"
	"rempah/internal/middleware"
	"rempah/internal/models"
	"rempah/internal/repositories"
	"rempah/internal/services"
	"rempah/pkg/logging"
	"rempah/pkg/mailer"
	"rempah/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/redis/go-redis/v9"
	gobreaker "github.com/sony/gobreaker/v2"
	"gorm.io/gorm"
)

// App is a fully wired API server and the resources it owns.
type App struct {
	Fiber *fiber.App
	Auth  *services.AuthService
	Users repositories.UserRepository

	cfg     *config.Config
	mq      *rabbitmq.Client
	closers []func(context.Context) error
}

type stores struct {
	db       *gorm.DB
	users    repositories.UserRepository
	products repositories.ProductRepository
	orders   repositories.OrderRepository
	messages repositories.MessageRepository
}

// New connects every configured backend and builds the HTTP app. Optional
// backends (RabbitMQ, Redis, MongoDB, SMTP) are skipped when unconfigured.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	st, err := a.openStores(ctx)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Users = st.users

	if cfg.SeedProducts {
		seedProducts(ctx, st.products)
	}

	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		a.mq = mq
		a.closers = append(a.closers, func(context.Context) error { return mq.Close() })
		events = mq
	}

	mail := newMailSender(cfg)

	productService := services.NewProductService(st.products, cfg.ProductPageSize)
	reviewService := services.NewReviewService(st.products)
	orderService := services.NewOrderService(st.orders, st.products, st.users, mail, events)
	userService := services.NewUserService(st.users, st.products)
	messageService := services.NewMessageService(st.messages, mail, cfg.SiteOwnerEmail)
	a.Auth = services.NewAuthService(st.users, mail, services.AuthConfig{
		JWTSecret:    cfg.JWTSecret,
		TokenTTL:     cfg.JWTTTL,
		TwoFactorTTL: cfg.TwoFactorTTL,
		FrontendURL:  cfg.FrontendURL,
	})

	app := fiber.New(fiber.Config{AppName: "rempah"})
	app.Use(logger.New())
	app.Use(metrics.Middleware())

	guards := handlers.Guards{
		Auth:  middleware.AuthRequired(a.Auth, userService),
		Admin: middleware.AdminRequired(),
	}
	api := app.Group("/api")
	handlers.NewProductHandler(productService, reviewService).RegisterRoutes(api, guards)
	handlers.NewOrderHandler(orderService).RegisterRoutes(api, guards)
	handlers.NewAuthHandler(a.Auth).RegisterRoutes(api, guards)
	handlers.NewUserHandler(userService, a.Auth).RegisterRoutes(api, guards)
	handlers.NewMessageHandler(messageService).RegisterRoutes(api)

	app.Get("/health", a.health(st.db))
	app.Get("/metrics", metrics.Handler())

	a.Fiber = app
	return a, nil
}

func (a *App) openStores(ctx context.Context) (*stores, error) {
	cfg := a.cfg
	st := &stores{}

	if cfg.DBDriver == "memory" {
		st.users = repositories.NewMockUserRepository()
		st.products = repositories.NewMockProductRepository()
		st.orders = repositories.NewMockOrderRepository()
		st.messages = repositories.NewMockMessageRepository()
	} else {
		db, err := repositories.OpenDB(cfg.DBDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		st.db = db
		a.closers = append(a.closers, func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
		st.users = repositories.NewGORMUserRepository(db)
		st.products = repositories.NewGORMProductRepository(db)
		st.orders = repositories.NewGORMOrderRepository(db)
		st.messages = repositories.NewGORMMessageRepository(db)
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		st.products = repositories.NewCachedProductRepository(st.products,
			repositories.NewRedisProductCache(rdb, cfg.ProductCacheTTL))
		logging.Info().Str("addr", cfg.RedisAddr).Msg("product cache enabled")
	}

	if cfg.MongoURI != "" {
		mongoRepo, err := repositories.NewMongoMessageRepository(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, mongoRepo.Close)
		st.messages = mongoRepo
		logging.Info().Str("database", cfg.MongoDatabase).Msg("contact messages stored in MongoDB")
	}

	return st, nil
}

// newMailSender returns an SMTP sender behind a circuit breaker, or a
// logging sender when no relay is configured.
func newMailSender(cfg *config.Config) mailer.Sender {
	if cfg.SMTP.Host == "" {
		logging.Warn().Msg("SMTP_HOST not set, notifications are only logged")
		return mailer.NewLogSender(logging.With("mailer"))
	}
	smtp := mailer.NewSMTPSender(mailer.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	})
	return mailer.NewBreakerSender(smtp, mailer.BreakerSettings{
		OnStateChange: func(from, to gobreaker.State) {
			metrics.MailBreakerState.Set(float64(to))
			logging.Warn().Str("from", from.String()).Str("to", to.String()).Msg("mail circuit breaker changed state")
		},
	})
}

func (a *App) health(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		}
		if db != nil {
			database := "connected"
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
				database = "unreachable"
				status["status"] = "degraded"
			}
			status["database"] = database
		}
		if a.mq != nil {
			status["rabbitmq"] = "connected"
		}
		return c.JSON(status)
	}
}

// StartConsumers starts the background order-event consumer when RabbitMQ
// is configured.
func (a *App) StartConsumers() error {
	if a.mq == nil {
		return nil
	}
	return a.mq.ConsumeOrderEvents(handleOrderEvent)
}

// Close releases every backend connection in reverse order of acquisition.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func seedProducts(ctx context.Context, repo repositories.ProductRepository) {
	_, total, err := repo.List(ctx, repositories.ProductQuery{Limit: 1})
	if err != nil || total > 0 {
		return
	}
	samples := []models.Product{
		{Name: "Kanda Lasoon Masala", Description: "Spicy onion garlic mix.", Price: 120, ImageURL: "/images/kanda-lasoon-masala.jpg", Category: "Masalas", InStock: true},
		{Name: "Garam Masala", Description: "Warm whole-spice blend.", Price: 150, ImageURL: "/images/garam-masala.jpg", Category: "Masalas", InStock: true},
		{Name: "Kashmiri Red Chilli Powder", Description: "Bright colour, gentle heat.", Price: 90, ImageURL: "/images/kashmiri-chilli.jpg", Category: "Powders", InStock: true},
	}
	for i := range samples {
		if err := repo.Create(ctx, &samples[i]); err != nil {
			logging.Warn().Err(err).Str("product", samples[i].Name).Msg("failed to seed product")
			continue
		}
		logging.Info().Str("product", samples[i].Name).Str("id", samples[i].ID).Msg("seeded product")
	}
}
