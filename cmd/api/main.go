package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/flicky/go-storefront/internal/catalog"
	"github.com/flicky/go-storefront/internal/config"
	"github.com/flicky/go-storefront/internal/handler"
	"github.com/flicky/go-storefront/internal/repository"
	"github.com/flicky/go-storefront/internal/service"
	"github.com/flicky/go-storefront/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Redis
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Error("connect to Redis", "error", err)
			os.Exit(1)
		}
		log.Info("connected to Redis")
	}

	// Slot storage
	var slots repository.SlotRepository
	switch cfg.Storage.Driver {
	case "postgres":
		poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
		if err != nil {
			log.Error("parse db config", "error", err)
			os.Exit(1)
		}
		poolCfg.MaxConns = cfg.DB.MaxConns

		dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			log.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer dbPool.Close()

		if err := dbPool.Ping(ctx); err != nil {
			log.Error("ping database", "error", err)
			os.Exit(1)
		}
		if err := repository.Migrate(ctx, dbPool); err != nil {
			log.Error("migrate database", "error", err)
			os.Exit(1)
		}
		log.Info("connected to PostgreSQL")
		slots = repository.NewPostgresSlotRepository(dbPool)
	case "redis":
		slots = repository.NewRedisSlotRepository(redisClient, cfg.Storage.KeyPrefix, cfg.Storage.RedisTTL)
	default:
		slots = repository.NewMemorySlotRepository()
	}
	log.Info("slot storage ready", "driver", cfg.Storage.Driver)

	// RabbitMQ
	var (
		amqpConn *amqp.Connection
		amqpCh   *amqp.Channel
		events   service.OrderEvents
	)
	if cfg.RabbitMQ.URL != "" {
		amqpConn, err = amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			log.Error("connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer amqpConn.Close()

		amqpCh, err = amqpConn.Channel()
		if err != nil {
			log.Error("open RabbitMQ channel", "error", err)
			os.Exit(1)
		}
		defer amqpCh.Close()

		if err := worker.SetupRabbitMQ(amqpCh); err != nil {
			log.Error("setup RabbitMQ", "error", err)
			os.Exit(1)
		}
		events = worker.NewPublisher(amqpCh)
		log.Info("connected to RabbitMQ")
	}

	// Services
	catalogClient := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, cfg.Catalog.PageLimit)
	productSvc := service.NewProductService(catalogClient, redisClient, cfg.Catalog.CacheTTL, log)
	authSvc := service.NewAuthService(catalogClient, slots, cfg.JWT.Secret, cfg.JWT.Expiration, log)
	registry := service.NewRegistry(service.StorefrontConfig{
		Slots:         slots,
		Auth:          authSvc,
		Events:        events,
		OrderLatency:  cfg.Checkout.OrderLatency,
		CheckoutDelay: cfg.Checkout.ProcessingDelay,
		Log:           log,
	})

	// Router
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	handler.RegisterRoutes(router, handler.Handlers{
		Health:   handler.NewHealthHandler(slots, redisClient, amqpConn),
		Auth:     handler.NewAuthHandler(registry, log),
		Product:  handler.NewProductHandler(productSvc),
		Cart:     handler.NewCartHandler(registry, productSvc),
		Wishlist: handler.NewWishlistHandler(registry, productSvc),
		Order:    handler.NewOrderHandler(registry),
		Checkout: handler.NewCheckoutHandler(registry, log),
	}, cfg.JWT.Secret)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error { return registry.RunPruner(gctx, cfg.Storage.IdleTTL) })

	var fulfillment *worker.FulfillmentWorker
	if cfg.Fulfillment.Enabled && amqpCh != nil {
		fulfillment = worker.NewFulfillmentWorker(amqpCh, registry, redisClient, log)
		g.Go(func() error { return fulfillment.Run(gctx) })
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if fulfillment != nil {
			fulfillment.Stop()
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
