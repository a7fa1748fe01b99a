package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/fjod/go_cart/checkout/internal/cache"
	"github.com/fjod/go_cart/checkout/internal/cart"
	"github.com/fjod/go_cart/checkout/internal/cartstore"
	"github.com/fjod/go_cart/checkout/internal/checkout"
	"github.com/fjod/go_cart/checkout/internal/config"
	"github.com/fjod/go_cart/checkout/internal/coupon"
	"github.com/fjod/go_cart/checkout/internal/gateway"
	checkoutgrpc "github.com/fjod/go_cart/checkout/internal/grpc"
	h "github.com/fjod/go_cart/checkout/internal/http"
	"github.com/fjod/go_cart/checkout/internal/poller"
	"github.com/fjod/go_cart/checkout/internal/publisher"
	"github.com/fjod/go_cart/checkout/internal/repository"
	"github.com/fjod/go_cart/checkout/internal/seed"
	"github.com/fjod/go_cart/checkout/internal/service"
	"github.com/fjod/go_cart/checkout/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("checkout service stopped with error", zap.Error(err))
	}
	log.Info("checkout service stopped")
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("checkout service starting...")
	ctx := context.Background()

	// Postgres: orders, payments, coupons, addresses
	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	repo, err := repository.NewRepository(creds)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database migrations completed")

	// MongoDB: carts and products
	mongoDB, err := cartstore.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return err
	}
	defer func() { _ = mongoDB.Client().Disconnect(context.Background()) }()

	store := cartstore.NewMongoStore(mongoDB)
	if err := store.CreateIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create mongo indexes: %w", err)
	}
	log.Info("connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	if cfg.SeedFile != "" {
		seedData, err := seed.LoadFile(cfg.SeedFile)
		if err != nil {
			return err
		}
		if err := seed.Apply(ctx, seedData, repo, store, log); err != nil {
			return err
		}
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	log.Info("redis ping succeeded")

	cartService := cartstore.NewService(store, cache.NewRedisCache(redisClient, cfg.CartCacheTTL), log)

	events, err := publisher.New(publisher.Config{
		Brokers:           cfg.Brokers(),
		OutcomeTopic:      cfg.OutcomeTopic,
		CompensationTopic: cfg.CompensationTopic,
	}, log)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	defer events.Close()

	// Collaborators with per-call timeouts
	cartHandler := service.NewCartHandler(cartService, cfg.RequestTimeout)
	addressHandler := service.NewAddressHandler(repo, cfg.RequestTimeout)
	orderHandler := service.NewOrderHandler(repo, cfg.RequestTimeout)
	couponHandler := service.NewCouponHandler(repo, cfg.RequestTimeout)
	statusHandler := service.NewStatusHandler(repo, cfg.RequestTimeout)

	broker := gateway.NewBroker()
	gatewayClient := gateway.NewClient(gateway.Config{
		BaseURL:   cfg.GatewayBaseURL,
		KeyID:     cfg.GatewayKeyID,
		KeySecret: cfg.GatewayKeySecret,
		Timeout:   cfg.GatewayTimeout,
	}, broker, log)

	confirmer := poller.NewPoller(statusHandler, log,
		poller.WithInterval(cfg.PollInterval),
		poller.WithBackoffStep(cfg.PollBackoffStep),
		poller.WithCountdownTick(cfg.CountdownTick),
		poller.WithTimeout(cfg.ConfirmationTimeout))

	aggregator := cart.NewAggregator(cart.ShippingRule{
		FreeAbove: cfg.FreeShippingThreshold,
		Fee:       cfg.ShippingFee,
		Basis:     cart.ShippingBasis(cfg.ShippingBasis),
	}, cfg.Currency)

	checkoutCfg := checkout.DefaultConfig()
	checkoutCfg.Currency = cfg.Currency
	checkoutCfg.ConfirmationTimeout = cfg.ConfirmationTimeout
	checkoutCfg.CompensationTimeout = cfg.CompensationTimeout

	validate := validator.New(validator.WithRequiredStructEnabled())
	registry := service.NewRegistry(checkout.Deps{
		Cart:      cartHandler,
		Addresses: addressHandler,
		Orders:    orderHandler,
		Gateway:   gateway.NewSession(gatewayClient, log),
		Confirmer: confirmer,
		Coupons:   coupon.NewEngine(couponHandler),
		Usage:     couponHandler,
		Events:    events,
	}, aggregator, checkoutCfg, validate, log)

	evictCtx, stopEviction := context.WithCancel(ctx)
	defer stopEviction()
	go registry.RunEviction(evictCtx, cfg.EvictionInterval, cfg.CheckoutIdleTTL)

	payments := service.NewPayments(repo, cartHandler, broker, cfg.WebhookSecret, cfg.RequestTimeout, log)

	router := h.NewRouter(h.Handlers{
		Cart:     h.NewCartHandler(service.NewCartView(cartHandler, aggregator), validate, log),
		Checkout: h.NewCheckoutHandler(registry, validate, log),
		Payment:  h.NewPaymentHandler(payments, validate, log),
	}, cfg.RequestTimeout, log)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "checkout-http"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// gRPC health for the orchestrator
	healthServer := checkoutgrpc.NewHealthServer(log)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go healthServer.Watch(watchCtx, 10*time.Second, 2*time.Second, map[string]checkoutgrpc.Check{
		"postgres": repo.Ping,
		"mongodb":  func(ctx context.Context) error { return mongoDB.Client().Ping(ctx, nil) },
		"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	})

	errCh := make(chan error, 2)
	go func() {
		log.Info("health server listening", zap.String("port", cfg.GRPCPort))
		if err := healthServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		log.Info("http server listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case serveErr = <-errCh:
		log.Error("server failed, shutting down", zap.Error(serveErr))
	}

	stopWatch()
	stopEviction()
	healthServer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server forced to shutdown", zap.Error(err))
	}
	// In-flight attempts are cancelled; orders still awaiting the gateway UI
	// are discarded by their compensation.
	if err := registry.Shutdown(shutdownCtx); err != nil {
		log.Error("payment attempts did not finish before shutdown deadline", zap.Error(err))
	}
	return serveErr
}
