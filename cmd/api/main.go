package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/muebleria/api/internal/handlers"
	"github.com/muebleria/api/internal/platform/auth"
	"github.com/muebleria/api/internal/platform/config"
	"github.com/muebleria/api/internal/platform/events"
	pfirestore "github.com/muebleria/api/internal/platform/firestore"
	"github.com/muebleria/api/internal/platform/observability"
	firestoreRepo "github.com/muebleria/api/internal/repositories/firestore"
	"github.com/muebleria/api/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("invalid configuration", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	if _, err := firestoreProvider.Client(ctx); err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	catalogRepo, err := firestoreRepo.NewCatalogRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise catalog repository", zap.Error(err))
	}
	orderRepo, err := firestoreRepo.NewOrderRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}
	userRepo, err := firestoreRepo.NewUserRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise user repository", zap.Error(err))
	}
	healthRepo, err := firestoreRepo.NewHealthRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise health repository", zap.Error(err))
	}
	unitOfWork, err := firestoreRepo.NewUnitOfWork(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise unit of work", zap.Error(err))
	}

	var publisher services.OrderEventPublisher
	var pubsubClient *pubsub.Client
	if strings.TrimSpace(cfg.Events.Topic) != "" && strings.TrimSpace(cfg.Events.ProjectID) != "" {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.Events.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		publisher, err = events.NewPubSubOrderPublisher(pubsubClient.Topic(cfg.Events.Topic))
		if err != nil {
			logger.Fatal("failed to initialise order event publisher", zap.Error(err))
		}
	} else {
		logger.Info("order event publishing disabled")
	}
	defer func() {
		if pubsubClient != nil {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}
	}()

	signer, err := auth.NewSigner(cfg.Auth.JWTSecret, cfg.Auth.Issuer, auth.WithTokenTTL(cfg.Auth.TokenTTL))
	if err != nil {
		logger.Fatal("failed to initialise token signer", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(signer)

	idGenerator := func() string {
		return strings.ToLower(ulid.Make().String())
	}
	serviceLogger := observability.ServiceLogger(logger.Named("services"))

	pricingEngine, err := services.NewOrderPricingEngine(services.OrderPricingEngineDeps{
		Catalog: catalogRepo,
	})
	if err != nil {
		logger.Fatal("failed to initialise pricing engine", zap.Error(err))
	}
	stockLedger, err := services.NewReservationLedger(services.ReservationLedgerDeps{
		Orders: orderRepo,
	})
	if err != nil {
		logger.Fatal("failed to initialise stock ledger", zap.Error(err))
	}
	orderService, err := services.NewOrderService(services.DefaultOrderServiceDeps{
		Orders:      orderRepo,
		Catalog:     catalogRepo,
		Pricing:     pricingEngine,
		Ledger:      stockLedger,
		UnitOfWork:  unitOfWork,
		Publisher:   publisher,
		Clock:       time.Now,
		IDGenerator: idGenerator,
		Logger:      serviceLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}
	catalogService, err := services.NewCatalogService(services.DefaultCatalogServiceDeps{
		Catalog:     catalogRepo,
		Clock:       time.Now,
		IDGenerator: idGenerator,
		Logger:      serviceLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}
	authService, err := services.NewAuthService(services.DefaultAuthServiceDeps{
		Users:       userRepo,
		Issuer:      signer,
		Clock:       time.Now,
		IDGenerator: idGenerator,
		Logger:      serviceLogger,
	})
	if err != nil {
		logger.Fatal("failed to initialise auth service", zap.Error(err))
	}

	authHandlers := handlers.NewAuthHandlers(authService)
	catalogHandlers := handlers.NewCatalogHandlers(authenticator, catalogService)
	orderHandlers := handlers.NewOrderHandlers(authenticator, orderService)
	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(handlers.BuildInfo{
			Version:     strings.TrimSpace(os.Getenv("API_VERSION")),
			Environment: cfg.Security.Environment,
			StartedAt:   startedAt,
		}),
		handlers.WithHealthRepository(healthRepo),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.TraceMiddleware(cfg.Firestore.ProjectID),
			observability.RecoveryMiddleware(logger),
			observability.RequestLoggerMiddleware(cfg.Firestore.ProjectID),
		),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithAuthRoutes(authHandlers.Routes),
		handlers.WithItemRoutes(catalogHandlers.ItemRoutes),
		handlers.WithVariantRoutes(catalogHandlers.VariantRoutes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + strings.TrimPrefix(cfg.Server.Port, ":"),
		Handler:      http.MaxBytesHandler(router, cfg.Server.MaxBodyBytes),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-shutdownCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
		return
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(drainCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		_ = server.Close()
	}
	logger.Info("server stopped")
}
