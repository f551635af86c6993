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

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/indicrafts/api/internal/geocoding"
	"github.com/indicrafts/api/internal/handlers"
	"github.com/indicrafts/api/internal/platform/auth"
	"github.com/indicrafts/api/internal/platform/config"
	pfirestore "github.com/indicrafts/api/internal/platform/firestore"
	"github.com/indicrafts/api/internal/platform/jobs"
	"github.com/indicrafts/api/internal/platform/observability"
	"github.com/indicrafts/api/internal/platform/secrets"
	"github.com/indicrafts/api/internal/repositories"
	firestoreRepo "github.com/indicrafts/api/internal/repositories/firestore"
	"github.com/indicrafts/api/internal/services"
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

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	fetcher, err := newSecretFetcher(ctx, logger, envValues)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
	)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(envValues, startedAt)

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	productRepo, err := firestoreRepo.NewProductRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise product repository", zap.Error(err))
	}
	orderRepo, err := firestoreRepo.NewOrderRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise order repository", zap.Error(err))
	}
	auditRepo, err := firestoreRepo.NewAuditLogRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise audit log repository", zap.Error(err))
	}

	geocoder := newGeocoder(logger, cfg)

	shippingEngine, err := services.NewShippingEngine(services.ShippingEngineDeps{
		Config:   cfg.Shipping,
		Geocoder: geocoder,
		Logger:   logger.Named("shipping").Sugar(),
	})
	if err != nil {
		logger.Fatal("failed to initialise shipping engine", zap.Error(err))
	}

	auditService, err := services.NewAuditLogService(services.AuditLogServiceDeps{
		Repository: auditRepo,
		Clock:      time.Now,
		Logger:     logger.Named("audit").Sugar(),
		HashSalt:   strings.TrimSpace(envValues["API_AUDIT_HASH_SALT"]),
	})
	if err != nil {
		logger.Fatal("failed to initialise audit log service", zap.Error(err))
	}

	var publisher services.ApprovalEventPublisher
	if cfg.Features.EnableApprovalEvents && cfg.Jobs.ProjectID != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.Jobs.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()
		topic := pubsubClient.Topic(cfg.Jobs.ApprovalTopic)
		defer topic.Stop()
		publisher, err = jobs.NewPubSubApprovalPublisher(topic)
		if err != nil {
			logger.Fatal("failed to initialise approval publisher", zap.Error(err))
		}
	} else {
		logger.Info("approval events disabled; moderation decisions will not be published")
	}

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products:  productRepo,
		Shipping:  shippingEngine,
		Geocoder:  geocoder,
		Audit:     auditService,
		Publisher: publisher,
		Logger:    logger.Named("catalog").Sugar(),
		Clock:     time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	reportingService, err := services.NewReportingService(services.ReportingServiceDeps{
		Products: productRepo,
		Orders:   orderRepo,
		Shipping: shippingEngine,
		Clock:    time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise reporting service", zap.Error(err))
	}

	systemService, err := newSystemService(firestoreClient, fetcher, buildInfo, auditService)
	if err != nil {
		logger.Warn("health: system service init failed", zap.Error(err))
	}

	var authn *auth.Middleware
	if strings.TrimSpace(cfg.Auth.JWTSecret) != "" {
		verifier, err := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
		if err != nil {
			logger.Fatal("failed to initialise token verifier", zap.Error(err))
		}
		authn = auth.NewMiddleware(verifier)
	} else {
		logger.Warn("auth: JWT secret not configured; protected routes will reject requests")
	}

	shippingHandlers := handlers.NewShippingHandlers(shippingEngine)
	productHandlers := handlers.NewProductHandlers(catalogService, authn)
	adminHandlers := handlers.NewAdminCatalogHandlers(catalogService, shippingEngine, reportingService, systemService)

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthSystemService(systemService),
	)

	projectID := strings.TrimSpace(cfg.Firestore.ProjectID)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	opts := []handlers.Option{
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithShippingRoutes(shippingHandlers.Routes),
		handlers.WithShippingMiddlewares(handlers.RateLimitByClientIP(cfg.RateLimits.DefaultPerMinute, time.Minute)),
		handlers.WithProductRoutes(productHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
	}
	if authn != nil {
		opts = append(opts, handlers.WithAdminMiddlewares(authn.RequireRole("admin")))
	}

	router := handlers.NewRouter(opts...)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("indicrafts api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildInfoFromEnv(env map[string]string, started time.Time) services.BuildInfo {
	lookup := func(key, fallback string) string {
		if env == nil {
			return fallback
		}
		if value := strings.TrimSpace(env[key]); value != "" {
			return value
		}
		return fallback
	}
	return services.BuildInfo{
		Version:     lookup("API_BUILD_VERSION", "dev"),
		CommitSHA:   lookup("API_BUILD_COMMIT_SHA", "unknown"),
		Environment: lookup("API_ENVIRONMENT", "local"),
		StartedAt:   started,
	}
}

func newGeocoder(logger *zap.Logger, cfg config.Config) services.GeocodeResolver {
	client := geocoding.NewNominatimClient(
		geocoding.WithBaseURL(cfg.Geocoding.BaseURL),
		geocoding.WithTimeout(cfg.Geocoding.Timeout),
		geocoding.WithUserAgent(cfg.Geocoding.UserAgent),
		geocoding.WithCountryHint(cfg.Geocoding.CountryHint),
	)

	opts := []geocoding.ResolverOption{
		geocoding.WithResolverLogger(logger.Named("geocoding")),
	}
	if cfg.Features.EnableGeocodeCache {
		opts = append(opts, geocoding.WithCache(geocoding.NewCache(cfg.Geocoding.CacheTTL, cfg.Geocoding.CacheMaxEntries)))
	}
	return geocoding.NewResolver(client, opts...)
}

func newSystemService(client *firestore.Client, fetcher *secrets.Fetcher, build services.BuildInfo, audit services.AuditLogService) (services.SystemService, error) {
	checks := make([]repositories.DependencyCheck, 0, 2)
	if client != nil {
		c := client
		checks = append(checks, repositories.DependencyCheck{
			Name:    "firestore",
			Timeout: 1500 * time.Millisecond,
			Check: func(ctx context.Context) error {
				iter := c.Collections(ctx)
				_, err := iter.Next()
				if errors.Is(err, iterator.Done) {
					return nil
				}
				return err
			},
		})
	}
	if fetcher != nil {
		const secretHealthReference = "secret://system/healthz?version=latest"
		checks = append(checks, repositories.DependencyCheck{
			Name:    "secretManager",
			Timeout: time.Second,
			Check: func(ctx context.Context) error {
				_, err := fetcher.Resolve(ctx, secretHealthReference)
				if err == nil {
					return nil
				}
				if st, ok := status.FromError(err); ok && st.Code() == codes.NotFound {
					return nil
				}
				return err
			},
		})
	}
	if len(checks) == 0 {
		return nil, errors.New("health: no dependency checks configured")
	}
	repo, err := repositories.NewDependencyHealthRepository(checks)
	if err != nil {
		return nil, err
	}
	return services.NewSystemService(services.SystemServiceDeps{
		HealthRepository: repo,
		Clock:            time.Now,
		Build:            build,
		Audit:            audit,
	})
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger, env map[string]string) (*secrets.Fetcher, error) {
	lookup := func(key string) string {
		if env == nil {
			return ""
		}
		return strings.TrimSpace(env[key])
	}

	fallbackPath := lookup("API_SECRET_FALLBACK_FILE")
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}

	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if project := lookup("API_SECRET_DEFAULT_PROJECT_ID"); project != "" {
		opts = append(opts, secrets.WithDefaultProject(project))
	} else if project := lookup("API_FIRESTORE_PROJECT_ID"); project != "" {
		opts = append(opts, secrets.WithDefaultProject(project))
	}

	return secrets.NewFetcher(ctx, opts...)
}
