package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/cellarwise/cellarwise-backend/api/controllers"
	"github.com/cellarwise/cellarwise-backend/api/responses"
	"github.com/cellarwise/cellarwise-backend/api/routes"
	"github.com/cellarwise/cellarwise-backend/internal/billing"
	"github.com/cellarwise/cellarwise-backend/internal/cellar"
	"github.com/cellarwise/cellarwise-backend/internal/outreach"
	"github.com/cellarwise/cellarwise-backend/internal/sommelier"
	"github.com/cellarwise/cellarwise-backend/internal/uploads"
	"github.com/cellarwise/cellarwise-backend/internal/usage"
	"github.com/cellarwise/cellarwise-backend/internal/users"
	stripewebhook "github.com/cellarwise/cellarwise-backend/internal/webhooks/stripe"
	"github.com/cellarwise/cellarwise-backend/pkg/auth"
	"github.com/cellarwise/cellarwise-backend/pkg/config"
	"github.com/cellarwise/cellarwise-backend/pkg/db"
	"github.com/cellarwise/cellarwise-backend/pkg/email"
	"github.com/cellarwise/cellarwise-backend/pkg/logger"
	"github.com/cellarwise/cellarwise-backend/pkg/metrics"
	"github.com/cellarwise/cellarwise-backend/pkg/migrate"
	"github.com/cellarwise/cellarwise-backend/pkg/openai"
	"github.com/cellarwise/cellarwise-backend/pkg/redis"
	"github.com/cellarwise/cellarwise-backend/pkg/storage/gcs"
	pkgstripe "github.com/cellarwise/cellarwise-backend/pkg/stripe"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	responses.ExposeUpstreamErrors(!cfg.App.IsProd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	stripeClient := optional[pkgstripe.Client](ctx, logg, "stripe", pkgstripe.ErrNotConfigured)(pkgstripe.NewClient(ctx, cfg.Stripe, logg))
	verifier := optional[auth.Verifier](ctx, logg, "auth", auth.ErrNotConfigured)(auth.NewVerifier(cfg.Auth))
	gcsClient := optional[gcs.Client](ctx, logg, "gcs", gcs.ErrNotConfigured)(gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg))
	openaiClient := optional[openai.Client](ctx, logg, "openai", openai.ErrNotConfigured)(openai.New(cfg.OpenAI))

	mailer, err := email.New(cfg.Postmark, logg)
	requireResource(ctx, logg, "email", err)

	userRepo := users.NewRepository(dbClient.DB())
	userParams := users.ServiceParams{Repo: userRepo, Logger: logg}
	if profiles := auth.NewClerkProfiles(cfg.Auth.SecretKey); profiles != nil {
		userParams.Profiles = profiles
	}
	userService, err := users.NewService(userParams)
	requireResource(ctx, logg, "users service", err)

	usageService, err := usage.NewService(usage.ServiceParams{
		DB:                dbClient.DB(),
		TransactionRunner: dbClient,
		Users:             userRepo,
		Metrics:           m,
	})
	requireResource(ctx, logg, "usage service", err)

	cellarService, err := cellar.NewService(cellar.NewRepository(dbClient.DB()), usageService)
	requireResource(ctx, logg, "cellar service", err)

	sommelierParams := sommelier.ServiceParams{
		ImageFallback: cfg.FeatureFlags.ImageAnalysisFallback,
		Metrics:       m,
		Logger:        logg,
	}
	if openaiClient != nil {
		sommelierParams.Completer = openaiClient
	}
	sommelierService := sommelier.NewService(sommelierParams)

	uploadParams := uploads.ServiceParams{
		Repo:     uploads.NewRepository(dbClient.DB()),
		Usage:    usageService,
		Analyzer: sommelierService,
		Logger:   logg,
	}
	if gcsClient != nil {
		uploadParams.Images = gcsClient
	}
	uploadService, err := uploads.NewService(uploadParams)
	requireResource(ctx, logg, "uploads service", err)

	outreachService, err := outreach.NewService(outreach.ServiceParams{
		Store:        outreach.NewRepository(dbClient.DB()),
		Mailer:       mailer,
		SupportEmail: cfg.Postmark.SupportEmail,
		Logger:       logg,
	})
	requireResource(ctx, logg, "outreach service", err)

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Users:             userRepo,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	requireResource(ctx, logg, "stripe webhook service", err)

	webhookGuard, err := stripewebhook.NewIdempotencyGuard(redisClient, stripewebhook.DefaultIdempotencyTTL, "stripe-webhook")
	requireResource(ctx, logg, "stripe webhook guard", err)

	var billingService controllers.BillingService
	if stripeClient != nil {
		svc, err := billing.NewService(billing.ServiceParams{
			Stripe:    billing.NewStripeAPI(stripeClient),
			Prices:    stripeClient,
			Users:     userRepo,
			PublicURL: cfg.App.PublicURL,
			Metrics:   m,
			Logger:    logg,
		})
		requireResource(ctx, logg, "billing service", err)
		billingService = svc
	}

	deps := routes.Deps{
		Pingers: map[string]controllers.Pinger{
			"db":    dbClient,
			"redis": redisClient,
		},
		Redis:         redisClient,
		Metrics:       m,
		Verifier:      verifier,
		Users:         userService,
		Usage:         usageService,
		Cellar:        cellarService,
		Uploads:       uploadService,
		Sommelier:     sommelierService,
		Billing:       billingService,
		Outreach:      outreachService,
		StripeClient:  stripeClient,
		StripeWebhook: webhookService,
		WebhookGuard:  webhookGuard,
	}
	if gcsClient != nil {
		deps.Pingers["gcs"] = gcsClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	srvCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(srvCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logg.Info(srvCtx, "shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logg.Error(srvCtx, "api server stopped unexpectedly", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	closeErr := multierr.Combine(
		server.Shutdown(shutdownCtx),
		redisClient.Close(),
		dbClient.Close(),
	)
	if closeErr != nil {
		logg.Error(srvCtx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}
	logg.Info(srvCtx, "api server stopped")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}

// optional lets a provider be absent: notConfigured yields a nil client and
// a warning, any other error aborts boot.
func optional[T any](ctx context.Context, logg *logger.Logger, name string, notConfigured error) func(*T, error) *T {
	return func(client *T, err error) *T {
		if errors.Is(err, notConfigured) {
			logg.Warn(logg.WithField(ctx, "provider", name), "provider not configured, related routes answer 503")
			return nil
		}
		requireResource(ctx, logg, name, err)
		return client
	}
}
