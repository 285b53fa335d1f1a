// Package app wires every LedgerPulse collaborator together and runs the
// process in one of two modes: the HTTP API, or the background anomaly
// consumer.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/ledgerpulse/ledgerpulse/internal/authtoken"
	"github.com/ledgerpulse/ledgerpulse/internal/clock"
	"github.com/ledgerpulse/ledgerpulse/internal/config"
	"github.com/ledgerpulse/ledgerpulse/internal/httpserver"
	"github.com/ledgerpulse/ledgerpulse/internal/pipeline"
	"github.com/ledgerpulse/ledgerpulse/internal/platform"
	"github.com/ledgerpulse/ledgerpulse/internal/ratelimiter"
	"github.com/ledgerpulse/ledgerpulse/internal/telemetry"
	"github.com/ledgerpulse/ledgerpulse/pkg/anomaly"
	"github.com/ledgerpulse/ledgerpulse/pkg/company"
	"github.com/ledgerpulse/ledgerpulse/pkg/eventbus"
	"github.com/ledgerpulse/ledgerpulse/pkg/ledger"
	"github.com/ledgerpulse/ledgerpulse/pkg/notify"
	"github.com/ledgerpulse/ledgerpulse/pkg/report"
	"github.com/ledgerpulse/ledgerpulse/pkg/subscription"
	"github.com/ledgerpulse/ledgerpulse/pkg/user"
)

// Run reads config, connects to infrastructure, and starts the requested mode.
func Run(ctx context.Context, cfg *config.Config) error {
	logger := telemetry.NewLogger(cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("starting ledgerpulse", "mode", cfg.Mode, "listen", cfg.ListenAddr())

	db, err := platform.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	rdb, err := platform.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Error("closing redis", "error", err)
		}
	}()

	if err := platform.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("migrations applied")

	metricsReg := telemetry.NewMetricsRegistry(telemetry.All()...)

	switch cfg.Mode {
	case "api":
		return runAPI(ctx, cfg, logger, db, rdb, metricsReg)
	case "anomaly-worker":
		return runAnomalyWorker(ctx, cfg, logger, db, rdb)
	default:
		return fmt.Errorf("unknown mode: %s", cfg.Mode)
	}
}

func runAPI(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client, metricsReg *prometheus.Registry) error {
	clk := clock.New()

	tokenTTL, err := time.ParseDuration(cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("parsing token TTL %q: %w", cfg.TokenTTL, err)
	}
	tokens, err := authtoken.NewService(cfg.TokenSecret, tokenTTL, clk)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	revocations := authtoken.NewRedisRevocationStore(rdb, logger)

	limiter := ratelimiter.NewLimiter(rdb, logger, map[string]ratelimiter.BucketConfig{
		"login": {Capacity: cfg.LoginBucketCapacity, Window: mustParseDuration(cfg.LoginBucketRefill)},
		"register": {
			Capacity: cfg.RegisterBucketCapacity,
			Window:   mustParseDuration(cfg.RegisterBucketRefill),
		},
	})

	trialWindow, err := time.ParseDuration(cfg.TrialWindow)
	if err != nil {
		return fmt.Errorf("parsing trial window %q: %w", cfg.TrialWindow, err)
	}
	// SubscriptionDuration is validated at startup only; its parsed value is
	// not passed to any component.
	if _, err := time.ParseDuration(cfg.SubscriptionDuration); err != nil {
		return fmt.Errorf("parsing subscription duration %q: %w", cfg.SubscriptionDuration, err)
	}
	quotas := subscription.Quotas{
		Active: cfg.AIChatLimitActive,
		Trial:  cfg.AIChatLimitTrial,
		Free:   cfg.AIChatLimitFree,
	}

	// Stores
	userStore := user.NewStore(db)
	companyStore := company.NewStore(db)
	ledgerStore := ledger.NewStore(db)
	subscriptionStore := subscription.NewStore(db, clk, quotas)
	anomalyStore := anomaly.NewStore(db)

	// Cross-cutting collaborators
	bus := eventbus.NewBus(rdb, logger)
	reportCache := report.NewCache(rdb, logger)

	// Services
	authService := user.NewService(userStore, user.CompanyStoreAdapter{Store: companyStore}, tokens, limiter, subscriptionStore, cfg.DefaultCurrency, logger)
	ledgerService := ledger.NewService(ledgerStore, reportCache, bus, logger)
	reportService := report.NewService(clk, ledgerStore, reportCache, logger)
	subscriptionHandler := subscription.NewHandler(subscriptionStore, trialWindow, logger)

	authHandler := user.NewHandler(authService, userStore, tokens, revocations, logger)
	ledgerHandler := ledger.NewHandler(ledgerService, logger)
	reportHandler := report.NewHandler(reportService, logger)
	anomalyHandler := anomaly.NewHandler(anomalyStore, logger)

	// SubscriptionGate only guards the P&L report; every other tenant route
	// is free-tier accessible. Company id segments vary per request, so a
	// global prefix exemption can't distinguish "/{companyId}/reports" from
	// "/{companyId}/transactions" — instead the gate is applied narrowly,
	// just on the reports mount below, rather than as a pipeline-wide stage.
	pipelineStages := []func(http.Handler) http.Handler{
		pipeline.TokenValidation(tokens, revocations),
	}

	srv := httpserver.NewServer(httpserver.Config{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		MetricsPath:        cfg.MetricsPath,
	}, logger, db, rdb, metricsReg, pipelineStages...)

	// Public routes (no bearer required) — mounted directly on the root
	// router so they sit outside the pipeline's token-validation stage.
	srv.Router.Mount("/api/v1/auth", authHandler.Routes())

	// Authenticated, non-tenant-scoped routes.
	srv.APIRouter.Mount("/auth", authHandler.AuthenticatedRoutes())
	srv.APIRouter.Mount("/subscription", subscriptionHandler.Routes())

	// Tenant-scoped routes; {companyId} ownership is enforced by the
	// TenantOwnership stage on this subrouter, where chi has already matched
	// the {companyId} segment, before any of these handlers run.
	srv.APIRouter.Route("/{companyId}", func(r chi.Router) {
		r.Use(pipeline.TenantOwnership(companyStore))
		r.Mount("/transactions", ledgerHandler.Routes())
		r.Mount("/anomalies", anomalyHandler.Routes())

		// Reports are the one premium-gated tenant route; the gate is mounted
		// here rather than pipeline-wide (see note above).
		r.Route("/reports", func(r chi.Router) {
			r.Use(pipeline.SubscriptionGate(subscriptionStore, nil, cfg.UpgradeURL))
			r.Mount("/", reportHandler.Routes())
		})
	})

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      srv.Router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server listening", "addr", cfg.ListenAddr())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func runAnomalyWorker(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *pgxpool.Pool, rdb *redis.Client) error {
	anomalyStore := anomaly.NewStore(db)
	companyStore := company.NewStore(db)
	userStore := user.NewStore(db)

	slackNotifier := notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackAlertChannel, logger)
	var notifier notify.Notifier = notify.NewNoopNotifier(logger)
	if slackNotifier.IsEnabled() {
		notifier = slackNotifier
	}
	notifyService := notify.NewService(ownerLookup{companies: companyStore, users: userStore}, notifier)

	loop := anomaly.NewLoop(rdb, anomalyStore, notifyService, logger)
	if err := loop.EnsureConsumerGroup(ctx); err != nil {
		return fmt.Errorf("ensuring anomaly consumer group: %w", err)
	}

	logger.Info("anomaly worker started")
	return loop.Run(ctx)
}

// ownerLookup resolves a company's owning user's email, satisfying
// notify.OwnerLookup without pkg/notify depending on pkg/company or pkg/user.
type ownerLookup struct {
	companies *company.Store
	users     *user.Store
}

func (o ownerLookup) OwnerEmail(ctx context.Context, companyID string) (string, error) {
	c, err := o.companies.FindByID(ctx, companyID)
	if err != nil {
		return "", err
	}
	owner, err := o.users.FindByID(ctx, c.OwnerUserID)
	if err != nil {
		return "", err
	}
	return owner.Email, nil
}

func mustParseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Minute
	}
	return d
}
