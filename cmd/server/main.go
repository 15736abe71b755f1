package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	adminhandler "bullishbrief/internal/admin"
	"bullishbrief/internal/audit"
	"bullishbrief/internal/consent"
	consenthandler "bullishbrief/internal/consent/handler"
	jwttoken "bullishbrief/internal/jwt_token"
	"bullishbrief/internal/mailer"
	"bullishbrief/internal/platform/config"
	"bullishbrief/internal/platform/httpserver"
	"bullishbrief/internal/platform/logger"
	"bullishbrief/internal/platform/metrics"
	"bullishbrief/internal/platform/middleware"
	redisclient "bullishbrief/internal/platform/redis"
	"bullishbrief/internal/subscription"
	subscriptionhandler "bullishbrief/internal/subscription/handler"
	httptransport "bullishbrief/internal/transport/http"
)

const auditInboxSize = 256

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	checks := map[string]func() error{}

	// Subscriptions live in Postgres when configured, in memory otherwise.
	var subscriptionStore subscription.Store = subscription.NewInMemoryStore()
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()

		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		if err := applyMigrations(ctx, db); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}

		subscriptionStore = subscription.NewPostgresStore(db)
		checks["postgres"] = func() error { return db.Ping() }
		log.Info("postgres subscription store ready")
	} else {
		log.Warn("POSTGRES_DSN not set, subscriptions are in-memory only")
	}

	// Consent records live in Redis when configured so retention falls out
	// of key TTLs; in memory otherwise.
	var recordStore consent.RecordStore = consent.NewInMemoryRecordStore()
	if rdb, err := redisclient.New(cfg.RedisURL); err != nil {
		return fmt.Errorf("connect redis: %w", err)
	} else if rdb != nil {
		defer rdb.Close()
		recordStore = consent.NewRedisRecordStore(rdb.Client)
		checks["redis"] = func() error { return rdb.Health(context.Background()) }
		log.Info("redis consent store ready")
	} else {
		log.Warn("REDIS_URL not set, consent records are in-memory only")
	}

	consentStore := consent.NewStore(recordStore, config.ConsentVersion, cfg.ConsentDevOverride, log)

	// Region detection falls back to the timezone heuristic when no GeoIP
	// database is mounted.
	var geo consenthandler.RegionResolver
	if cfg.GeoIPDBPath != "" {
		resolver, err := consent.NewGeoIPResolver(cfg.GeoIPDBPath)
		if err != nil {
			return fmt.Errorf("open geoip database: %w", err)
		}
		defer resolver.Close()
		geo = resolver
		log.Info("geoip region resolver ready", "path", cfg.GeoIPDBPath)
	}

	var tagManager consent.TagManagerReceiver
	if cfg.TagManagerURL != "" {
		tagManager = consent.NewHTTPTagManager(cfg.TagManagerURL)
	}
	var analytics consent.AnalyticsReceiver
	if cfg.AnalyticsURL != "" {
		analytics = consent.NewHTTPAnalytics(cfg.AnalyticsURL)
	}

	inbox := make(chan audit.Event, auditInboxSize)
	publisher := audit.NewPublisher(inbox, log)
	auditWorker := audit.NewWorker(audit.NewInMemoryStore(), inbox, log)

	synchronizer := consent.NewSynchronizer(consentStore, tagManager, analytics, publisher, m, log)

	var mailchimp subscription.Mailer
	if cfg.MailchimpURL != "" {
		mailchimp = mailer.NewMailchimp(cfg.MailchimpURL, log)
	} else {
		log.Warn("MAILCHIMP_FORM_URL not set, mailing-list sync disabled")
	}
	subscriptionService := subscription.NewService(subscriptionStore, mailchimp, m, log)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "bullishbrief", "bullishbrief-web")
	validator := jwttoken.NewJWTServiceAdapter(jwtService)

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Consent:            consenthandler.New(consentStore, synchronizer, geo, cfg.IPHashSalt, log),
		Subscription:       subscriptionhandler.New(subscriptionService, log),
		Admin:              adminhandler.New(cfg.AdminTokenHash, cfg.BuildHookURL, log),
		RequireAuth:        middleware.RequireAuth(validator, log),
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
		Checks:             checks,
	}, log)

	srv := httpserver.New(cfg.Addr, router)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		if err := auditWorker.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
