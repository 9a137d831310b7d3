package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/dentalops/clinic-platform/cmd/mainconfig"
	"github.com/dentalops/clinic-platform/internal/api/router"
	"github.com/dentalops/clinic-platform/internal/appointments"
	"github.com/dentalops/clinic-platform/internal/availability"
	"github.com/dentalops/clinic-platform/internal/branches"
	"github.com/dentalops/clinic-platform/internal/clinic"
	appconfig "github.com/dentalops/clinic-platform/internal/config"
	"github.com/dentalops/clinic-platform/internal/doctors"
	"github.com/dentalops/clinic-platform/internal/events"
	"github.com/dentalops/clinic-platform/internal/invoices"
	"github.com/dentalops/clinic-platform/internal/notify"
	"github.com/dentalops/clinic-platform/internal/observability/metrics"
	"github.com/dentalops/clinic-platform/internal/scheduling"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool == nil {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	defer pool.Close()

	portalDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open portal db handle", "error", err)
		os.Exit(1)
	}
	defer func() { _ = portalDB.Close() }()

	redisClient := connectRedis(cfg)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	}

	registry := prometheus.NewRegistry()
	schedMetrics := metrics.NewSchedulingMetrics(registry)
	apptMetrics := metrics.NewAppointmentMetrics(registry)
	metricsHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	// Slot resolution
	var slotCache *scheduling.RedisSlotCache
	resolverOpts := []scheduling.Option{
		scheduling.WithStepMinutes(cfg.SlotStepMinutes),
		scheduling.WithLookaheadDays(cfg.MaxLookaheadDays),
		scheduling.WithMetrics(schedMetrics),
	}
	if redisClient != nil {
		slotCache = scheduling.NewRedisSlotCache(redisClient, cfg.SlotCacheTTL)
		resolverOpts = append(resolverOpts, scheduling.WithSlotCache(slotCache))
	}
	resolver := scheduling.NewResolver(scheduling.NewPostgresStore(pool), logger, resolverOpts...)

	// Outbox and notification queue
	outbox := events.NewOutboxStore(pool)
	queue, memoryQueue := setupNotifyQueue(ctx, cfg, logger)
	deliverer := events.NewDeliverer(outbox, notify.NewQueuePublisher(queue), logger).
		WithBatchSize(int32(cfg.OutboxBatchSize)).
		WithInterval(cfg.OutboxPollInterval)
	go deliverer.Start(ctx)

	// Repositories, services and handlers
	branchRepo := branches.NewPostgresRepository(pool)
	doctorRepo := doctors.NewPostgresRepository(pool)
	availabilityRepo := availability.NewPostgresRepository(pool)
	apptRepo := appointments.NewPostgresRepository(pool)
	invoiceRepo := invoices.NewPostgresRepository(pool)

	apptService := appointments.NewService(apptRepo, resolver, outbox, apptMetrics, logger)
	invoiceService := invoices.NewService(invoiceRepo, outbox, logger)

	var settingsHandler *clinic.Handler
	var settingsStore *clinic.Store
	if redisClient != nil {
		settingsStore = clinic.NewStore(redisClient)
		settingsHandler = clinic.NewHandler(settingsStore, logger)
	}

	routerCfg := &router.Config{
		Logger:              logger,
		BranchesHandler:     branchesHandler(branchRepo, slotCache, logger),
		DoctorsHandler:      doctors.NewHandler(doctorRepo, logger),
		AvailabilityHandler: availability.NewHandler(availabilityRepo, logger),
		AppointmentsHandler: appointments.NewHandler(apptService, logger),
		InvoicesHandler:     invoices.NewHandler(invoiceService, logger),
		SlotsHandler:        scheduling.NewHandler(resolver, logger),
		SettingsHandler:     settingsHandler,
		ClinicStatsHandler:  clinic.NewStatsHandler(clinic.NewStatsRepository(pool), logger),
		ClinicDashboard:     clinic.NewDashboardHandler(clinic.NewDashboardRepository(pool), registry, logger),
		MetricsHandler:      metricsHandler,
		BookingToken:        cfg.BookingToken,
		StaffAuthSecret:     cfg.StaffJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSec:     cfg.RateLimitPerSec,
		RateLimitBurst:      cfg.RateLimitBurst,
		DB:                  portalDB,
	}
	r := router.New(routerCfg)

	// Reminder scanner
	scanner := appointments.NewReminderScanner(pool, outbox, logger,
		appointments.WithReminderLead(cfg.ReminderLeadTime))
	go scanner.Start(ctx)

	// With the in-process queue the notify worker runs inline so a single
	// binary covers development setups.
	var inlineWorker *notify.Worker
	if memoryQueue != nil {
		sender := setupEmailSender(ctx, cfg, logger)
		notifyService := notify.NewService(sender, staffRecipients(ctx, cfg, settingsStore, branchRepo), logger)
		inlineWorker = notify.NewWorker(notifyService, memoryQueue, events.NewProcessedStore(pool), logger,
			notify.WithWorkerCount(cfg.WorkerCount))
		inlineWorker.Start(ctx)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if inlineWorker != nil {
		inlineWorker.Wait()
	}

	logger.Info("server stopped")
}

func branchesHandler(repo branches.Repository, cache *scheduling.RedisSlotCache, logger *logging.Logger) *branches.Handler {
	if cache == nil {
		return branches.NewHandler(repo, nil, logger)
	}
	return branches.NewHandler(repo, cache, logger)
}

// connectPostgresPool returns nil when no database is configured.
func connectPostgresPool(ctx context.Context, databaseURL string, logger *logging.Logger) *pgxpool.Pool {
	if databaseURL == "" {
		return nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		logger.Warn("postgres not reachable at startup", "error", err)
	}
	return pool
}

func connectRedis(cfg *appconfig.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	opts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return redis.NewClient(opts)
}

// setupNotifyQueue returns the queue plus the memory queue when the
// in-process path is active, so the caller can run an inline worker.
func setupNotifyQueue(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (notify.Queue, *notify.MemoryQueue) {
	if cfg.UseMemoryQueue || cfg.NotifyQueueURL == "" {
		logger.Info("using in-process notification queue")
		mq := notify.NewMemoryQueue(128)
		return mq, mq
	}

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config, falling back to memory queue", "error", err)
		mq := notify.NewMemoryQueue(128)
		return mq, mq
	}
	logger.Info("using SQS notification queue", "queue_url", cfg.NotifyQueueURL)
	return notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL), nil
}

func setupEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "sendgrid":
		return notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
	case "ses":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			logger.Error("failed to load AWS config for SES, using stub sender", "error", err)
			return notify.NewStubEmailSender(logger)
		}
		return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	default:
		return notify.NewStubEmailSender(logger)
	}
}

// staffRecipients merges the static env list with the per-branch
// settings of every known branch.
func staffRecipients(ctx context.Context, cfg *appconfig.Config, store *clinic.Store, repo branches.Repository) []string {
	seen := make(map[string]struct{})
	var recipients []string
	add := func(addr string) {
		if _, ok := seen[addr]; ok {
			return
		}
		seen[addr] = struct{}{}
		recipients = append(recipients, addr)
	}
	for _, addr := range cfg.StaffNotifyEmails {
		add(addr)
	}
	if store == nil || repo == nil {
		return recipients
	}
	all, err := repo.List(ctx)
	if err != nil {
		return recipients
	}
	for _, branch := range all {
		emails, err := store.StaffEmails(ctx, branch.Code)
		if err != nil {
			continue
		}
		for _, addr := range emails {
			add(addr)
		}
	}
	return recipients
}
