package main

import (
	"context"
	"crypto/tls"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/dentalops/clinic-platform/cmd/mainconfig"
	"github.com/dentalops/clinic-platform/internal/branches"
	"github.com/dentalops/clinic-platform/internal/clinic"
	appconfig "github.com/dentalops/clinic-platform/internal/config"
	"github.com/dentalops/clinic-platform/internal/events"
	"github.com/dentalops/clinic-platform/internal/notify"
	"github.com/dentalops/clinic-platform/pkg/logging"
)

// Standalone notification consumer for SQS deployments. The API server
// runs the worker inline when the in-process queue is active, so this
// binary only matters once a real queue is configured.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting notification worker", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := pool.Ping(pingCtx); err != nil {
		logger.Warn("postgres not reachable at startup", "error", err)
	}
	cancel()

	var settingsStore *clinic.Store
	if cfg.RedisAddr != "" {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		defer func() { _ = redisClient.Close() }()
		settingsStore = clinic.NewStore(redisClient)
	}

	queue := connectQueue(ctx, cfg, logger)
	sender := buildEmailSender(ctx, cfg, logger)

	recipients := collectStaffRecipients(ctx, cfg, settingsStore, branches.NewPostgresRepository(pool))
	service := notify.NewService(sender, recipients, logger)

	worker := notify.NewWorker(service, queue, events.NewProcessedStore(pool), logger,
		notify.WithWorkerCount(cfg.WorkerCount))
	worker.Start(ctx)

	<-ctx.Done()
	logger.Info("shutting down notification worker...")
	worker.Wait()
	logger.Info("notification worker stopped")
}

func connectQueue(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.Queue {
	if cfg.UseMemoryQueue || cfg.NotifyQueueURL == "" {
		logger.Warn("no NOTIFY_QUEUE_URL configured, consuming an empty in-process queue")
		return notify.NewMemoryQueue(128)
	}
	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}
	logger.Info("consuming SQS notification queue", "queue_url", cfg.NotifyQueueURL)
	return notify.NewSQSQueue(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL)
}

func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
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

func collectStaffRecipients(ctx context.Context, cfg *appconfig.Config, store *clinic.Store, repo branches.Repository) []string {
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
