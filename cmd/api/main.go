// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"restkit/internal/config"
	"restkit/internal/db"
	"restkit/internal/db/migrations"
	"restkit/internal/ledger"
	"restkit/internal/logger"
	"restkit/internal/routes"
	"restkit/internal/services"
)

// @title RestKit API
// @version 1.0
// @description CRUD boilerplate with customer accounts and recovery codes.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad()
	log := logger.Setup(cfg.Environment)

	log.Info("starting api", slog.String("env", cfg.Environment), slog.String("port", cfg.Port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.CreateDatabaseIfNotExists(ctx, cfg.DatabaseURL, log); err != nil {
		log.Error("failed to ensure database exists", slog.String("error", err.Error()))
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DatabaseURL, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	if err := migrations.RunMigrations(ctx, database.DB, log); err != nil {
		log.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sender, closeSender, err := setupEmailSender(cfg, log)
	if err != nil {
		log.Error("failed to set up email sender", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeSender()

	templates, err := setupTemplates(ctx, cfg)
	if err != nil {
		log.Error("failed to set up email templates", slog.String("error", err.Error()))
		os.Exit(1)
	}

	limiter, closeLimiter := setupLimiter(ctx, cfg, log)
	defer closeLimiter()

	tokenLedger := ledger.New(database.DB, log, ledger.WithTTL(cfg.Ledger.TokenTTL))
	if cfg.Ledger.ReapInterval > 0 {
		go tokenLedger.RunReaper(ctx, cfg.Ledger.ReapInterval)
	}

	mailer := services.NewMailer(sender, templates, cfg.AppName, cfg.SPAApplicationURL, log)
	accounts := services.NewAccountService(database.DB, tokenLedger, mailer, services.AccountConfig{
		JWTSecret:  cfg.JWTSecret,
		JWTTTL:     time.Duration(cfg.JWTExpiresInSeconds) * time.Second,
		CodeLength: cfg.Ledger.CodeLength,
		TokenTTL:   cfg.Ledger.TokenTTL,
	}, log)

	router := routes.SetupRoutes(database.DB, cfg, routes.Deps{
		Log:      log,
		Ledger:   tokenLedger,
		Accounts: accounts,
		Limiter:  limiter,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", slog.String("error", err.Error()))
		return
	}
	log.Info("server stopped")
}

func setupEmailSender(cfg *config.Config, log *slog.Logger) (services.EmailSender, func(), error) {
	opts := services.SenderOptions{
		Provider: cfg.Email.Provider,
		Log:      log,
		From:     cfg.SMTP.From,
	}
	closeFn := func() {}

	switch cfg.Email.Provider {
	case "smtp":
		opts.SMTP = newSMTPSender(cfg.SMTP)
		async := services.NewAsyncSender(opts.SMTP, 30*time.Second, log)
		// Deliveries still in flight finish before the process exits.
		return async, async.Wait, nil
	case "amqp":
		q, err := services.NewQueueSender(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
		if err != nil {
			return nil, closeFn, err
		}
		opts.Queue = q
		closeFn = q.Close
	}

	sender, err := services.NewEmailSender(opts)
	return sender, closeFn, err
}

func newSMTPSender(c config.SMTP) *services.SMTPSender {
	return &services.SMTPSender{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		From:     c.From,
	}
}

func setupTemplates(ctx context.Context, cfg *config.Config) (services.TemplateSource, error) {
	if cfg.Email.TemplateSource != "s3" {
		return services.EmbeddedTemplates{}, nil
	}
	s3cfg, err := config.NewS3Config(ctx, cfg.S3)
	if err != nil {
		return nil, err
	}
	return services.NewS3TemplateSource(s3cfg.Client, s3cfg.Bucket, s3cfg.Prefix), nil
}

func setupLimiter(ctx context.Context, cfg *config.Config, log *slog.Logger) (services.AttemptLimiter, func()) {
	if cfg.Redis.Addr == "" {
		return services.NoopAttemptLimiter{}, func() {}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn("redis unavailable, verify attempts are not limited", slog.String("error", err.Error()))
		client.Close()
		return services.NoopAttemptLimiter{}, func() {}
	}

	return services.NewRedisAttemptLimiter(client, cfg.Redis.VerifyMaxAttempts, cfg.Redis.VerifyAttemptWindow),
		func() { client.Close() }
}
