// cmd/mailworker/main.go
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"restkit/internal/config"
	"restkit/internal/logger"
	"restkit/internal/services"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()
	log := logger.Setup(cfg.Environment)

	log.Info("starting mail worker", slog.String("env", cfg.Environment), slog.String("queue", cfg.RabbitMQ.QueueName))

	queue, err := services.NewQueueSender(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer queue.Close()

	smtp := &services.SMTPSender{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}

	err = queue.Consume(ctx, smtp, func(err error) {
		log.Error("failed to deliver message", slog.String("error", err.Error()))
	})
	if err != nil {
		log.Error("consumer stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("mail worker stopped")
}
