package services

import (
	"context"
	"fmt"
	"log/slog"
)

// EmailSender delivers one HTML message. Implementations are chosen by
// EMAIL_PROVIDER.
type EmailSender interface {
	Send(ctx context.Context, to, name, subject, html string) error
}

// LogSender writes messages to the logger instead of delivering them.
type LogSender struct {
	From string
	Log  *slog.Logger
}

func (s *LogSender) Send(ctx context.Context, to, name, subject, html string) error {
	log := s.Log.With(
		slog.String("from", s.From),
		slog.String("to", to),
		slog.String("name", name),
		slog.String("subject", subject),
	)
	log.InfoContext(ctx, "email logged")
	// The body carries live codes and secrets.
	log.DebugContext(ctx, "email body", slog.String("body", html))
	return nil
}

// EmailMessage is the queued form of a message.
type EmailMessage struct {
	To      string `json:"to"`
	Name    string `json:"name"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

type SenderOptions struct {
	Provider string
	SMTP     *SMTPSender
	Queue    *QueueSender
	Log      *slog.Logger
	From     string
}

// NewEmailSender picks the sender for the configured provider.
func NewEmailSender(opts SenderOptions) (EmailSender, error) {
	switch opts.Provider {
	case "log", "":
		return &LogSender{From: opts.From, Log: opts.Log}, nil
	case "smtp":
		if opts.SMTP == nil {
			return nil, fmt.Errorf("email provider is 'smtp' but no SMTP sender was configured")
		}
		return opts.SMTP, nil
	case "amqp":
		if opts.Queue == nil {
			return nil, fmt.Errorf("email provider is 'amqp' but no queue was configured")
		}
		return opts.Queue, nil
	default:
		return nil, fmt.Errorf("unknown email provider: %s", opts.Provider)
	}
}
