package services

import (
	"context"

	"gopkg.in/gomail.v2"
)

type SMTPSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

func (s *SMTPSender) Send(ctx context.Context, to, name, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.From)
	msg.SetAddressHeader("To", to, name)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	dialer := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	// DialAndSend takes no context; stop waiting once ctx is done.
	done := make(chan error, 1)
	go func() { done <- dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
