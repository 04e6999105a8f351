package services

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultAsyncSendTimeout = 30 * time.Second

// AsyncSender hands each message to Next on its own goroutine so a slow
// relay never holds up the request that triggered the mail. The request
// context is detached; Timeout bounds each delivery instead.
type AsyncSender struct {
	Next    EmailSender
	Timeout time.Duration
	Log     *slog.Logger

	wg sync.WaitGroup
}

func NewAsyncSender(next EmailSender, timeout time.Duration, log *slog.Logger) *AsyncSender {
	if timeout <= 0 {
		timeout = defaultAsyncSendTimeout
	}
	return &AsyncSender{Next: next, Timeout: timeout, Log: log}
}

func (a *AsyncSender) Send(ctx context.Context, to, name, subject, html string) error {
	const op = "services.AsyncSender.Send"

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Timeout)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer cancel()

		if err := a.Next.Send(sendCtx, to, name, subject, html); err != nil {
			a.Log.Error("failed to send email",
				slog.String("op", op),
				slog.String("to", to),
				slog.String("error", err.Error()),
			)
		}
	}()
	return nil
}

// Wait blocks until every in-flight delivery has finished.
func (a *AsyncSender) Wait() {
	a.wg.Wait()
}
