package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gatedSender struct {
	release chan struct{}
	mu      sync.Mutex
	sent    []string
	ctxErr  error
	err     error
}

func (g *gatedSender) Send(ctx context.Context, to, name, subject, html string) error {
	<-g.release
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, to)
	g.ctxErr = ctx.Err()
	return g.err
}

func TestAsyncSenderReturnsBeforeDelivery(t *testing.T) {
	next := &gatedSender{release: make(chan struct{})}
	a := NewAsyncSender(next, time.Minute, slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, a.Send(ctx, "ana@mail.test", "Ana", "hi", "<p>hi</p>"))

	// The request finishing must not cancel the delivery.
	cancel()
	close(next.release)
	a.Wait()

	assert.Equal(t, []string{"ana@mail.test"}, next.sent)
	assert.NoError(t, next.ctxErr)
}

func TestAsyncSenderLogsFailures(t *testing.T) {
	next := &gatedSender{release: make(chan struct{}), err: errors.New("relay down")}
	close(next.release)

	var buf bytes.Buffer
	a := NewAsyncSender(next, time.Minute, slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, a.Send(context.Background(), "ana@mail.test", "Ana", "hi", "<p>hi</p>"))
	a.Wait()

	assert.Contains(t, buf.String(), "relay down")
}

func TestSMTPSenderHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &SMTPSender{Host: "127.0.0.1", Port: 1, From: "no-reply@localhost"}
	err := s.Send(ctx, "ana@mail.test", "Ana", "hi", "<p>hi</p>")
	assert.ErrorIs(t, err, context.Canceled)
}
