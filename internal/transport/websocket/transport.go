package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
)

const (
	DefaultHandshakeTimeout = 10 * time.Second

	sessionHeader = "X-Session-Id"
	userHeader    = "X-User-Id"
)

// Transport owns the process-wide dialer and keeps the adapter connected.
type Transport struct {
	logger     *slog.Logger
	dialer     *websocket.Dialer
	url        string
	header     http.Header
	maxElapsed time.Duration
}

// NewTransport creates the dialer. A zero maxElapsed retries until the context ends.
func NewTransport(logger *slog.Logger, url, userID, sessionID string, handshakeTimeout, maxElapsed time.Duration) *Transport {
	if handshakeTimeout <= 0 {
		handshakeTimeout = DefaultHandshakeTimeout
	}

	header := http.Header{}
	header.Set(sessionHeader, sessionID)
	header.Set(userHeader, userID)

	return &Transport{
		logger: logger.With("component", "transport"),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: handshakeTimeout,
		},
		url:        url,
		header:     header,
		maxElapsed: maxElapsed,
	}
}

// Dial opens one connection.
func (that *Transport) Dial(ctx context.Context) (*websocket.Conn, error) {
	conn, resp, err := that.dialer.DialContext(ctx, that.url, that.header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}

	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", that.url, err)
	}

	return conn, nil
}

// Serve dials with exponential backoff and runs the adapter on every new connection until ctx
// is cancelled or reconnecting gives up.
func (that *Transport) Serve(ctx context.Context, adapter *Adapter) error {
	log := that.logger.With("method", "Serve")

	for {
		conn, err := that.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			return fmt.Errorf("failed to connect: %w", err)
		}

		err = adapter.Run(ctx, conn)
		if errors.Is(err, ErrAlreadyRunning) {
			conn.Close()
			return err
		}

		if ctx.Err() != nil {
			return nil
		}

		log.Warn("reconnecting", "error", err)
	}
}

func (that *Transport) connect(ctx context.Context) (*websocket.Conn, error) {
	log := that.logger.With("method", "connect")

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = that.maxElapsed

	notify := func(err error, wait time.Duration) {
		log.Warn("failed to connect, retrying", "error", err, "wait", wait)
	}

	operation := func() (*websocket.Conn, error) {
		return that.Dial(ctx)
	}

	conn, err := backoff.RetryNotifyWithData(operation, backoff.WithContext(policy, ctx), notify)
	if err != nil {
		return nil, fmt.Errorf("failed to establish connection: %w", err)
	}

	return conn, nil
}
