package telnet

import (
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/64BitAsura/teltap/internal/config"
	"github.com/64BitAsura/teltap/internal/constants"
	"github.com/64BitAsura/teltap/internal/errors"
	"github.com/64BitAsura/teltap/internal/io/tlog"
	"github.com/64BitAsura/teltap/internal/transport"
)

// connState is the position of the connection manager in its lifecycle.
type connState int

const (
	// stateConnecting: opening a socket to the telnet server.
	stateConnecting connState = iota
	// stateStreaming: reading chunks and delivering filtered payloads.
	stateStreaming
	// stateBackoff: connection lost, waiting before the next attempt.
	stateBackoff
	// stateGivenUp: reconnect budget exhausted, terminal.
	stateGivenUp
)

// Client maintains one receive-only telnet connection. It owns the socket
// for its whole lifetime, filters every inbound chunk through a per
// connection FilterState, enforces the configured message size limit and
// reconnects with exponential backoff when the transport fails.
//
// A Client is driven by a single call to Run and must not be shared
// between goroutines.
type Client struct {
	config config.LinkConfig
	dialer transport.Dialer
}

// NewClient creates a telnet client for the given link. A nil dialer
// selects a plain TCP dialer.
func NewClient(cfg config.LinkConfig, dialer transport.Dialer) *Client {
	if dialer == nil {
		dialer = &transport.TCPDialer{}
	}
	return &Client{config: cfg, dialer: dialer}
}

// Run connects to the telnet server and delivers clean payloads to
// handler until ctx is cancelled or the reconnect budget is exhausted.
//
// Every transport failure (connect failure, read error, remote close) is
// retryable: the client backs off, doubling the delay up to the configured
// maximum, and tries again. The attempt counter and delay reset to their
// initial values once data has flowed on a new connection, so a server
// that accepts and immediately closes still burns the budget. Run returns
// the context error on cancellation, or ErrMaxReconnectAttempts (wrapping
// the last transport error) when the budget runs out.
func (c *Client) Run(ctx context.Context, handler Handler) error {
	addr := c.config.Address()
	attempt := 0
	delay := c.initialDelay()
	state := stateConnecting

	var conn net.Conn
	var lastErr error

	for {
		switch state {
		case stateConnecting:
			tlog.Client.Debug("Connecting to telnet server", addr)
			var err error
			conn, err = c.dialer.Dial(ctx, "tcp", addr)
			if err != nil {
				lastErr = err
				state = stateBackoff
				continue
			}
			tlog.Client.Info("Telnet connection established", addr)
			state = stateStreaming

		case stateStreaming:
			streamed, err := c.receive(ctx, conn, handler)
			conn.Close()
			conn = nil
			lastErr = err
			if streamed {
				// Data flowed on this connection: fresh retry budget.
				attempt = 0
				delay = c.initialDelay()
			}
			state = stateBackoff

		case stateBackoff:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			tlog.Client.Error("Telnet connection failed", addr, lastErr)
			if c.config.MaxReconnectAttempts > 0 &&
				attempt >= c.config.MaxReconnectAttempts {
				state = stateGivenUp
				continue
			}
			attempt++
			// Saturate even when the configured initial delay already
			// exceeds the cap.
			if max := c.maxDelay(); delay > max {
				delay = max
			}
			tlog.Client.Warn("Reconnecting", addr, "attempt", attempt, "delay", delay)
			if err := sleep(ctx, delay); err != nil {
				return err
			}
			delay *= constants.BackoffMultiplier
			if max := c.maxDelay(); delay > max {
				delay = max
			}
			state = stateConnecting

		case stateGivenUp:
			tlog.Client.Error("Maximum reconnection attempts reached", addr,
				c.config.MaxReconnectAttempts)
			return fmt.Errorf("%s: %w (%d attempts): %w", addr,
				errors.ErrMaxReconnectAttempts, c.config.MaxReconnectAttempts, lastErr)
		}
	}
}

// receive reads bounded chunks from conn, filters them and delivers the
// payloads until the connection dies or ctx is cancelled. It reports
// whether any data arrived at all, which is what arms the retry budget
// reset in Run.
func (c *Client) receive(ctx context.Context, conn net.Conn, handler Handler) (bool, error) {
	addr := c.config.Address()

	// Unblock the pending Read when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	buf := make([]byte, constants.ReadBufferSize)
	filterState := NewFilterState()
	streamed := false

	for {
		n, err := conn.Read(buf)
		if err != nil {
			if ctx.Err() != nil {
				return streamed, ctx.Err()
			}
			if err == io.EOF {
				tlog.Client.Info("Telnet connection closed by server", addr)
				return streamed, errors.ErrConnectionClosed
			}
			return streamed, err
		}
		if n == 0 {
			continue
		}
		streamed = true

		payload := filterState.Filter(buf[:n])
		if len(payload) == 0 {
			tlog.Client.Trace("Control sequences only, nothing to deliver", addr)
			continue
		}
		if c.config.MaxMessageSize > 0 && len(payload) > c.config.MaxMessageSize {
			tlog.Client.Warn("Dropping oversized message", addr,
				len(payload), ">", c.config.MaxMessageSize)
			continue
		}

		if err := handler.Deliver(payload); err != nil {
			// Delivery failures are isolated from transport health.
			tlog.Client.Error("Handler rejected message", addr, err)
		}
	}
}

func (c *Client) initialDelay() time.Duration {
	if c.config.InitialReconnectDelay > 0 {
		return c.config.InitialReconnectDelay
	}
	return constants.DefaultInitialReconnectDelay
}

func (c *Client) maxDelay() time.Duration {
	if c.config.MaxReconnectDelay > 0 {
		return c.config.MaxReconnectDelay
	}
	return constants.DefaultMaxReconnectDelay
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
