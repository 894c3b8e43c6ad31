package telnet

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/64BitAsura/teltap/internal/config"
	"github.com/64BitAsura/teltap/internal/errors"
	"github.com/64BitAsura/teltap/internal/io/tlog"
	"github.com/64BitAsura/teltap/internal/testutil"
)

func TestMain(m *testing.M) {
	tlog.Start("none", io.Discard)
	os.Exit(m.Run())
}

// dialResult produces the outcome of one scripted dial.
type dialResult func() (net.Conn, error)

// scriptDialer plays back a fixed sequence of dial outcomes and counts
// how often it was asked to connect. Dials beyond the script fail.
type scriptDialer struct {
	mu     sync.Mutex
	dials  int
	script []dialResult
}

func (d *scriptDialer) Dial(_ context.Context, _, _ string) (net.Conn, error) {
	d.mu.Lock()
	i := d.dials
	d.dials++
	d.mu.Unlock()

	if i < len(d.script) {
		return d.script[i]()
	}
	return nil, fmt.Errorf("connect: connection refused")
}

func (d *scriptDialer) Close() error { return nil }

func (d *scriptDialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func refused() (net.Conn, error) {
	return nil, fmt.Errorf("connect: connection refused")
}

// closesImmediately simulates a flapping server that accepts the
// connection and closes it before sending a single byte.
func closesImmediately() (net.Conn, error) {
	client, server := net.Pipe()
	server.Close()
	return client, nil
}

// streamsSeq returns a dial outcome whose connection delivers each chunk
// in a separate read and then closes.
func streamsSeq(chunks ...[]byte) dialResult {
	return func() (net.Conn, error) {
		client, server := net.Pipe()
		go func() {
			for _, chunk := range chunks {
				server.Write(chunk)
			}
			server.Close()
		}()
		return client, nil
	}
}

// collector is a Handler that records every delivered payload.
type collector struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (c *collector) Deliver(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, append([]byte(nil), payload...))
	return c.err
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.payloads)
}

func (c *collector) payload(i int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.payloads[i])
}

func testLinkConfig(maxAttempts int) config.LinkConfig {
	return config.LinkConfig{
		Name:                  "test",
		TelnetHost:            "127.0.0.1",
		TelnetPort:            2323,
		MaxReconnectAttempts:  maxAttempts,
		InitialReconnectDelay: time.Millisecond,
		MaxReconnectDelay:     4 * time.Millisecond,
		MaxMessageSize:        1024,
	}
}

func TestClientExhaustsReconnectBudget(t *testing.T) {
	dialer := &scriptDialer{}
	client := NewClient(testLinkConfig(3), dialer)

	err := client.Run(context.Background(), &collector{})

	testutil.AssertErrorIs(t, err, errors.ErrMaxReconnectAttempts)
	// One initial attempt plus exactly three retries.
	testutil.AssertEqual(t, 4, dialer.count())
}

func TestClientBackoffDelaysDoubleUpToCap(t *testing.T) {
	cfg := testLinkConfig(3)
	cfg.InitialReconnectDelay = 10 * time.Millisecond
	cfg.MaxReconnectDelay = 20 * time.Millisecond
	dialer := &scriptDialer{}
	client := NewClient(cfg, dialer)

	start := time.Now()
	err := client.Run(context.Background(), &collector{})
	elapsed := time.Since(start)

	testutil.AssertErrorIs(t, err, errors.ErrMaxReconnectAttempts)
	testutil.AssertEqual(t, 4, dialer.count())
	// Delays 10ms, 20ms (capped), 20ms (capped).
	if elapsed < 50*time.Millisecond {
		t.Errorf("expected at least 50ms of backoff, got %v", elapsed)
	}
}

func TestClientInitialDelayAboveCapSaturates(t *testing.T) {
	cfg := testLinkConfig(1)
	cfg.InitialReconnectDelay = time.Hour
	cfg.MaxReconnectDelay = 5 * time.Millisecond
	dialer := &scriptDialer{}
	client := NewClient(cfg, dialer)

	done := make(chan error, 1)
	go func() { done <- client.Run(context.Background(), &collector{}) }()

	select {
	case err := <-done:
		testutil.AssertErrorIs(t, err, errors.ErrMaxReconnectAttempts)
	case <-time.After(5 * time.Second):
		t.Fatal("backoff did not saturate at the configured cap")
	}
}

func TestClientDeliversFilteredPayloads(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	testutil.AssertNoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		// Negotiation noise around the payload, as a real telnet
		// server greets a client.
		conn.Write([]byte{cmdIAC, cmdWill, 1, cmdIAC, cmdDo, 3})
		conn.Write([]byte("login: "))
		// Keep the connection open until the test is done.
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	testutil.AssertNoError(t, err)
	port, _ := strconv.Atoi(portStr)

	cfg := testLinkConfig(1)
	cfg.TelnetHost = host
	cfg.TelnetPort = port

	received := make(chan string, 10)
	handler := HandlerFunc(func(payload []byte) error {
		received <- string(payload)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- NewClient(cfg, nil).Run(ctx, handler) }()

	select {
	case msg := <-received:
		testutil.AssertEqual(t, "login: ", msg)
	case <-time.After(5 * time.Second):
		t.Fatal("no payload delivered")
	}

	cancel()
	select {
	case err := <-done:
		testutil.AssertErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("client did not stop on cancellation")
	}
}

func TestClientDropsOversizedMessages(t *testing.T) {
	cfg := testLinkConfig(1)
	cfg.MaxMessageSize = 5
	dialer := &scriptDialer{script: []dialResult{
		streamsSeq([]byte("WAY TOO LONG"), []byte("ok")),
	}}
	sink := &collector{}

	err := NewClient(cfg, dialer).Run(context.Background(), sink)

	// Connection closed after streaming; one retry (refused) exhausts
	// the budget of 1.
	testutil.AssertErrorIs(t, err, errors.ErrMaxReconnectAttempts)
	testutil.AssertEqual(t, 1, sink.count())
	testutil.AssertEqual(t, "ok", sink.payload(0))
}

func TestClientHandlerErrorsDoNotAbortStreaming(t *testing.T) {
	cfg := testLinkConfig(1)
	dialer := &scriptDialer{script: []dialResult{
		streamsSeq([]byte("one"), []byte("two")),
	}}
	sink := &collector{err: fmt.Errorf("consumer down")}

	err := NewClient(cfg, dialer).Run(context.Background(), sink)

	testutil.AssertErrorIs(t, err, errors.ErrMaxReconnectAttempts)
	// Both messages were offered despite the handler failing each time.
	testutil.AssertEqual(t, 2, sink.count())
	testutil.AssertEqual(t, "two", sink.payload(1))
}

func TestClientAcceptThenCloseConsumesBudget(t *testing.T) {
	dialer := &scriptDialer{script: []dialResult{
		closesImmediately, closesImmediately, closesImmediately,
	}}
	client := NewClient(testLinkConfig(2), dialer)

	err := client.Run(context.Background(), &collector{})

	// No data ever flowed, so the attempt counter never reset.
	testutil.AssertErrorIs(t, err, errors.ErrMaxReconnectAttempts)
	testutil.AssertErrorIs(t, err, errors.ErrConnectionClosed)
	testutil.AssertEqual(t, 3, dialer.count())
}

func TestClientBackoffResetsAfterStreaming(t *testing.T) {
	dialer := &scriptDialer{script: []dialResult{
		refused,
		streamsSeq([]byte("data")),
		refused, refused, refused,
	}}
	client := NewClient(testLinkConfig(2), dialer)

	err := client.Run(context.Background(), &collector{})

	testutil.AssertErrorIs(t, err, errors.ErrMaxReconnectAttempts)
	// Dial 1 fails (attempt 1), dial 2 streams data and resets the
	// budget, dials 3-4 fail (attempts 1-2), dial 5 fails and gives up.
	testutil.AssertEqual(t, 5, dialer.count())
}

func TestClientCancelDuringBackoff(t *testing.T) {
	cfg := testLinkConfig(0)
	cfg.InitialReconnectDelay = time.Hour
	cfg.MaxReconnectDelay = time.Hour
	dialer := &scriptDialer{}
	client := NewClient(cfg, dialer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- client.Run(ctx, &collector{}) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		testutil.AssertErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("client did not abort the backoff wait")
	}
}
