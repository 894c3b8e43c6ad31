package transport

import (
	"context"
	"net"
	"time"

	"github.com/64BitAsura/teltap/internal/constants"
)

// TCPDialer establishes plain TCP connections.
type TCPDialer struct {
	// Timeout bounds a single connect attempt (default constants.DialTimeout).
	Timeout time.Duration
}

// Dial connects to address over TCP.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	timeout := d.Timeout
	if timeout == 0 {
		timeout = constants.DialTimeout
	}
	dialer := net.Dialer{Timeout: timeout}
	return dialer.DialContext(ctx, network, address)
}

// Close is a no-op for stateless TCP dialers.
func (d *TCPDialer) Close() error { return nil }
