// Package transport provides the connection-establishment boundary for
// the telnet client. A Dialer hides how the socket to the telnet server
// is opened: directly over TCP, or forwarded through an SSH jump host.
// The connection manager only ever sees the resulting net.Conn.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound network connections.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session). Stateless dialers return nil.
	Close() error
}
