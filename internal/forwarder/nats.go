// Package forwarder provides the delivery collaborators that sit behind
// the telnet.Handler boundary: a NATS publisher for production use, a
// plain writer for pipeline mode, and a tee that fans a payload out to
// several handlers (e.g. broker plus capture spool).
package forwarder

import (
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/64BitAsura/teltap/internal/constants"
	"github.com/64BitAsura/teltap/internal/errors"
	"github.com/64BitAsura/teltap/internal/io/tlog"
	"github.com/64BitAsura/teltap/internal/version"
)

// Connect dials the NATS broker with the daemon's standard options.
// The returned connection is shared by all link forwarders.
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name(version.Name),
		nats.Timeout(constants.ForwardTimeout),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			tlog.Common.Warn("NATS disconnected", err)
		}),
		nats.ReconnectHandler(func(conn *nats.Conn) {
			tlog.Common.Info("NATS reconnected", conn.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to NATS %s", url)
	}
	return conn, nil
}

// NATSForwarder publishes each clean message to a subject derived from
// the originating telnet address, so consumers know which feed a message
// came from: "<prefix>.<host:port>".
type NATSForwarder struct {
	conn    *nats.Conn
	subject string
}

// NewNATSForwarder creates a forwarder publishing on the shared broker
// connection. address is the host:port of the telnet link.
func NewNATSForwarder(conn *nats.Conn, subjectPrefix, address string) *NATSForwarder {
	return &NATSForwarder{
		conn:    conn,
		subject: fmt.Sprintf("%s.%s", subjectPrefix, address),
	}
}

// Subject returns the subject this forwarder publishes to.
func (f *NATSForwarder) Subject() string {
	return f.subject
}

// Deliver publishes the payload. Publishing is fire-and-forget; the
// broker client buffers and retries internally.
func (f *NATSForwarder) Deliver(payload []byte) error {
	if err := f.conn.Publish(f.subject, payload); err != nil {
		return errors.Wrapf(err, "publish to %s", f.subject)
	}
	return nil
}
