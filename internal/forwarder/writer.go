package forwarder

import (
	"io"
	"sync"

	"github.com/64BitAsura/teltap/internal/errors"
)

// WriterForwarder writes every payload to an io.Writer. Used in pipeline
// mode (no broker configured), where the daemon behaves like a filtering
// netcat: clean payload bytes go straight to stdout.
type WriterForwarder struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterForwarder creates a forwarder writing raw payload bytes to w.
func NewWriterForwarder(w io.Writer) *WriterForwarder {
	return &WriterForwarder{w: w}
}

// Deliver writes the payload. Serialized so payloads from concurrent
// links do not interleave mid-message.
func (f *WriterForwarder) Deliver(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.w.Write(payload); err != nil {
		return errors.Wrap(err, "write payload")
	}
	return nil
}
