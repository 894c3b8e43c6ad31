package forwarder

import (
	"github.com/64BitAsura/teltap/internal/telnet"
)

// Tee fans each payload out to several handlers in order. Every handler
// sees every payload, even if an earlier one failed; the first error is
// returned after all deliveries were attempted.
type Tee struct {
	handlers []telnet.Handler
}

// NewTee combines handlers into one.
func NewTee(handlers ...telnet.Handler) *Tee {
	return &Tee{handlers: handlers}
}

// Deliver hands the payload to every handler.
func (t *Tee) Deliver(payload []byte) error {
	var firstErr error
	for _, h := range t.handlers {
		if err := h.Deliver(payload); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
