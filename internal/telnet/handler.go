package telnet

// Handler consumes clean application payloads produced by a Client. It is
// invoked synchronously from the connection manager's goroutine, once per
// size-valid message, in the order the bytes arrived on the wire.
//
// A Deliver error is reported but never affects the connection or its
// retry budget; delivery failures are the handler owner's problem.
type Handler interface {
	Deliver(payload []byte) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(payload []byte) error

// Deliver calls f(payload).
func (f HandlerFunc) Deliver(payload []byte) error {
	return f(payload)
}
