package constants

import "time"

// Timeout constants used throughout the application
const (
	// DialTimeout is the timeout for a single TCP connect attempt.
	DialTimeout = 10 * time.Second

	// SSHDialTimeout is the timeout for SSH jump-host connection attempts.
	SSHDialTimeout = 30 * time.Second

	// DefaultInitialReconnectDelay is the first backoff delay after a
	// connection failure.
	DefaultInitialReconnectDelay = 1 * time.Second

	// DefaultMaxReconnectDelay caps the exponential backoff.
	DefaultMaxReconnectDelay = 60 * time.Second

	// ForwardTimeout is the per-message timeout for the NATS forwarder.
	ForwardTimeout = 5 * time.Second

	// ShutdownGracePeriod is how long the daemon waits for link tasks to
	// finish after cancellation before forcing exit.
	ShutdownGracePeriod = 5 * time.Second
)
