package constants

// Numeric limits and configuration defaults
const (
	// DefaultTelnetPort is the standard telnet server port.
	DefaultTelnetPort = 23

	// DefaultSSHPort is the default jump-host SSH port.
	DefaultSSHPort = 22

	// DefaultMaxReconnectAttempts is the default reconnect budget
	// (0 = retry forever).
	DefaultMaxReconnectAttempts = 0

	// DefaultMaxMessageSize is the default limit for a single filtered
	// message (1MB). Larger messages are dropped, not forwarded.
	DefaultMaxMessageSize = 1024 * 1024

	// BackoffMultiplier doubles the reconnect delay after every failed
	// attempt, up to the configured maximum.
	BackoffMultiplier = 2
)
