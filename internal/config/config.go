// Package config provides configuration management for the TelTap daemon.
// It handles hierarchical configuration from multiple sources with proper
// precedence.
//
// The configuration system supports:
// - Provider-wide settings (logging, forwarding, capture spool)
// - Per-link settings describing one telnet connection each
// - Link construction from plain string maps (the control-plane surface)
// - TOML configuration file support
// - Environment variable overrides with TELTAP_ prefix
//
// Configuration precedence (highest to lowest):
// 1. Command-line arguments
// 2. Environment variables
// 3. Configuration file
// 4. Default values
package config

import (
	"net"
	"strconv"
	"time"

	"github.com/64BitAsura/teltap/internal/constants"
	"github.com/64BitAsura/teltap/internal/errors"
)

// ProviderConfig holds daemon-wide settings plus the set of configured
// links. It is assembled once by Setup and never mutated afterwards.
type ProviderConfig struct {
	// LogLevel is one of trace, debug, info, warn, error, none.
	LogLevel string

	// NATSURL is the broker the forwarder publishes to. Empty means
	// messages are written to stdout instead (pipeline mode).
	NATSURL string

	// SubjectPrefix prefixes every published subject, followed by the
	// originating host:port of the link.
	SubjectPrefix string

	// CaptureDir, when non-empty, enables the compressed capture spool
	// and names the directory it writes to.
	CaptureDir string

	// Links are the telnet connections to maintain, keyed by Name.
	Links []LinkConfig
}

// LinkConfig describes a single telnet connection: where to connect,
// how to retry, and how large a forwarded message may be. It is immutable
// once handed to a connection manager.
type LinkConfig struct {
	// Name identifies the link in logs and the provider registry.
	Name string

	// TelnetHost is the telnet server to connect to.
	TelnetHost string

	// TelnetPort is the telnet server port.
	TelnetPort int

	// MaxReconnectAttempts bounds the reconnect budget (0 = unlimited).
	MaxReconnectAttempts int

	// InitialReconnectDelay is the backoff delay after the first failure.
	InitialReconnectDelay time.Duration

	// MaxReconnectDelay caps the exponential backoff. A cap below the
	// initial delay is tolerated: the backoff saturates at the cap.
	MaxReconnectDelay time.Duration

	// MaxMessageSize limits a single filtered message in bytes. Larger
	// messages are dropped and logged, never forwarded.
	MaxMessageSize int

	// Tunnel, when non-nil, routes the connection through an SSH
	// jump host instead of dialing the telnet server directly.
	Tunnel *TunnelConfig
}

// TunnelConfig holds the SSH jump-host settings for a tunnelled link.
type TunnelConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	KnownHosts    string
	TrustAllHosts bool
}

func newDefaultProviderConfig() *ProviderConfig {
	return &ProviderConfig{
		LogLevel:      "info",
		SubjectPrefix: "telnet",
	}
}

func newDefaultLinkConfig() LinkConfig {
	return LinkConfig{
		TelnetPort:            constants.DefaultTelnetPort,
		MaxReconnectAttempts:  constants.DefaultMaxReconnectAttempts,
		InitialReconnectDelay: constants.DefaultInitialReconnectDelay,
		MaxReconnectDelay:     constants.DefaultMaxReconnectDelay,
		MaxMessageSize:        constants.DefaultMaxMessageSize,
	}
}

// LinkFromValues constructs a LinkConfig from a plain string map, the
// format link definitions arrive in from the control plane. Only
// telnet_host is required, everything else falls back to defaults.
// Unparseable numeric values also fall back to their defaults.
func LinkFromValues(name string, values map[string]string) (LinkConfig, error) {
	link := newDefaultLinkConfig()
	link.Name = name

	host, ok := values["telnet_host"]
	if !ok || host == "" {
		return LinkConfig{}, errors.Wrapf(errors.ErrMissingConfig,
			"link %s: telnet_host", name)
	}
	link.TelnetHost = host

	if v, ok := intValue(values, "telnet_port"); ok {
		link.TelnetPort = v
	}
	if v, ok := intValue(values, "max_reconnect_attempts"); ok {
		link.MaxReconnectAttempts = v
	}
	if v, ok := intValue(values, "initial_reconnect_delay_ms"); ok {
		link.InitialReconnectDelay = time.Duration(v) * time.Millisecond
	}
	if v, ok := intValue(values, "max_reconnect_delay_ms"); ok {
		link.MaxReconnectDelay = time.Duration(v) * time.Millisecond
	}
	if v, ok := intValue(values, "max_message_size"); ok {
		link.MaxMessageSize = v
	}

	if tunnelHost, ok := values["tunnel_host"]; ok && tunnelHost != "" {
		tunnel := &TunnelConfig{
			Host:       tunnelHost,
			Port:       constants.DefaultSSHPort,
			User:       values["tunnel_user"],
			KeyPath:    values["tunnel_key_path"],
			KnownHosts: values["tunnel_known_hosts"],
		}
		if v, ok := intValue(values, "tunnel_port"); ok {
			tunnel.Port = v
		}
		tunnel.TrustAllHosts = values["tunnel_trust_all_hosts"] == "yes"
		link.Tunnel = tunnel
	}

	return link, nil
}

func intValue(values map[string]string, key string) (int, bool) {
	raw, ok := values[key]
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Address returns the host:port string of the telnet target.
func (l LinkConfig) Address() string {
	return net.JoinHostPort(l.TelnetHost, strconv.Itoa(l.TelnetPort))
}

// Address returns the host:port string of the jump host.
func (t TunnelConfig) Address() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}
