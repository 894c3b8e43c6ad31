package transport

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/64BitAsura/teltap/internal/config"
	"github.com/64BitAsura/teltap/internal/constants"
	"github.com/64BitAsura/teltap/internal/errors"
	"github.com/64BitAsura/teltap/internal/io/tlog"
)

// SSHDialer forwards connections through an SSH jump host. The SSH
// session is established lazily on the first Dial so that the backoff
// loop of the connection manager also covers jump-host failures.
type SSHDialer struct {
	tunnel config.TunnelConfig

	mu     sync.Mutex
	client *ssh.Client
}

// NewSSHDialer creates a dialer that routes every connection through
// the jump host described by tunnel.
func NewSSHDialer(tunnel config.TunnelConfig) *SSHDialer {
	return &SSHDialer{tunnel: tunnel}
}

// Dial connects to address through the SSH tunnel, establishing the
// tunnel first if necessary.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	client, err := d.connect(ctx)
	if err != nil {
		return nil, err
	}

	conn, err := client.Dial(network, address)
	if err != nil {
		// The session may have died underneath us. Drop it so the
		// next attempt re-establishes the tunnel.
		d.reset(client)
		return nil, errors.Wrapf(err, "tunnel dial %s", address)
	}
	return conn, nil
}

// Close tears down the SSH session.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

func (d *SSHDialer) connect(ctx context.Context) (*ssh.Client, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client != nil {
		return d.client, nil
	}

	authMethods, err := buildAuthMethods(d.tunnel)
	if err != nil {
		return nil, err
	}
	hkCallback, err := hostKeyCallback(d.tunnel)
	if err != nil {
		return nil, err
	}

	sshConfig := &ssh.ClientConfig{
		User:            d.tunnel.User,
		Auth:            authMethods,
		HostKeyCallback: hkCallback,
		Timeout:         constants.SSHDialTimeout,
	}

	addr := d.tunnel.Address()
	tlog.Client.Debug("Dialing SSH jump host", addr, d.tunnel.User)

	// Context-aware TCP dial so callers can cancel mid-connect.
	var dialer net.Dialer
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial jump host %s", addr)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshConfig)
	if err != nil {
		tcpConn.Close()
		return nil, errors.Wrapf(err, "ssh handshake with %s", addr)
	}

	d.client = ssh.NewClient(sshConn, chans, reqs)
	return d.client, nil
}

func (d *SSHDialer) reset(client *ssh.Client) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client == client {
		client.Close()
		d.client = nil
	}
}

// buildAuthMethods assembles the SSH authentication methods for the jump
// host: an explicit key file if configured, otherwise the SSH agent.
func buildAuthMethods(tunnel config.TunnelConfig) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod

	if tunnel.KeyPath != "" {
		method, err := keyFileAuth(tunnel.KeyPath)
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}

	if len(methods) == 0 {
		method, err := agentAuth()
		if err != nil {
			return nil, err
		}
		methods = append(methods, method)
	}

	return methods, nil
}

// keyFileAuth returns the key as a SSH auth method.
func keyFileAuth(keyFile string) (ssh.AuthMethod, error) {
	buffer, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, errors.Wrapf(err, "read key %s", keyFile)
	}
	key, err := ssh.ParsePrivateKey(buffer)
	if err != nil {
		return nil, errors.Wrapf(err, "parse key %s", keyFile)
	}
	return ssh.PublicKeys(key), nil
}

// agentAuth is used for SSH auth via the running SSH agent.
func agentAuth() (ssh.AuthMethod, error) {
	sshAgent, err := net.Dial("unix", os.Getenv("SSH_AUTH_SOCK"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SSH agent: %w", err)
	}
	agentClient := agent.NewClient(sshAgent)
	return ssh.PublicKeysCallback(agentClient.Signers), nil
}

func hostKeyCallback(tunnel config.TunnelConfig) (ssh.HostKeyCallback, error) {
	if tunnel.TrustAllHosts {
		return ssh.InsecureIgnoreHostKey(), nil
	}

	path := tunnel.KnownHosts
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "locate known_hosts")
		}
		path = filepath.Join(home, ".ssh", "known_hosts")
	}

	callback, err := knownhosts.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load known_hosts %s", path)
	}
	return callback, nil
}
