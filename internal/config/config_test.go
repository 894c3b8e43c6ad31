package config

import (
	"testing"
	"time"

	"github.com/64BitAsura/teltap/internal/errors"
	"github.com/64BitAsura/teltap/internal/testutil"
)

func TestLinkFromValues(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		link, err := LinkFromValues("feed", map[string]string{
			"telnet_host": "192.0.2.10",
		})

		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, "feed", link.Name)
		testutil.AssertEqual(t, "192.0.2.10", link.TelnetHost)
		testutil.AssertEqual(t, 23, link.TelnetPort)
		testutil.AssertEqual(t, 0, link.MaxReconnectAttempts)
		testutil.AssertEqual(t, time.Second, link.InitialReconnectDelay)
		testutil.AssertEqual(t, time.Minute, link.MaxReconnectDelay)
		testutil.AssertEqual(t, 1024*1024, link.MaxMessageSize)
		if link.Tunnel != nil {
			t.Errorf("expected no tunnel, got %+v", link.Tunnel)
		}
	})

	t.Run("all values", func(t *testing.T) {
		link, err := LinkFromValues("feed", map[string]string{
			"telnet_host":                "192.0.2.10",
			"telnet_port":                "2323",
			"max_reconnect_attempts":     "5",
			"initial_reconnect_delay_ms": "500",
			"max_reconnect_delay_ms":     "30000",
			"max_message_size":           "65536",
		})

		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, 2323, link.TelnetPort)
		testutil.AssertEqual(t, 5, link.MaxReconnectAttempts)
		testutil.AssertEqual(t, 500*time.Millisecond, link.InitialReconnectDelay)
		testutil.AssertEqual(t, 30*time.Second, link.MaxReconnectDelay)
		testutil.AssertEqual(t, 65536, link.MaxMessageSize)
	})

	t.Run("missing host", func(t *testing.T) {
		_, err := LinkFromValues("feed", map[string]string{})
		testutil.AssertErrorIs(t, err, errors.ErrMissingConfig)
	})

	t.Run("unparseable numbers fall back to defaults", func(t *testing.T) {
		link, err := LinkFromValues("feed", map[string]string{
			"telnet_host": "192.0.2.10",
			"telnet_port": "not-a-port",
		})

		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, 23, link.TelnetPort)
	})

	t.Run("tunnel", func(t *testing.T) {
		link, err := LinkFromValues("feed", map[string]string{
			"telnet_host":            "10.0.0.1",
			"tunnel_host":            "bastion.example.org",
			"tunnel_user":            "feed",
			"tunnel_key_path":        "/etc/teltap/id_ed25519",
			"tunnel_trust_all_hosts": "yes",
		})

		testutil.AssertNoError(t, err)
		if link.Tunnel == nil {
			t.Fatal("expected a tunnel config")
		}
		testutil.AssertEqual(t, "bastion.example.org", link.Tunnel.Host)
		testutil.AssertEqual(t, 22, link.Tunnel.Port)
		testutil.AssertEqual(t, "feed", link.Tunnel.User)
		testutil.AssertEqual(t, true, link.Tunnel.TrustAllHosts)
		testutil.AssertEqual(t, "bastion.example.org:22", link.Tunnel.Address())
	})
}

func TestLinkAddress(t *testing.T) {
	link := LinkConfig{TelnetHost: "192.0.2.10", TelnetPort: 2323}
	testutil.AssertEqual(t, "192.0.2.10:2323", link.Address())
}

func TestSetupPrecedence(t *testing.T) {
	t.Run("defaults only", func(t *testing.T) {
		cfg, err := Setup(&Args{})
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, "info", cfg.LogLevel)
		testutil.AssertEqual(t, "telnet", cfg.SubjectPrefix)
		testutil.AssertEqual(t, 0, len(cfg.Links))
	})

	t.Run("file then env then flags", func(t *testing.T) {
		path := testutil.TempFile(t, `
log_level = "debug"
nats_url = "nats://file:4222"
capture_dir = "/tmp/spool"

[[link]]
name = "router1"
telnet_host = "192.0.2.10"
initial_reconnect_delay = "250ms"
`)
		t.Setenv("TELTAP_NATS_URL", "nats://env:4222")

		cfg, err := Setup(&Args{ConfigFile: path, LogLevel: "warn"})
		testutil.AssertNoError(t, err)

		// Flag beats file.
		testutil.AssertEqual(t, "warn", cfg.LogLevel)
		// Env beats file.
		testutil.AssertEqual(t, "nats://env:4222", cfg.NATSURL)
		// File beats default.
		testutil.AssertEqual(t, "/tmp/spool", cfg.CaptureDir)

		testutil.AssertEqual(t, 1, len(cfg.Links))
		link := cfg.Links[0]
		testutil.AssertEqual(t, "router1", link.Name)
		testutil.AssertEqual(t, 250*time.Millisecond, link.InitialReconnectDelay)
		testutil.AssertEqual(t, 23, link.TelnetPort)
	})

	t.Run("noCapture wins over everything", func(t *testing.T) {
		t.Setenv("TELTAP_CAPTURE_DIR", "/tmp/spool")
		cfg, err := Setup(&Args{NoCapture: true})
		testutil.AssertNoError(t, err)
		testutil.AssertEqual(t, "", cfg.CaptureDir)
	})

	t.Run("link without host fails", func(t *testing.T) {
		path := testutil.TempFile(t, `
[[link]]
name = "broken"
`)
		_, err := Setup(&Args{ConfigFile: path})
		testutil.AssertErrorIs(t, err, errors.ErrMissingConfig)
	})
}
