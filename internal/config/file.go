package config

import (
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/64BitAsura/teltap/internal/constants"
	"github.com/64BitAsura/teltap/internal/errors"
)

// fileConfig mirrors the TOML layout of a TelTap config file:
//
//	log_level = "info"
//	nats_url = "nats://127.0.0.1:4222"
//	subject_prefix = "telnet"
//	capture_dir = "/var/spool/teltap"
//
//	[[link]]
//	name = "router1"
//	telnet_host = "192.0.2.10"
//	telnet_port = 2323
//	max_reconnect_attempts = 5
//	initial_reconnect_delay = "500ms"
//	max_reconnect_delay = "30s"
//	max_message_size = 65536
//	tunnel_host = "bastion.example.org"
//	tunnel_user = "feed"
type fileConfig struct {
	LogLevel      string     `toml:"log_level"`
	NATSURL       string     `toml:"nats_url"`
	SubjectPrefix string     `toml:"subject_prefix"`
	CaptureDir    string     `toml:"capture_dir"`
	Link          []fileLink `toml:"link"`
}

type fileLink struct {
	Name                  string `toml:"name"`
	TelnetHost            string `toml:"telnet_host"`
	TelnetPort            int    `toml:"telnet_port"`
	MaxReconnectAttempts  int    `toml:"max_reconnect_attempts"`
	InitialReconnectDelay string `toml:"initial_reconnect_delay"`
	MaxReconnectDelay     string `toml:"max_reconnect_delay"`
	MaxMessageSize        int    `toml:"max_message_size"`
	TunnelHost            string `toml:"tunnel_host"`
	TunnelPort            int    `toml:"tunnel_port"`
	TunnelUser            string `toml:"tunnel_user"`
	TunnelKeyPath         string `toml:"tunnel_key_path"`
	TunnelKnownHosts      string `toml:"tunnel_known_hosts"`
	TunnelTrustAllHosts   bool   `toml:"tunnel_trust_all_hosts"`
}

func (c *ProviderConfig) parseFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return errors.Wrapf(err, "load config file %s", path)
	}

	if meta.IsDefined("log_level") {
		c.LogLevel = strings.TrimSpace(raw.LogLevel)
	}
	if meta.IsDefined("nats_url") {
		c.NATSURL = strings.TrimSpace(raw.NATSURL)
	}
	if meta.IsDefined("subject_prefix") {
		c.SubjectPrefix = strings.TrimSpace(raw.SubjectPrefix)
	}
	if meta.IsDefined("capture_dir") {
		c.CaptureDir = strings.TrimSpace(raw.CaptureDir)
	}

	for _, rawLink := range raw.Link {
		link, err := rawLink.toLinkConfig()
		if err != nil {
			return err
		}
		c.Links = append(c.Links, link)
	}

	return nil
}

func (f fileLink) toLinkConfig() (LinkConfig, error) {
	link := newDefaultLinkConfig()
	link.Name = f.Name

	if f.TelnetHost == "" {
		return LinkConfig{}, errors.Wrapf(errors.ErrMissingConfig,
			"link %s: telnet_host", f.Name)
	}
	link.TelnetHost = f.TelnetHost
	if link.Name == "" {
		link.Name = f.TelnetHost
	}

	if f.TelnetPort != 0 {
		link.TelnetPort = f.TelnetPort
	}
	if f.MaxReconnectAttempts != 0 {
		link.MaxReconnectAttempts = f.MaxReconnectAttempts
	}
	if f.MaxMessageSize != 0 {
		link.MaxMessageSize = f.MaxMessageSize
	}

	if f.InitialReconnectDelay != "" {
		d, err := time.ParseDuration(f.InitialReconnectDelay)
		if err != nil {
			return LinkConfig{}, errors.Wrapf(err,
				"link %s: initial_reconnect_delay", link.Name)
		}
		link.InitialReconnectDelay = d
	}
	if f.MaxReconnectDelay != "" {
		d, err := time.ParseDuration(f.MaxReconnectDelay)
		if err != nil {
			return LinkConfig{}, errors.Wrapf(err,
				"link %s: max_reconnect_delay", link.Name)
		}
		link.MaxReconnectDelay = d
	}

	if f.TunnelHost != "" {
		tunnel := &TunnelConfig{
			Host:          f.TunnelHost,
			Port:          f.TunnelPort,
			User:          f.TunnelUser,
			KeyPath:       f.TunnelKeyPath,
			KnownHosts:    f.TunnelKnownHosts,
			TrustAllHosts: f.TunnelTrustAllHosts,
		}
		if tunnel.Port == 0 {
			tunnel.Port = constants.DefaultSSHPort
		}
		link.Tunnel = tunnel
	}

	return link, nil
}
