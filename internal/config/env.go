package config

import "os"

// Env returns true when a given environment variable is set to "yes".
func Env(env string) bool {
	return "yes" == os.Getenv(env)
}

// applyEnv overrides daemon-wide settings from TELTAP_ environment
// variables. Link definitions are file/control-plane only.
func (c *ProviderConfig) applyEnv() {
	if v := os.Getenv("TELTAP_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("TELTAP_NATS_URL"); v != "" {
		c.NATSURL = v
	}
	if v := os.Getenv("TELTAP_SUBJECT_PREFIX"); v != "" {
		c.SubjectPrefix = v
	}
	if v := os.Getenv("TELTAP_CAPTURE_DIR"); v != "" {
		c.CaptureDir = v
	}
}
