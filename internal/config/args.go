package config

// Args holds the command-line arguments of the teltap daemon. The zero
// value means "not set" for every field, so Setup can tell flags apart
// from lower-precedence sources.
type Args struct {
	// ConfigFile is the path to the TOML configuration file.
	ConfigFile string

	// LogLevel overrides the configured log level.
	LogLevel string

	// NATSURL overrides the configured broker URL.
	NATSURL string

	// CaptureDir overrides the configured capture spool directory.
	CaptureDir string

	// NoCapture disables the capture spool regardless of configuration.
	NoCapture bool
}

// Setup assembles the effective provider configuration by layering the
// configuration file, environment variables and command-line arguments
// over the built-in defaults.
func Setup(args *Args) (*ProviderConfig, error) {
	cfg := newDefaultProviderConfig()

	if args.ConfigFile != "" {
		if err := cfg.parseFile(args.ConfigFile); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if args.LogLevel != "" {
		cfg.LogLevel = args.LogLevel
	}
	if args.NATSURL != "" {
		cfg.NATSURL = args.NATSURL
	}
	if args.CaptureDir != "" {
		cfg.CaptureDir = args.CaptureDir
	}
	if args.NoCapture {
		cfg.CaptureDir = ""
	}

	return cfg, nil
}
