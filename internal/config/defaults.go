package config

const (
	defaultLogDir              = "~/.local/state/cutout/logs"
	defaultOutputDir           = "~/Pictures/cutout"
	defaultLogRetentionDays    = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultAPIBind             = "127.0.0.1:7491"
	defaultEngine              = EngineLocal
	defaultWorkingSize         = 1024
	defaultTolerance           = 0.12
	defaultSoftness            = 0.08
	defaultFetchTimeout        = 30
	defaultMaxSourceBytes      = 64 << 20
	defaultMaxPixels           = 50_000_000
	defaultNotifyRequestTimout = 10
)

// Transform engine names.
const (
	EngineLocal  = "local"
	EngineRemote = "remote"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:  defaultStateDir(),
			LogDir:    defaultLogDir,
			OutputDir: defaultOutputDir,
			APIBind:   defaultAPIBind,
		},
		Transform: Transform{
			Engine:         defaultEngine,
			WorkingSize:    defaultWorkingSize,
			Tolerance:      defaultTolerance,
			Softness:       defaultSoftness,
			FetchTimeout:   defaultFetchTimeout,
			MaxSourceBytes: defaultMaxSourceBytes,
			MaxPixels:      defaultMaxPixels,
		},
		Export: Export{
			Ledger: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimout,
			Queue:          true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
