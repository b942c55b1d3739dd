package config

const (
	defaultDataDir               = "~/.local/share/serialsbot"
	defaultLogDir                = "~/.local/share/serialsbot/logs"
	defaultEnvironment           = "development"
	defaultTMDBBaseURL           = "https://api.themoviedb.org/3"
	defaultTMDBLanguage          = "en-US"
	defaultTMDBRequestsPerSecond = 4.0
	defaultTMDBSearchLimit       = 5
	defaultTelegramPort          = 8443
	defaultTelegramTimeout       = 30
	defaultReconcileInterval     = 21600
	defaultReconcileWorkers      = 4
	defaultNotifyTimeout         = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Environment: defaultEnvironment,
		Telegram: Telegram{
			Port:           defaultTelegramPort,
			RequestTimeout: defaultTelegramTimeout,
		},
		TMDB: TMDB{
			BaseURL:           defaultTMDBBaseURL,
			Language:          defaultTMDBLanguage,
			RequestsPerSecond: defaultTMDBRequestsPerSecond,
			SearchLimit:       defaultTMDBSearchLimit,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Reconciler: Reconciler{
			Interval:      defaultReconcileInterval,
			WorkerCount:   defaultReconcileWorkers,
			NotifyTimeout: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
