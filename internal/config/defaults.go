package config

const (
	defaultStateDir       = "~/.local/share/reelqueue"
	defaultLogDir         = "~/.local/share/reelqueue/logs"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultConcurrency    = 2
	defaultPollIntervalMS = 500
	defaultEventBuffer    = 256
	defaultPersistDelayMS = 500
	defaultSettleMS       = 1500
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Scheduler: Scheduler{
			Concurrency:    defaultConcurrency,
			PollIntervalMS: defaultPollIntervalMS,
			EventBuffer:    defaultEventBuffer,
			PersistDelayMS: defaultPersistDelayMS,
		},
		Ingest: Ingest{
			Enabled:         false,
			FollowUps:       []string{"thumbnail", "transcribe"},
			VideoExtensions: []string{".mp4", ".mov", ".mkv", ".avi"},
			SettleMS:        defaultSettleMS,
		},
		Translation: Translation{
			DefaultLocales: []string{"en-US"},
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
