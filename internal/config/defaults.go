package config

const (
	defaultBatchSize          = 50000
	defaultInputBuffer        = 4
	defaultOutputBuffer       = 4
	defaultPromptStyle        = PromptStyleAuto
	defaultPromptTemplate     = `What should "%s" be mapped to? `
	defaultLockTimeoutSeconds = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "warn"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Key: Key{
			CaseSensitive:    false,
			UnicodeNormalize: false,
		},
		Pipeline: Pipeline{
			BatchSize:    defaultBatchSize,
			InputBuffer:  defaultInputBuffer,
			OutputBuffer: defaultOutputBuffer,
		},
		Prompt: Prompt{
			Style:    defaultPromptStyle,
			Template: defaultPromptTemplate,
			Suggest:  true,
		},
		Snapshot: Snapshot{
			LockTimeoutSeconds: defaultLockTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
