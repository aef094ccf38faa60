package testsupport

import (
	"path/filepath"
	"testing"

	"ctrlvocab/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a default config with a per-test log directory and the
// line prompter. It applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Logging.Dir = filepath.Join(base, "logs")
	cfgVal.Prompt.Style = config.PromptStyleLine

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCaseSensitive switches key folding off.
func WithCaseSensitive() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Key.CaseSensitive = true
	}
}

// WithUnicodeNormalize enables NFC normalization of keys.
func WithUnicodeNormalize() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Key.UnicodeNormalize = true
	}
}

// WithBatchSize overrides the reader batch size.
func WithBatchSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.BatchSize = size
	}
}

// WithoutLogDir disables the log file.
func WithoutLogDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.Dir = ""
	}
}
