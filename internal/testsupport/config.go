package testsupport

import (
	"path/filepath"
	"testing"

	"mnemosyne/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Server.Bind = "127.0.0.1:0"
	cfgVal.Server.DatabasePath = filepath.Join(base, "content.db")
	cfgVal.Device.CameraTempPath = filepath.Join(base, "capture.jpg")
	cfgVal.Device.LockDir = filepath.Join(base, "lock")
	cfgVal.Logging.Dir = filepath.Join(base, "logs")

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

// WithContentServerURL overrides the device upload target.
func WithContentServerURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Device.ContentServerURL = url
	}
}

// WithOpenAIKey sets OpenAI credentials on the test config.
func WithOpenAIKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OpenAI.APIKey = key
	}
}

// WithGeminiKey sets Gemini credentials on the test config.
func WithGeminiKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Gemini.APIKey = key
	}
}

// WithShutdownPresses overrides the shutdown press count.
func WithShutdownPresses(count int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Device.ShutdownPresses = count
	}
}
