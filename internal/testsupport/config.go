// Package testsupport provides shared fixtures for pipeline tests:
// temp-project configs, synthetic sourcedata trees, and recorded-file
// builders.
package testsupport

import (
	"path/filepath"
	"testing"

	"bidsbuild/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with a unique temp project per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProjectDir = filepath.Join(base, "project")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithDefacer overrides the defacing mode on the test config.
func WithDefacer(mode string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Convert.Defacer = mode
	}
}
