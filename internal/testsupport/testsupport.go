// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"slugline/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithFreeTierPages overrides the free-tier quota ceiling on the test config.
func WithFreeTierPages(pages int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Quota.FreeTierPages = pages
	}
}

// WithPreviewSceneLimit overrides the preview cap on the test config.
func WithPreviewSceneLimit(limit int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Parsing.PreviewSceneLimit = limit
	}
}

// WithWorkerCount overrides workflow concurrency on the test config.
func WithWorkerCount(count int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.WorkerCount = count
	}
}
