package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"slugline/internal/config"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := config.Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exists {
		t.Fatalf("expected missing config, resolved %s", path)
	}
	if cfg.Quota.FreeTierPages != 10 {
		t.Fatalf("expected default free tier pages, got %d", cfg.Quota.FreeTierPages)
	}
	if cfg.Parsing.PreviewSceneLimit != 3 {
		t.Fatalf("expected default preview scene limit, got %d", cfg.Parsing.PreviewSceneLimit)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
data_dir = "` + filepath.Join(dir, "data") + `"

[quota]
free_tier_pages = 25

[workflow]
worker_count = 2
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Quota.FreeTierPages != 25 {
		t.Fatalf("expected override, got %d", cfg.Quota.FreeTierPages)
	}
	if cfg.Workflow.WorkerCount != 2 {
		t.Fatalf("expected override, got %d", cfg.Workflow.WorkerCount)
	}
	if cfg.Workflow.QueuePollInterval != 2 {
		t.Fatalf("expected default poll interval to survive, got %d", cfg.Workflow.QueuePollInterval)
	}
	if cfg.DatabasePath() != filepath.Join(dir, "data", "slugline.db") {
		t.Fatalf("unexpected database path %s", cfg.DatabasePath())
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"zero workers", func(c *config.Config) { c.Workflow.WorkerCount = 0 }, "worker_count"},
		{"zero preview", func(c *config.Config) { c.Parsing.PreviewSceneLimit = 0 }, "preview_scene_limit"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"empty bind", func(c *config.Config) { c.Paths.APIBind = "" }, "api_bind"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestCreateSampleWritesParseableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config invalid: %v", err)
	}
}
