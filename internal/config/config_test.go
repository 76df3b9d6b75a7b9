package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/Paintersrp/tagdex/internal/config"
)

func writeConfig(t *testing.T, home string, data map[string]any) string {
	t.Helper()

	configPath := config.GetConfigPath(home)
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("failed to create config directory: %v", err)
	}

	raw, err := yaml.Marshal(data)
	if err != nil {
		t.Fatalf("failed to marshal config data: %v", err)
	}
	if err := os.WriteFile(configPath, raw, 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return configPath
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	home := t.TempDir()

	cfg, err := config.Load(home)
	if err != nil {
		t.Fatalf("expected load to succeed: %v", err)
	}

	if cfg.Index.PrefixBytes != 4096 {
		t.Fatalf("expected default prefix 4096, got %d", cfg.Index.PrefixBytes)
	}
	if diff := cmp.Diff([]string{".md"}, cfg.Index.Extensions); diff != "" {
		t.Fatalf("default extensions mismatch (-want +got):\n%s", diff)
	}
	if cfg.Index.MaxAge != 24*time.Hour {
		t.Fatalf("expected default max age 24h, got %s", cfg.Index.MaxAge)
	}
	if cfg.Cache.Backend != "bolt" {
		t.Fatalf("expected bolt backend, got %q", cfg.Cache.Backend)
	}
	if want := filepath.Join(home, ".tagdex", "index.db"); cfg.Cache.Path != want {
		t.Fatalf("expected cache path %q, got %q", want, cfg.Cache.Path)
	}
	if cfg.GetConfigPath() != config.GetConfigPath(home) {
		t.Fatalf("unexpected config path %q", cfg.GetConfigPath())
	}
}

func TestLoadReadsFileValues(t *testing.T) {
	home := t.TempDir()
	writeConfig(t, home, map[string]any{
		"vaultdir": "~/notes",
		"index": map[string]any{
			"prefix_bytes":    1024,
			"extensions":      []string{"md", ".Markdown"},
			"ignored_folders": []string{"archive", "templates"},
			"max_age":         "90m",
		},
		"cache": map[string]any{"backend": "File", "path": "~/cache"},
		"log":   map[string]any{"level": "debug", "format": "json"},
	})

	cfg, err := config.Load(home)
	if err != nil {
		t.Fatalf("expected load to succeed: %v", err)
	}

	if want := filepath.Join(home, "notes"); cfg.VaultDir != want {
		t.Fatalf("expected vault %q, got %q", want, cfg.VaultDir)
	}
	opts := cfg.ScanOptions()
	if opts.PrefixBytes != 1024 {
		t.Fatalf("expected prefix 1024, got %d", opts.PrefixBytes)
	}
	if diff := cmp.Diff([]string{".md", ".markdown"}, opts.Extensions); diff != "" {
		t.Fatalf("extensions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"archive", "templates"}, opts.IgnoredFolders); diff != "" {
		t.Fatalf("ignored folders mismatch (-want +got):\n%s", diff)
	}
	if cfg.Index.MaxAge != 90*time.Minute {
		t.Fatalf("expected max age 90m, got %s", cfg.Index.MaxAge)
	}
	if cfg.Cache.Backend != "file" || cfg.Cache.Path != filepath.Join(home, "cache") {
		t.Fatalf("unexpected cache config %#v", cfg.Cache)
	}
	if logCfg := cfg.Logging(); logCfg.Level != "debug" || logCfg.Format != "json" {
		t.Fatalf("unexpected logging config %#v", logCfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}
}

func TestLoadAppliesEnvironmentAndOverrides(t *testing.T) {
	home := t.TempDir()
	writeConfig(t, home, map[string]any{"vaultdir": filepath.Join(home, "file-vault")})

	t.Setenv("TAGDEX_LOG_LEVEL", "error")
	t.Setenv("TAGDEX_CACHE_BACKEND", "memory")

	vault := filepath.Join(home, "flag-vault")
	cfg, err := config.Load(home,
		config.WithOverride("vaultdir", vault),
		config.WithOverride("log.format", ""),
	)
	if err != nil {
		t.Fatalf("expected load to succeed: %v", err)
	}

	if cfg.VaultDir != vault {
		t.Fatalf("expected override vault %q, got %q", vault, cfg.VaultDir)
	}
	if cfg.Log.Level != "error" || cfg.Cache.Backend != "memory" {
		t.Fatalf("environment not applied: %#v %#v", cfg.Log, cfg.Cache)
	}
	if cfg.Log.Format != "text" {
		t.Fatalf("empty override should fall through to default, got %q", cfg.Log.Format)
	}
}

func TestLoadFromExplicitPath(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("vaultdir: /vault\n"), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := config.Load(home, config.WithPath(path))
	if err != nil {
		t.Fatalf("expected load to succeed: %v", err)
	}
	if cfg.VaultDir != filepath.Clean("/vault") || cfg.GetConfigPath() != path {
		t.Fatalf("unexpected config %q from %q", cfg.VaultDir, cfg.GetConfigPath())
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	home := t.TempDir()
	configPath := config.GetConfigPath(home)
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("failed to create config directory: %v", err)
	}
	if err := os.WriteFile(configPath, []byte("vaultdir: [unclosed\n"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := config.Load(home); err == nil {
		t.Fatalf("expected malformed config to fail")
	}
}

func TestValidateReportsConfigInitErrors(t *testing.T) {
	cases := map[string]func(*config.Config){
		"missing vault":   func(c *config.Config) { c.VaultDir = "" },
		"bad prefix":      func(c *config.Config) { c.Index.PrefixBytes = 0 },
		"negative max":    func(c *config.Config) { c.Index.MaxAge = -time.Second },
		"unknown backend": func(c *config.Config) { c.Cache.Backend = "redis" },
		"no cache path":   func(c *config.Config) { c.Cache.Path = "" },
		"bad level":       func(c *config.Config) { c.Log.Level = "loud" },
		"bad format":      func(c *config.Config) { c.Log.Format = "xml" },
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default(t.TempDir())
			cfg.VaultDir = "/vault"
			mutate(cfg)

			var initErr *config.ConfigInitError
			if err := cfg.Validate(); !errors.As(err, &initErr) {
				t.Fatalf("expected ConfigInitError, got %v", err)
			}
		})
	}

	cfg := config.Default(t.TempDir())
	cfg.VaultDir = "/vault"
	cfg.Cache.Backend = "memory"
	cfg.Cache.Path = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("memory backend needs no path: %v", err)
	}
}

func TestEnsureConfigExistsCreatesDefaultFile(t *testing.T) {
	home := t.TempDir()

	err := config.EnsureConfigExists(home)
	var initErr *config.ConfigInitError
	if !errors.As(err, &initErr) {
		t.Fatalf("expected ConfigInitError for unset vault, got %v", err)
	}
	if _, statErr := os.Stat(config.GetConfigPath(home)); statErr != nil {
		t.Fatalf("expected config file to be created: %v", statErr)
	}

	cfg, err := config.Load(home)
	if err != nil {
		t.Fatalf("failed to load created config: %v", err)
	}
	cfg.VaultDir = filepath.Join(home, "vault")
	if err := cfg.Save(); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	if err := config.EnsureConfigExists(home); err != nil {
		t.Fatalf("expected saved config to validate: %v", err)
	}
}

func TestSaveRoundTripsDurations(t *testing.T) {
	home := t.TempDir()
	cfg := config.Default(home)
	cfg.VaultDir = filepath.Join(home, "vault")
	cfg.Index.MaxAge = 45 * time.Minute
	if err := cfg.Save(); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	loaded, err := config.Load(home)
	if err != nil {
		t.Fatalf("failed to reload config: %v", err)
	}
	if loaded.Index.MaxAge != 45*time.Minute || loaded.VaultDir != cfg.VaultDir {
		t.Fatalf("round trip mismatch: %#v", loaded.Index)
	}
}
