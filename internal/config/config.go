package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Paintersrp/tagdex/internal/constants"
	"github.com/Paintersrp/tagdex/internal/kv"
	"github.com/Paintersrp/tagdex/internal/logging"
	"github.com/Paintersrp/tagdex/internal/pathutil"
	"github.com/Paintersrp/tagdex/internal/tags"
	"github.com/spf13/viper"
)

const defaultMaxAge = 24 * time.Hour

type IndexConfig struct {
	PrefixBytes    int           `yaml:"prefix_bytes"    mapstructure:"prefix_bytes"`
	Extensions     []string      `yaml:"extensions"      mapstructure:"extensions"`
	IgnoredFolders []string      `yaml:"ignored_folders" mapstructure:"ignored_folders"`
	MaxAge         time.Duration `yaml:"max_age"         mapstructure:"max_age"`
}

type CacheConfig struct {
	Backend string `yaml:"backend" mapstructure:"backend"`
	Path    string `yaml:"path"    mapstructure:"path"`
}

type LogConfig struct {
	Level  string `yaml:"level"  mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	File   string `yaml:"file"   mapstructure:"file"`
}

type Config struct {
	VaultDir string      `yaml:"vaultdir" mapstructure:"vaultdir"`
	Index    IndexConfig `yaml:"index"    mapstructure:"index"`
	Cache    CacheConfig `yaml:"cache"    mapstructure:"cache"`
	Log      LogConfig   `yaml:"log"      mapstructure:"log"`

	path string `yaml:"-"`
}

// Default returns the configuration used when no file overrides it.
func Default(home string) *Config {
	return &Config{
		Index: IndexConfig{
			PrefixBytes:    tags.DefaultPrefixBytes,
			Extensions:     append([]string(nil), tags.DefaultExtensions...),
			IgnoredFolders: []string{},
			MaxAge:         defaultMaxAge,
		},
		Cache: CacheConfig{
			Backend: kv.BackendBolt,
			Path:    filepath.Join(home, constants.ConfigDir, constants.CacheFile),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: logging.FormatText,
		},
		path: GetConfigPath(home),
	}
}

type loadOptions struct {
	path      string
	overrides map[string]any
}

type LoadOption func(*loadOptions)

// WithPath reads the config from path instead of the home directory default.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		if path != "" {
			o.path = path
		}
	}
}

// WithOverride sets key after the file and environment are read. Empty
// string values are ignored so unset flags fall through.
func WithOverride(key string, value any) LoadOption {
	return func(o *loadOptions) {
		if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
			return
		}
		o.overrides[key] = value
	}
}

// Load reads the config file, layering environment variables prefixed with
// TAGDEX_ and any overrides on top of the defaults. A missing file yields the
// defaults.
func Load(home string, opts ...LoadOption) (*Config, error) {
	o := loadOptions{path: GetConfigPath(home), overrides: make(map[string]any)}
	for _, opt := range opts {
		opt(&o)
	}

	v := viper.New()
	setDefaults(v, Default(home))
	v.SetConfigFile(o.path)
	v.SetConfigType(constants.ConfigFileType)
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", o.path, err)
		}
	}
	for key, value := range o.overrides {
		v.Set(key, value)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.path = o.path
	cfg.normalize(home)
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("vaultdir", cfg.VaultDir)
	v.SetDefault("index.prefix_bytes", cfg.Index.PrefixBytes)
	v.SetDefault("index.extensions", cfg.Index.Extensions)
	v.SetDefault("index.ignored_folders", cfg.Index.IgnoredFolders)
	v.SetDefault("index.max_age", cfg.Index.MaxAge)
	v.SetDefault("cache.backend", cfg.Cache.Backend)
	v.SetDefault("cache.path", cfg.Cache.Path)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.file", cfg.Log.File)
}

func (cfg *Config) normalize(home string) {
	cfg.VaultDir = expandHome(home, strings.TrimSpace(cfg.VaultDir))
	cfg.Cache.Path = expandHome(home, strings.TrimSpace(cfg.Cache.Path))
	cfg.Log.File = expandHome(home, strings.TrimSpace(cfg.Log.File))
	cfg.Cache.Backend = strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))

	exts := make([]string, 0, len(cfg.Index.Extensions))
	for _, ext := range cfg.Index.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	cfg.Index.Extensions = exts
}

func expandHome(home, p string) string {
	if p == "" {
		return ""
	}
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(home, p[2:])
	}
	return pathutil.NormalizePath(p)
}

// Validate reports the first setting that prevents the index from running.
func (cfg *Config) Validate() error {
	if cfg.VaultDir == "" {
		return &ConfigInitError{msg: fmt.Sprintf("required config variable %q is not set", "vaultdir")}
	}
	if cfg.Index.PrefixBytes <= 0 {
		return &ConfigInitError{msg: fmt.Sprintf("index.prefix_bytes must be positive, got %d", cfg.Index.PrefixBytes)}
	}
	if cfg.Index.MaxAge < 0 {
		return &ConfigInitError{msg: fmt.Sprintf("index.max_age must not be negative, got %s", cfg.Index.MaxAge)}
	}
	switch cfg.Cache.Backend {
	case kv.BackendBolt, kv.BackendFile, kv.BackendMemory:
	default:
		return &ConfigInitError{msg: fmt.Sprintf(
			"invalid cache backend: %q. Please choose from '%s', '%s', or '%s'",
			cfg.Cache.Backend, kv.BackendBolt, kv.BackendFile, kv.BackendMemory,
		)}
	}
	if cfg.Cache.Backend != kv.BackendMemory && cfg.Cache.Path == "" {
		return &ConfigInitError{msg: fmt.Sprintf("required config variable %q is not set", "cache.path")}
	}
	if !logging.ValidLevel(cfg.Log.Level) {
		return &ConfigInitError{msg: fmt.Sprintf("invalid log level: %q", cfg.Log.Level)}
	}
	if !logging.ValidFormat(cfg.Log.Format) {
		return &ConfigInitError{msg: fmt.Sprintf("invalid log format: %q", cfg.Log.Format)}
	}
	return nil
}

// ScanOptions converts the index settings for the Scanner.
func (cfg *Config) ScanOptions() tags.ScanOptions {
	return tags.ScanOptions{
		PrefixBytes:    cfg.Index.PrefixBytes,
		Extensions:     append([]string(nil), cfg.Index.Extensions...),
		IgnoredFolders: append([]string(nil), cfg.Index.IgnoredFolders...),
	}
}

// Logging converts the log settings for the logging package.
func (cfg *Config) Logging() logging.Config {
	return logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, FilePath: cfg.Log.File}
}

func (cfg *Config) GetConfigPath() string {
	return cfg.path
}

// Save writes the config back to the file it was loaded from.
func (cfg *Config) Save() error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(cfg.path, data, 0o644)
}
