package state

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Paintersrp/tagdex/internal/config"
	"github.com/Paintersrp/tagdex/internal/kv"
	"github.com/Paintersrp/tagdex/internal/logging"
	"github.com/Paintersrp/tagdex/internal/matcher"
	indexsvc "github.com/Paintersrp/tagdex/internal/services/index"
	"github.com/Paintersrp/tagdex/internal/tags"
	"github.com/Paintersrp/tagdex/internal/vault"
)

// Options carries the command line values that take precedence over the
// config file.
type Options struct {
	ConfigPath string
	VaultDir   string
	LogLevel   string
}

type State struct {
	Config  *config.Config
	Home    string
	Vault   string
	Logger  *slog.Logger
	Index   IndexService
	Cache   kv.Store
	Watcher *VaultWatcher

	logCleanup func()
}

// IndexService is the part of the index service the commands rely on.
type IndexService interface {
	Open() error
	Rebuild() error
	Refresh(path string) error
	Remove(path string) error
	Rename(oldPath, newPath string) error
	RemoveDir(dir string) error
	RenameDir(oldDir, newDir string) error
	Search(query string) ([]matcher.Match, error)
	FilesForTag(label string) ([]string, error)
	TagsForFile(path string) ([]string, error)
	Vocabulary() ([]tags.TagCount, error)
	IsIndexing() bool
	Stats() indexsvc.Stats
	Close() error
}

func NewState(opts Options) (*State, error) {
	s := &State{}
	if err := s.Init(opts); err != nil {
		return nil, err
	}
	return s, nil
}

// Init loads the configuration and opens the cache and index service. It is
// separate from NewState so commands can be built before flags are parsed.
func (s *State) Init(opts Options) error {
	home, err := GetHomeDir()
	if err != nil {
		return err
	}

	cfg, err := LoadConfig(home, opts)
	if err != nil {
		return err
	}

	logger, cleanup, err := logging.Setup(cfg.Logging())
	if err != nil {
		return err
	}

	store, err := kv.Open(cfg.Cache.Backend, cfg.Cache.Path)
	if err != nil {
		cleanup()
		return fmt.Errorf("failed to open index cache: %w", err)
	}

	tree, err := vault.NewDirTree(cfg.VaultDir)
	if err != nil {
		_ = store.Close()
		cleanup()
		return err
	}

	s.Config = cfg
	s.Home = home
	s.Vault = tree.Root()
	s.Logger = logger
	s.Cache = store
	s.logCleanup = cleanup
	s.Index = indexsvc.NewService(tree, indexsvc.Options{
		Scanner: tags.NewScanner(cfg.ScanOptions(), logger),
		MaxAge:  cfg.Index.MaxAge,
	}, store, logger)
	return nil
}

func GetHomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory. err: %s", err)
	}

	return home, nil
}

// LoadConfig reads the configuration with the command line overrides applied.
// When no explicit file is given the default file is created on first use.
func LoadConfig(home string, opts Options) (*config.Config, error) {
	if opts.ConfigPath == "" {
		var initErr *config.ConfigInitError
		if err := config.EnsureConfigExists(home); err != nil && !errors.As(err, &initErr) {
			return nil, err
		}
	}

	cfg, err := config.Load(home,
		config.WithPath(opts.ConfigPath),
		config.WithOverride("vaultdir", opts.VaultDir),
		config.WithOverride("log.level", opts.LogLevel),
	)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewWatcher creates a vault watcher feeding file system changes into the
// index service.
func (s *State) NewWatcher() (*VaultWatcher, error) {
	if s == nil || s.Index == nil || s.Config == nil {
		return nil, errors.New("state is not initialized")
	}

	watcher, err := NewVaultWatcher(s.Vault, WatchOptions{
		Extensions:     s.Config.Index.Extensions,
		IgnoredFolders: s.Config.Index.IgnoredFolders,
	}, s.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault watcher: %w", err)
	}

	index := s.Index
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	report := func(op, path string, err error) {
		if err != nil {
			logger.Warn("failed to apply vault change",
				slog.String("op", op),
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}

	watcher.OnSave(func(rel string) {
		report("save", rel, index.Refresh(rel))
	})
	watcher.OnRemove(func(rel string) {
		report("remove", rel, index.Remove(rel))
	})
	watcher.OnRename(func(oldRel, newRel string) {
		if err := index.Rename(oldRel, newRel); err != nil {
			report("rename", oldRel, err)
			return
		}
		// The moved document may also have been edited.
		report("save", newRel, index.Refresh(newRel))
	})
	watcher.OnRemoveDir(func(rel string) {
		report("remove dir", rel, index.RemoveDir(rel))
	})
	watcher.OnRenameDir(func(oldRel, newRel string) {
		report("rename dir", oldRel, index.RenameDir(oldRel, newRel))
	})
	watcher.OnClose(func() {
		logger.Debug("vault watcher closed", slog.String("vault", s.Vault))
	})

	s.Watcher = watcher
	return watcher, nil
}

// Close releases resources associated with the state, including the vault
// watcher, the index service and the cache store.
func (s *State) Close() error {
	if s == nil {
		return nil
	}

	var errs []error
	if s.Watcher != nil {
		if err := s.Watcher.Close(); err != nil {
			errs = append(errs, err)
		}
		s.Watcher = nil
	}
	if s.Index != nil {
		if err := s.Index.Close(); err != nil && !errors.Is(err, indexsvc.ErrClosed) {
			errs = append(errs, err)
		}
		s.Index = nil
	}
	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil && !errors.Is(err, kv.ErrClosed) {
			errs = append(errs, err)
		}
		s.Cache = nil
	}
	if s.logCleanup != nil {
		s.logCleanup()
		s.logCleanup = nil
	}

	return errors.Join(errs...)
}
