package state

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Paintersrp/tagdex/internal/pathutil"
	"github.com/Paintersrp/tagdex/internal/tags"
)

// DefaultRenameWindow is how long a Rename event waits for the matching
// Create before it is reported as a removal.
const DefaultRenameWindow = 250 * time.Millisecond

// WatchOptions selects which vault entries produce callbacks.
type WatchOptions struct {
	Extensions     []string
	IgnoredFolders []string
	RenameWindow   time.Duration
}

// VaultWatcher turns file system events under a vault into document save,
// remove and rename callbacks. Callbacks run on the goroutine calling Run.
//
// A removed or renamed directory is reported once through the directory
// callbacks, since the file system announces only the directory itself.
type VaultWatcher struct {
	watcher *fsnotify.Watcher
	vault   string
	exts    []string
	ignored map[string]struct{}
	window  time.Duration
	logger  *slog.Logger

	done chan struct{}
	once sync.Once

	mu          sync.Mutex
	onSave      func(string)
	onRemove    func(string)
	onRename    func(string, string)
	onRemoveDir func(string)
	onRenameDir func(string, string)
	onClose     func()

	// dirs holds the vault-relative directories under watch.
	dirs map[string]struct{}

	// renamed holds the old path of a Rename event awaiting its Create.
	// renamedDir marks it as a directory.
	renamed    string
	renamedDir bool
	expire     *time.Timer
}

func NewVaultWatcher(vault string, opts WatchOptions, logger *slog.Logger) (*VaultWatcher, error) {
	normalizedVault := pathutil.NormalizePath(vault)
	if normalizedVault == "" {
		return nil, errors.New("vault directory cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = tags.DefaultExtensions
	}
	if opts.RenameWindow <= 0 {
		opts.RenameWindow = DefaultRenameWindow
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ignored := make(map[string]struct{}, len(opts.IgnoredFolders))
	for _, dir := range opts.IgnoredFolders {
		if trimmed := strings.TrimSpace(dir); trimmed != "" {
			ignored[strings.ToLower(trimmed)] = struct{}{}
		}
	}

	watcher := &VaultWatcher{
		watcher: w,
		vault:   normalizedVault,
		exts:    append([]string(nil), opts.Extensions...),
		ignored: ignored,
		window:  opts.RenameWindow,
		logger:  logger,
		done:    make(chan struct{}),
		dirs:    make(map[string]struct{}),
	}

	if err := watcher.addRecursive(normalizedVault, false); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return watcher, nil
}

// OnSave registers a callback receiving vault-relative paths of created or
// written documents.
func (w *VaultWatcher) OnSave(fn func(string)) {
	w.mu.Lock()
	w.onSave = fn
	w.mu.Unlock()
}

// OnRemove registers a callback receiving vault-relative paths of deleted
// documents.
func (w *VaultWatcher) OnRemove(fn func(string)) {
	w.mu.Lock()
	w.onRemove = fn
	w.mu.Unlock()
}

// OnRename registers a callback receiving the old and new vault-relative
// paths of a moved document.
func (w *VaultWatcher) OnRename(fn func(oldPath, newPath string)) {
	w.mu.Lock()
	w.onRename = fn
	w.mu.Unlock()
}

// OnRemoveDir registers a callback receiving the vault-relative path of a
// deleted directory, or of one moved out of the vault.
func (w *VaultWatcher) OnRemoveDir(fn func(string)) {
	w.mu.Lock()
	w.onRemoveDir = fn
	w.mu.Unlock()
}

// OnRenameDir registers a callback receiving the old and new vault-relative
// paths of a moved directory. Documents inside it are not reported
// individually.
func (w *VaultWatcher) OnRenameDir(fn func(oldDir, newDir string)) {
	w.mu.Lock()
	w.onRenameDir = fn
	w.mu.Unlock()
}

// OnClose registers a callback that is invoked exactly once when the watcher
// shuts down.
func (w *VaultWatcher) OnClose(fn func()) {
	w.mu.Lock()
	w.onClose = fn
	w.mu.Unlock()
}

// Run dispatches events until ctx is done or the watcher is closed.
func (w *VaultWatcher) Run(ctx context.Context) error {
	defer w.Close()

	for {
		var expired <-chan time.Time
		w.mu.Lock()
		if w.expire != nil {
			expired = w.expire.C
		}
		w.mu.Unlock()

		select {
		case <-ctx.Done():
			w.flushRename()
			return ctx.Err()
		case <-w.done:
			return nil
		case <-expired:
			w.flushRename()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.logger.Warn("vault watcher error", slog.String("error", err.Error()))
			}
		}
	}
}

func (w *VaultWatcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.handleCreatedDir(event.Name)
			return
		}
	}

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		if rel, ok := w.watchedDir(event.Name); ok {
			w.forgetDir(rel)
			if event.Op&fsnotify.Rename != 0 {
				w.flushRename()
				w.holdRename(rel, true)
				return
			}
			w.emitRemoveDir(rel)
			return
		}
	}

	rel, ok := w.documentPath(event.Name)
	if !ok {
		return
	}

	switch {
	case event.Op&fsnotify.Rename != 0:
		w.flushRename()
		w.holdRename(rel, false)
	case event.Op&fsnotify.Create != 0:
		old, wasDir := w.takeRename()
		if old != "" && !wasDir {
			if fn := w.renameCallback(); fn != nil {
				fn(old, rel)
			}
			return
		}
		if wasDir {
			w.emitRemoveDir(old)
		}
		w.emitSave(rel)
	case event.Op&fsnotify.Write != 0:
		w.emitSave(rel)
	case event.Op&fsnotify.Remove != 0:
		w.emitRemove(rel)
	}
}

// handleCreatedDir watches a new directory. One that completes a directory
// Rename is reported as moved; any other has its documents announced.
func (w *VaultWatcher) handleCreatedDir(path string) {
	if w.isSkipped(path) {
		return
	}

	announce := true
	if old := w.takeDirRename(); old != "" {
		rel, _ := w.relativePath(path)
		w.mu.Lock()
		fn := w.onRenameDir
		w.mu.Unlock()
		if fn != nil {
			fn(old, rel)
			announce = false
		} else {
			w.emitRemoveDir(old)
		}
	}

	if err := w.addRecursive(path, announce); err != nil {
		w.logger.Warn("failed to watch new directory",
			slog.String("path", path),
			slog.String("error", err.Error()))
	}
}

func (w *VaultWatcher) holdRename(rel string, dir bool) {
	w.mu.Lock()
	w.renamed = rel
	w.renamedDir = dir
	w.expire = time.NewTimer(w.window)
	w.mu.Unlock()
}

// flushRename reports an unpaired Rename as a removal.
func (w *VaultWatcher) flushRename() {
	old, dir := w.takeRename()
	switch {
	case old == "":
	case dir:
		w.emitRemoveDir(old)
	default:
		w.emitRemove(old)
	}
}

func (w *VaultWatcher) takeRename() (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	old, dir := w.renamed, w.renamedDir
	w.renamed = ""
	w.renamedDir = false
	if w.expire != nil {
		w.expire.Stop()
		w.expire = nil
	}
	return old, dir
}

// takeDirRename takes the pending Rename only when it names a directory.
func (w *VaultWatcher) takeDirRename() string {
	w.mu.Lock()
	dir := w.renamedDir
	w.mu.Unlock()
	if !dir {
		return ""
	}
	old, _ := w.takeRename()
	return old
}

func (w *VaultWatcher) emitSave(rel string) {
	w.mu.Lock()
	fn := w.onSave
	w.mu.Unlock()
	if fn != nil {
		fn(rel)
	}
}

func (w *VaultWatcher) emitRemove(rel string) {
	w.mu.Lock()
	fn := w.onRemove
	w.mu.Unlock()
	if fn != nil {
		fn(rel)
	}
}

func (w *VaultWatcher) emitRemoveDir(rel string) {
	w.mu.Lock()
	fn := w.onRemoveDir
	w.mu.Unlock()
	if fn != nil {
		fn(rel)
	}
}

func (w *VaultWatcher) renameCallback() func(string, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.onRename
}

func (w *VaultWatcher) Close() error {
	if w == nil {
		return nil
	}

	var closeErr error
	w.once.Do(func() {
		close(w.done)
		closeErr = w.watcher.Close()
		w.mu.Lock()
		fn := w.onClose
		w.mu.Unlock()
		if fn != nil {
			fn()
		}
	})

	return closeErr
}

// addRecursive watches root and every directory below it. When announce is
// set, documents already present are reported as saved, which covers a
// folder moved into the vault.
func (w *VaultWatcher) addRecursive(root string, announce bool) error {
	normalized := pathutil.NormalizePath(root)
	return filepath.WalkDir(normalized, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return filepath.SkipDir
			}
			return err
		}

		if !d.IsDir() {
			if announce {
				if rel, ok := w.documentPath(path); ok {
					w.emitSave(rel)
				}
			}
			return nil
		}
		if path != w.vault && w.isSkipped(path) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			return err
		}
		if rel, _ := w.relativePath(path); rel != "" {
			w.mu.Lock()
			w.dirs[rel] = struct{}{}
			w.mu.Unlock()
		}
		return nil
	})
}

func (w *VaultWatcher) watchedDir(path string) (string, bool) {
	rel, err := w.relativePath(path)
	if err != nil || rel == "" {
		return "", false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.dirs[rel]
	return rel, ok
}

// forgetDir stops watching rel and every directory below it.
func (w *VaultWatcher) forgetDir(rel string) {
	w.mu.Lock()
	var gone []string
	for dir := range w.dirs {
		if dir == rel || strings.HasPrefix(dir, rel+"/") {
			delete(w.dirs, dir)
			gone = append(gone, dir)
		}
	}
	w.mu.Unlock()

	for _, dir := range gone {
		// The watch may already be gone with the directory.
		_ = w.watcher.Remove(filepath.Join(w.vault, filepath.FromSlash(dir)))
	}
}

// isSkipped reports whether path lies in a hidden or ignored directory.
func (w *VaultWatcher) isSkipped(path string) bool {
	rel, err := w.relativePath(path)
	if err != nil || rel == "" {
		return true
	}
	if pathutil.IsHidden(rel) {
		return true
	}
	for _, segment := range strings.Split(rel, "/") {
		if _, skip := w.ignored[strings.ToLower(segment)]; skip {
			return true
		}
	}
	return false
}

func (w *VaultWatcher) documentPath(path string) (string, bool) {
	if w.isSkipped(path) {
		return "", false
	}
	rel, _ := w.relativePath(path)
	if !pathutil.HasExtension(rel, w.exts) {
		return "", false
	}
	return rel, true
}

func (w *VaultWatcher) relativePath(path string) (string, error) {
	normalized := pathutil.NormalizePath(path)
	rel, err := pathutil.VaultRelative(w.vault, normalized)
	if err != nil {
		return "", err
	}

	if rel == "." || rel == "" || strings.HasPrefix(rel, "..") {
		return "", nil
	}

	return rel, nil
}
