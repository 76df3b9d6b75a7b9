package state

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/go-cmp/cmp"
)

type recorder struct {
	mu     sync.Mutex
	events []string
	notify chan struct{}
}

func newRecorder() *recorder {
	return &recorder{notify: make(chan struct{}, 64)}
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
	r.notify <- struct{}{}
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) waitFor(t *testing.T, want string) {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		for _, got := range r.snapshot() {
			if got == want {
				return
			}
		}
		select {
		case <-r.notify:
		case <-deadline:
			t.Fatalf("timed out waiting for %q, got %v", want, r.snapshot())
		}
	}
}

func newTestWatcher(t *testing.T) (*VaultWatcher, *recorder, string) {
	t.Helper()

	vault := t.TempDir()
	w, err := NewVaultWatcher(vault, WatchOptions{IgnoredFolders: []string{"archive"}}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}
	t.Cleanup(func() { _ = w.Close() })

	rec := newRecorder()
	w.OnSave(func(rel string) { rec.add("save " + rel) })
	w.OnRemove(func(rel string) { rec.add("remove " + rel) })
	w.OnRename(func(oldRel, newRel string) { rec.add("rename " + oldRel + " -> " + newRel) })
	w.OnRemoveDir(func(rel string) { rec.add("remove dir " + rel) })
	w.OnRenameDir(func(oldRel, newRel string) { rec.add("rename dir " + oldRel + " -> " + newRel) })
	return w, rec, vault
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestHandleReportsDocumentChangesOnly(t *testing.T) {
	w, rec, vault := newTestWatcher(t)

	w.handle(fsnotify.Event{Name: filepath.Join(vault, "a.md"), Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: filepath.Join(vault, "image.png"), Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: filepath.Join(vault, ".obsidian", "x.md"), Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: filepath.Join(vault, "Archive", "old.md"), Op: fsnotify.Write})
	w.handle(fsnotify.Event{Name: filepath.Join(vault, "notes", "b.MD"), Op: fsnotify.Remove})
	w.handle(fsnotify.Event{Name: filepath.Join(vault, "notes", "c.md"), Op: fsnotify.Chmod})

	want := []string{"save a.md", "remove notes/b.MD"}
	if diff := cmp.Diff(want, rec.snapshot()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestHandlePairsRenameWithCreate(t *testing.T) {
	w, rec, vault := newTestWatcher(t)

	w.handle(fsnotify.Event{Name: filepath.Join(vault, "old.md"), Op: fsnotify.Rename})
	w.handle(fsnotify.Event{Name: filepath.Join(vault, "new", "a.md"), Op: fsnotify.Create})
	w.handle(fsnotify.Event{Name: filepath.Join(vault, "fresh.md"), Op: fsnotify.Create})

	want := []string{"rename old.md -> new/a.md", "save fresh.md"}
	if diff := cmp.Diff(want, rec.snapshot()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestUnpairedRenameBecomesRemove(t *testing.T) {
	w, rec, vault := newTestWatcher(t)

	w.handle(fsnotify.Event{Name: filepath.Join(vault, "first.md"), Op: fsnotify.Rename})
	w.handle(fsnotify.Event{Name: filepath.Join(vault, "second.md"), Op: fsnotify.Rename})
	w.flushRename()
	w.flushRename()

	want := []string{"remove first.md", "remove second.md"}
	if diff := cmp.Diff(want, rec.snapshot()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestCreatedDirectoryIsWatchedAndAnnounced(t *testing.T) {
	w, rec, vault := newTestWatcher(t)

	dir := filepath.Join(vault, "moved")
	writeFile(t, filepath.Join(dir, "c.md"), "---\ntags: [x]\n---\n")
	writeFile(t, filepath.Join(dir, "skip.txt"), "")

	w.handle(fsnotify.Event{Name: dir, Op: fsnotify.Create})

	if diff := cmp.Diff([]string{"save moved/c.md"}, rec.snapshot()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if !containsPath(w.watcher.WatchList(), dir) {
		t.Fatalf("expected %s to be watched, got %v", dir, w.watcher.WatchList())
	}
}

func TestRemovedDirectoryIsReportedOnce(t *testing.T) {
	w, rec, vault := newTestWatcher(t)

	dir := filepath.Join(vault, "notes")
	writeFile(t, filepath.Join(dir, "a.md"), "---\ntags: [x]\n---\n")
	writeFile(t, filepath.Join(dir, "deep", "b.md"), "---\ntags: [y]\n---\n")
	w.handle(fsnotify.Event{Name: dir, Op: fsnotify.Create})

	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("remove: %v", err)
	}
	w.handle(fsnotify.Event{Name: dir, Op: fsnotify.Remove})
	w.handle(fsnotify.Event{Name: filepath.Join(dir, "deep"), Op: fsnotify.Remove})
	w.handle(fsnotify.Event{Name: dir, Op: fsnotify.Remove})

	want := []string{"save notes/a.md", "save notes/deep/b.md", "remove dir notes"}
	if diff := cmp.Diff(want, rec.snapshot()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if containsPath(w.watcher.WatchList(), dir) {
		t.Fatalf("expected %s to be unwatched, got %v", dir, w.watcher.WatchList())
	}
}

func TestHandlePairsDirectoryRenameWithCreate(t *testing.T) {
	w, rec, vault := newTestWatcher(t)

	dir := filepath.Join(vault, "notes")
	writeFile(t, filepath.Join(dir, "a.md"), "---\ntags: [x]\n---\n")
	w.handle(fsnotify.Event{Name: dir, Op: fsnotify.Create})

	moved := filepath.Join(vault, "moved")
	if err := os.Rename(dir, moved); err != nil {
		t.Fatalf("rename: %v", err)
	}
	w.handle(fsnotify.Event{Name: dir, Op: fsnotify.Rename})
	w.handle(fsnotify.Event{Name: moved, Op: fsnotify.Create})
	w.flushRename()

	want := []string{"save notes/a.md", "rename dir notes -> moved"}
	if diff := cmp.Diff(want, rec.snapshot()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if !containsPath(w.watcher.WatchList(), moved) {
		t.Fatalf("expected %s to be watched, got %v", moved, w.watcher.WatchList())
	}
}

func TestUnpairedDirectoryRenameRemovesDirectory(t *testing.T) {
	w, rec, vault := newTestWatcher(t)

	for _, name := range []string{"one", "two"} {
		dir := filepath.Join(vault, name)
		writeFile(t, filepath.Join(dir, "a.md"), "")
		w.handle(fsnotify.Event{Name: dir, Op: fsnotify.Create})
	}

	w.handle(fsnotify.Event{Name: filepath.Join(vault, "one"), Op: fsnotify.Rename})
	w.handle(fsnotify.Event{Name: filepath.Join(vault, "fresh.md"), Op: fsnotify.Create})
	w.handle(fsnotify.Event{Name: filepath.Join(vault, "two"), Op: fsnotify.Rename})
	w.flushRename()

	want := []string{"save one/a.md", "save two/a.md", "remove dir one", "save fresh.md", "remove dir two"}
	if diff := cmp.Diff(want, rec.snapshot()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestRunDeliversFileSystemEvents(t *testing.T) {
	w, rec, vault := newTestWatcher(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(ctx) }()

	path := filepath.Join(vault, "live.md")
	writeFile(t, path, "---\ntags: [x]\n---\n")
	rec.waitFor(t, "save live.md")

	if err := os.Rename(path, filepath.Join(vault, "moved.md")); err != nil {
		t.Fatalf("rename: %v", err)
	}
	rec.waitFor(t, "rename live.md -> moved.md")

	if err := os.Remove(filepath.Join(vault, "moved.md")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	rec.waitFor(t, "remove moved.md")

	notes := filepath.Join(vault, "notes")
	writeFile(t, filepath.Join(notes, "a.md"), "---\ntags: [x]\n---\n")
	rec.waitFor(t, "save notes/a.md")
	if err := os.RemoveAll(notes); err != nil {
		t.Fatalf("remove dir: %v", err)
	}
	rec.waitFor(t, "remove dir notes")

	cancel()
	select {
	case <-runErr:
	case <-time.After(5 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestCloseInvokesOnCloseOnce(t *testing.T) {
	w, _, _ := newTestWatcher(t)

	var calls int
	w.OnClose(func() { calls++ })

	if err := w.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	_ = w.Close()

	if calls != 1 {
		t.Fatalf("expected OnClose once, got %d", calls)
	}
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run on closed watcher returned error: %v", err)
	}
}

func TestNewVaultWatcherRejectsEmptyVault(t *testing.T) {
	if _, err := NewVaultWatcher("", WatchOptions{}, nil); err == nil {
		t.Fatalf("expected error for empty vault")
	}
}

func containsPath(paths []string, want string) bool {
	for _, p := range paths {
		if filepath.Clean(p) == filepath.Clean(want) {
			return true
		}
	}
	return false
}
