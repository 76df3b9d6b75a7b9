// Package cmdtest builds command states backed by in-memory vaults for the
// command tests.
package cmdtest

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/spf13/cobra"

	"github.com/Paintersrp/tagdex/internal/config"
	"github.com/Paintersrp/tagdex/internal/kv"
	indexsvc "github.com/Paintersrp/tagdex/internal/services/index"
	"github.com/Paintersrp/tagdex/internal/state"
	"github.com/Paintersrp/tagdex/internal/tags"
	"github.com/Paintersrp/tagdex/internal/vault"
)

// VaultRoot is the display root of vaults built by NewState.
const VaultRoot = "/vault"

// NewState returns a state whose index reads docs, keyed by vault-relative
// path, from memory and caches to a memory store.
func NewState(t *testing.T, docs map[string]string) *state.State {
	t.Helper()

	fsys := fstest.MapFS{}
	for p, content := range docs {
		fsys[p] = &fstest.MapFile{Data: []byte(content)}
	}
	return newState(t, vault.NewFSTree(fsys, VaultRoot), VaultRoot)
}

// NewDirState returns a state indexing the vault directory dir on disk.
func NewDirState(t *testing.T, dir string) *state.State {
	t.Helper()

	tree, err := vault.NewDirTree(dir)
	if err != nil {
		t.Fatalf("failed to open vault %s: %v", dir, err)
	}
	return newState(t, tree, tree.Root())
}

func newState(t *testing.T, tree tags.Tree, root string) *state.State {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default(t.TempDir())
	cfg.VaultDir = root
	cfg.Cache.Backend = kv.BackendMemory

	store := kv.NewMemoryStore()
	s := &state.State{
		Config: cfg,
		Vault:  root,
		Logger: logger,
		Cache:  store,
		Index:  indexsvc.NewService(tree, indexsvc.Options{}, store, logger),
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Run executes cmd with args and returns what it wrote to stdout.
func Run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}
