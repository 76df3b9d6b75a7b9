package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Paintersrp/tagdex/pkg/cmd/cmdtest"
)

func TestWatchStopsWhenContextEnds(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.md"), []byte("---\ntags: [go]\n---\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	s := cmdtest.NewDirState(t, dir)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	cmd := NewCmdWatch(s)
	cmd.SetArgs(nil)
	var out strings.Builder
	cmd.SetOut(&out)
	if err := cmd.ExecuteContext(ctx); err != nil {
		t.Fatalf("watch returned error: %v", err)
	}

	if !strings.Contains(out.String(), "Watching "+s.Vault) {
		t.Fatalf("expected watch banner, got %q", out.String())
	}
	if !strings.Contains(out.String(), "Idx: 1 docs · 1 tags") {
		t.Fatalf("expected status line, got %q", out.String())
	}
	if s.Watcher == nil {
		t.Fatalf("expected watcher to be attached to state")
	}
}

func TestWatchRejectsArguments(t *testing.T) {
	s := cmdtest.NewState(t, cmdtest.SampleVault)
	if _, err := cmdtest.Run(t, NewCmdWatch(s), "extra"); err == nil {
		t.Fatalf("expected an error for unexpected arguments")
	}
}
