package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Paintersrp/tagdex/internal/pathutil"
	"github.com/Paintersrp/tagdex/internal/state"
)

// ResolveDocumentKey turns a path argument into the vault-relative key the
// index stores. Relative arguments are taken relative to the vault root.
func ResolveDocumentKey(s *state.State, arg string) (string, error) {
	if s == nil || s.Config == nil {
		return "", fmt.Errorf("state configuration is not initialized")
	}
	if s.Config.VaultDir == "" {
		return "", fmt.Errorf("vault directory is not configured")
	}
	vaultDir := filepath.Clean(s.Config.VaultDir)
	if strings.TrimSpace(arg) == "" {
		return "", fmt.Errorf("a path argument is required")
	}

	resolved := filepath.Clean(arg)
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(vaultDir, resolved)
	}

	if err := ensureWithinVault(vaultDir, resolved); err != nil {
		return "", err
	}

	rel, err := pathutil.VaultRelative(vaultDir, resolved)
	if err != nil {
		return "", err
	}
	key := pathutil.ToKey(rel)
	if key == "" {
		return "", fmt.Errorf("path %q does not name a document", arg)
	}
	return key, nil
}

func ensureWithinVault(vaultDir, resolved string) error {
	rel, err := filepath.Rel(vaultDir, resolved)
	if err != nil {
		return fmt.Errorf("failed to resolve path %q relative to vault %q: %w", resolved, vaultDir, err)
	}

	if rel == "." {
		return nil
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q is outside the vault %q", resolved, vaultDir)
	}

	return nil
}

// OpenIndex loads the index for commands that only read it.
func OpenIndex(s *state.State) error {
	if s == nil || s.Index == nil {
		return fmt.Errorf("index is not initialized")
	}
	return s.Index.Open()
}
