package rebuild

import (
	"errors"
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/tagdex/internal/state"
	"github.com/Paintersrp/tagdex/internal/tags"
)

func NewCmdRebuild(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rescan the vault and refresh the cached index.",
		Long: heredoc.Doc(`
			Walks the whole vault, rebuilds the tag index from the document
			headers and writes it to the cache, regardless of how fresh the
			cached copy is.

			Example:
			  tagdex rebuild
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if s == nil || s.Index == nil {
				return fmt.Errorf("index is not initialized")
			}

			if err := s.Index.Rebuild(); err != nil {
				if errors.Is(err, tags.ErrIndexing) {
					return fmt.Errorf("a rebuild is already running")
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), s.StatusLine())
			return nil
		},
	}

	return cmd
}
