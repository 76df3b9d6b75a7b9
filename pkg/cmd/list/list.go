package list

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/tagdex/internal/state"
	"github.com/Paintersrp/tagdex/internal/views"
	cmdpkg "github.com/Paintersrp/tagdex/pkg/cmd"
)

func NewCmdList(s *state.State) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List every tag in the vault by document count.",
		Long: heredoc.Doc(`
			Lists the tag vocabulary of the vault, most used first. Tags with
			the same count are ordered alphabetically.

			Example:
			  tagdex list --limit 20
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdpkg.OpenIndex(s); err != nil {
				return err
			}

			vocab, err := s.Index.Vocabulary()
			if err != nil {
				return err
			}
			if limit > 0 && len(vocab) > limit {
				vocab = vocab[:limit]
			}
			return views.Vocabulary(cmd.OutOrStdout(), vocab)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many tags (0 shows all).")

	return cmd
}
