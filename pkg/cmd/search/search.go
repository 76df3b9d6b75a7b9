package search

import (
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/tagdex/internal/state"
	"github.com/Paintersrp/tagdex/internal/views"
	cmdpkg "github.com/Paintersrp/tagdex/pkg/cmd"
)

func NewCmdSearch(s *state.State) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Fuzzy search the tag vocabulary.",
		Long: heredoc.Doc(`
			Ranks the tags of the vault against a query. Exact matches come
			first, then prefixes, word prefixes, in-order subsequences and
			finally tags within a few typos of the query.

			Example:
			  tagdex search proj
			  tagdex search "meeting notes"
		`),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdpkg.OpenIndex(s); err != nil {
				return err
			}

			query := strings.Join(args, " ")
			matches, err := s.Index.Search(query)
			if err != nil {
				return err
			}
			if limit > 0 && len(matches) > limit {
				matches = matches[:limit]
			}
			return views.Matches(cmd.OutOrStdout(), query, matches)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Show at most this many matches (0 shows all).")

	return cmd
}
