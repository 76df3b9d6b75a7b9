package pick

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/tagdex/internal/fzf"
	"github.com/Paintersrp/tagdex/internal/state"
	"github.com/Paintersrp/tagdex/internal/views"
	cmdpkg "github.com/Paintersrp/tagdex/pkg/cmd"
)

func NewCmdPick(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pick [query]",
		Short: "Interactively pick a tag and list its documents.",
		Long: heredoc.Doc(`
			Opens a fuzzy finder over the tag vocabulary. The preview pane
			shows the documents carrying the highlighted tag; selecting it
			prints them.

			Example:
			  tagdex pick
			  tagdex pick proj
		`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdpkg.OpenIndex(s); err != nil {
				return err
			}

			vocab, err := s.Index.Vocabulary()
			if err != nil {
				return err
			}

			picker := fzf.NewTagPicker("Select a tag", s.Index.FilesForTag)
			selected, err := picker.Pick(vocab, strings.Join(args, " "))
			if errors.Is(err, fzf.ErrNoSelection) {
				fmt.Fprintln(cmd.OutOrStdout(), "No tag selected")
				return nil
			}
			if err != nil {
				return err
			}

			docs, err := s.Index.FilesForTag(selected.Label)
			if err != nil {
				return err
			}
			slices.Sort(docs)
			return views.Files(cmd.OutOrStdout(), selected.Label, docs)
		},
	}

	return cmd
}
