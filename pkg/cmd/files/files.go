package files

import (
	"slices"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/tagdex/internal/state"
	"github.com/Paintersrp/tagdex/internal/tags"
	"github.com/Paintersrp/tagdex/internal/views"
	cmdpkg "github.com/Paintersrp/tagdex/pkg/cmd"
)

func NewCmdFiles(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files [tag]",
		Short: "List the documents bearing a tag.",
		Long: heredoc.Doc(`
			Lists the vault-relative paths of every document whose header
			carries the tag. Tags are matched case-insensitively.

			Example:
			  tagdex files project
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdpkg.OpenIndex(s); err != nil {
				return err
			}

			label := tags.NormalizeLabel(args[0])
			docs, err := s.Index.FilesForTag(label)
			if err != nil {
				return err
			}
			slices.Sort(docs)
			return views.Files(cmd.OutOrStdout(), label, docs)
		},
	}

	return cmd
}
