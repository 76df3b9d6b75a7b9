package root

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/tagdex/internal/constants"
	"github.com/Paintersrp/tagdex/internal/state"
	"github.com/Paintersrp/tagdex/pkg/cmd/files"
	"github.com/Paintersrp/tagdex/pkg/cmd/list"
	"github.com/Paintersrp/tagdex/pkg/cmd/pick"
	"github.com/Paintersrp/tagdex/pkg/cmd/rebuild"
	"github.com/Paintersrp/tagdex/pkg/cmd/search"
	"github.com/Paintersrp/tagdex/pkg/cmd/tags"
	"github.com/Paintersrp/tagdex/pkg/cmd/watch"
)

// NewCmdRoot builds the command tree. The state is initialized from the
// persistent flags once they are parsed, unless it already carries an index.
func NewCmdRoot(s *state.State) (*cobra.Command, error) {
	opts := state.Options{}

	cmd := &cobra.Command{
		Use:     "tagdex",
		Short:   "Index and fuzzy search the tags of a markdown vault.",
		Version: constants.Version,
		Long: heredoc.Doc(`
			tagdex reads the tags declared in the front matter of the markdown
			documents in a vault, keeps a cached index of them and answers
			tag queries with typo-tolerant ranking.

			  tagdex list
			  tagdex search proj
			  tagdex files project
		`),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if s.Index != nil {
				return nil
			}
			return s.Init(opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return s.Close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default is $HOME/.tagdex/cfg.yaml)")
	flags.StringVar(&opts.VaultDir, "vault", "", "vault directory, overriding the config file")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn or error")

	cmd.AddCommand(
		list.NewCmdList(s),
		search.NewCmdSearch(s),
		files.NewCmdFiles(s),
		tags.NewCmdTags(s),
		pick.NewCmdPick(s),
		rebuild.NewCmdRebuild(s),
		watch.NewCmdWatch(s),
	)

	return cmd, nil
}
