package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/tagdex/internal/state"
	cmdpkg "github.com/Paintersrp/tagdex/pkg/cmd"
)

func NewCmdWatch(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep the index current while documents change.",
		Long: heredoc.Doc(`
			Loads the index and follows file system events in the vault,
			re-indexing documents as they are saved, moved or deleted. Each
			change is written through to the cache. Stop with Ctrl+C.

			Example:
			  tagdex watch --log-level info
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdpkg.OpenIndex(s); err != nil {
				return err
			}

			watcher, err := s.NewWatcher()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Watching %s\n%s\n", s.Vault, s.StatusLine())

			err = watcher.Run(ctx)
			fmt.Fprintln(out, s.StatusLine())
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		},
	}

	return cmd
}
