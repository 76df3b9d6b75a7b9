/*
Copyright © 2024 Ryan Painter paintersrp@gmail.com

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package tags

import (
	"fmt"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/Paintersrp/tagdex/internal/state"
	cmdpkg "github.com/Paintersrp/tagdex/pkg/cmd"
)

func NewCmdTags(s *state.State) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags [path]",
		Short: "Show the tags recorded for a document.",
		Long: heredoc.Doc(`
			Prints the tags the index holds for one document, in the order
			they appear in its header. The path may be absolute or relative
			to the vault root.

			Example:
			  tagdex tags notes/standup.md
		`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := cmdpkg.ResolveDocumentKey(s, args[0])
			if err != nil {
				return err
			}
			if err := cmdpkg.OpenIndex(s); err != nil {
				return err
			}

			labels, err := s.Index.TagsForFile(key)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(labels) == 0 {
				fmt.Fprintf(out, "No tags recorded for %q.\n", key)
				return nil
			}
			for _, label := range labels {
				fmt.Fprintln(out, label)
			}
			return nil
		},
	}

	return cmd
}
