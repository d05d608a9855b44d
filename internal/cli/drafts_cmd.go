// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jeranaias/evo-tui/internal/storage"
)

const draftPreviewWidth = 60

func newDraftsCommand(appFn func() *App, opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "List and search unsent messages saved by the chat UI",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List drafts, most recent first",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDrafts(appFn(), func(s *storage.DraftStore) error {
					drafts, err := s.List(cmd.Context())
					if err != nil {
						return err
					}
					return printDrafts(cmd.OutOrStdout(), opts, "drafts list", drafts)
				})
			},
		},
		&cobra.Command{
			Use:     "search <text>",
			Short:   "Find drafts containing text",
			Example: `  evo drafts search refund`,
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDrafts(appFn(), func(s *storage.DraftStore) error {
					drafts, err := s.Search(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					return printDrafts(cmd.OutOrStdout(), opts, "drafts search", drafts)
				})
			},
		},
		&cobra.Command{
			Use:   "delete <conversation-id>",
			Short: "Discard the draft of a conversation (\"new\" for the new-chat draft)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withDrafts(appFn(), func(s *storage.DraftStore) error {
					if err := s.Delete(cmd.Context(), args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s Draft discarded\n", SuccessStyle.Render("[OK]"))
					return nil
				})
			},
		},
	)
	return cmd
}

// withDrafts opens the draft database for the duration of fn.
func withDrafts(app *App, fn func(*storage.DraftStore) error) error {
	path, err := app.Config.DraftsPath()
	if err != nil {
		return err
	}
	s, err := storage.OpenDraftStore(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func printDrafts(out io.Writer, opts *Options, command string, drafts []storage.Draft) error {
	if opts.JSON {
		return printJSON(out, command, drafts)
	}
	if len(drafts) == 0 {
		fmt.Fprintln(out, DimStyle.Render("No drafts."))
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONVERSATION\tSAVED\tDRAFT")
	for _, d := range drafts {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Key, formatTime(d.UpdatedAt), d.Preview(draftPreviewWidth))
	}
	return tw.Flush()
}
