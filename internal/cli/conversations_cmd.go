// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jeranaias/evo-tui/internal/conversation"
	"github.com/jeranaias/evo-tui/internal/export"
	"github.com/jeranaias/evo-tui/internal/model"
)

const titleColumnWidth = 40

func newConversationsCommand(appFn func() *App, opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv", "c"},
		Short:   "List, show, delete and export conversations",
	}
	cmd.AddCommand(
		newConversationsListCommand(appFn, opts),
		newConversationsShowCommand(appFn, opts),
		newConversationsDeleteCommand(appFn),
		newConversationsExportCommand(appFn),
	)
	return cmd
}

func newConversationsListCommand(appFn func() *App, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List conversations, most recent first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			if err := app.requireSession(); err != nil {
				return err
			}
			ctx, cancel := app.ctx(cmd.Context())
			defer cancel()
			list, err := app.Client.ListConversations(ctx)
			if err != nil {
				return err
			}
			if opts.JSON {
				return printJSON(cmd.OutOrStdout(), "conversations list", list)
			}

			out := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(out, DimStyle.Render("No conversations yet."))
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTITLE\tUPDATED")
			for _, c := range list {
				title := c.Title
				if title == "" {
					title = model.DefaultTitle
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, truncateString(title, titleColumnWidth), formatTime(c.UpdatedAt.Time))
			}
			return tw.Flush()
		},
	}
}

// fetchConversation loads one conversation with its messages.
func fetchConversation(cmd *cobra.Command, app *App, id string) (*model.Conversation, error) {
	ctx, cancel := app.ctx(cmd.Context())
	defer cancel()
	detail, err := app.Client.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	return conversation.FromDetail(detail), nil
}

func newConversationsShowCommand(appFn func() *App, opts *Options) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			if err := app.requireSession(); err != nil {
				return err
			}
			conv, err := fetchConversation(cmd, app, args[0])
			if err != nil {
				return err
			}
			if opts.JSON {
				exp := export.NewJSONExporter(export.DefaultOptions())
				data, err := exp.Export(conv)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			printConversation(cmd.OutOrStdout(), conv, !raw && app.Config.Chat.Markdown && isTerminalWriter(cmd.OutOrStdout()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print replies without markdown rendering")
	return cmd
}

func printConversation(out io.Writer, conv *model.Conversation, markdown bool) {
	fmt.Fprintln(out, TitleStyle.Render(conv.GetTitle()))
	for _, m := range conv.Messages {
		label := PromptStyle.Render("You")
		if m.Role == model.RoleAssistant {
			label = AssistantStyle.Render(assistantName)
		}
		fmt.Fprintf(out, "%s %s\n", label, DimStyle.Render(formatTime(m.Timestamp)))
		content := m.Content
		switch {
		case m.Role == model.RoleAssistant && markdown:
			content = strings.TrimSpace(renderMarkdown(content, GetTerminalWidth()))
		case isTerminalWriter(out):
			content = WrapText(content, 0)
		}
		fmt.Fprintln(out, content)
		fmt.Fprintln(out)
	}
}

func newConversationsDeleteCommand(appFn func() *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a conversation",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			if err := app.requireSession(); err != nil {
				return err
			}
			ok, err := RequireConfirmation(yes, "Delete conversation "+args[0], cmd.InOrStdin(), cmd.OutOrStdout(), IsTTY())
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}

			ctx, cancel := app.ctx(cmd.Context())
			defer cancel()
			if err := app.Client.DeleteConversation(ctx, args[0]); err != nil {
				return err
			}
			log.WithField("conversation", args[0]).Info("conversation deleted")
			fmt.Fprintf(cmd.OutOrStdout(), "%s Conversation deleted\n", SuccessStyle.Render("[OK]"))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func newConversationsExportCommand(appFn func() *App) *cobra.Command {
	var (
		format formatFlag
		dir    string
		stdout bool
		open   bool
	)
	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a conversation to a file",
		Long: `Export a conversation as text, markdown, json, yaml or html.

The file is written to export.dir (default ~/.evo/exports) unless --stdout
is given.`,
		Example: `  evo conversations export 42
  evo conversations export 42 --format html --open
  evo conversations export 42 --format json --stdout | jq .`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			if err := app.requireSession(); err != nil {
				return err
			}
			name := format.String()
			if name == "" {
				name = app.Config.Export.Format
			}
			eopts := export.DefaultOptions()
			eopts.OpenAfterExport = open
			if dir == "" {
				var err error
				if dir, err = app.Config.ExportDir(); err != nil {
					return err
				}
			}
			eopts.OutputDir = dir

			exp, err := export.ForFormat(name, eopts)
			if err != nil {
				return NewValidationErrorWithExample("export.format", name, err.Error(), "evo config set export.format markdown")
			}
			conv, err := fetchConversation(cmd, app, args[0])
			if err != nil {
				return err
			}

			if stdout {
				data, err := exp.Export(conv)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			path, err := export.ExportToFile(conv, exp, eopts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Exported to %s\n", SuccessStyle.Render("[OK]"), path)
			return nil
		},
	}
	addFormatFlag(cmd.Flags(), &format)
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Output directory (default export.dir)")
	cmd.Flags().BoolVar(&stdout, "stdout", false, "Write to stdout instead of a file")
	cmd.Flags().BoolVar(&open, "open", false, "Open the file after exporting")
	return cmd
}
