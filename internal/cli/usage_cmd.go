// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jeranaias/evo-tui/internal/api"
	"github.com/jeranaias/evo-tui/internal/ui/styles"
)

const usageBarWidth = 30

func newUsageCommand(appFn func() *App, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show this month's message usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			if err := app.requireSession(); err != nil {
				return err
			}
			ctx, cancel := app.ctx(cmd.Context())
			defer cancel()
			u, err := app.Client.Usage(ctx)
			if err != nil {
				return err
			}
			if opts.JSON {
				return printJSON(cmd.OutOrStdout(), "usage", u)
			}
			printUsage(cmd.OutOrStdout(), u)
			return nil
		},
	}
}

func printUsage(out io.Writer, u *api.Usage) {
	fmt.Fprintln(out, TitleStyle.Render("Monthly usage"))
	limit := "unlimited"
	if u.MessagesLimit > 0 {
		limit = formatNumber(u.MessagesLimit)
	}
	fmt.Fprintln(out, RenderField("Messages used", formatNumber(u.MessagesUsed)+" of "+limit))
	if left := u.Remaining(); left >= 0 {
		fmt.Fprintln(out, RenderField("Remaining", formatNumber(left)))
	}
	fmt.Fprintln(out, RenderField("Used", fmt.Sprintf("%.0f%% [%s]", u.PercentUsed,
		styles.RenderProgressBar(usageBarWidth, u.PercentUsed))))

	switch u.Level() {
	case api.UsageReached:
		fmt.Fprintln(out, ErrorStyle.Render("You've reached your monthly message limit. Contact your admin for more."))
	case api.UsageCritical:
		fmt.Fprintln(out, WarningStyle.Render("Almost out of messages."))
	case api.UsageApproaching:
		fmt.Fprintln(out, WarningStyle.Render("Approaching your usage limit."))
	}
}
