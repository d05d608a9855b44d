// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/evo-tui/internal/api"
	"github.com/jeranaias/evo-tui/internal/ui/styles"
)

// =============================================================================
// USAGE BANNER
// =============================================================================

const bannerBarWidth = 16

// UsageBanner warns about the monthly message allowance. It renders nothing
// while usage is below the approaching threshold or unknown.
type UsageBanner struct {
	usage *api.Usage
	width int
	theme *styles.Theme
}

// NewUsageBanner creates a banner with no snapshot.
func NewUsageBanner(theme *styles.Theme) *UsageBanner {
	return &UsageBanner{width: 80, theme: theme}
}

// SetUsage replaces the snapshot. nil hides the banner.
func (b *UsageBanner) SetUsage(u *api.Usage) {
	b.usage = u
}

// SetWidth updates the banner width.
func (b *UsageBanner) SetWidth(width int) {
	b.width = width
}

// Visible reports whether View renders anything.
func (b *UsageBanner) Visible() bool {
	return b.usage != nil && b.usage.Level() != api.UsageNormal
}

// Title returns the headline for the current level.
func (b *UsageBanner) Title() string {
	if b.usage == nil {
		return ""
	}
	switch b.usage.Level() {
	case api.UsageApproaching:
		return "Approaching usage limit"
	case api.UsageCritical:
		return "Almost out of messages"
	case api.UsageReached:
		return "Usage limit reached"
	default:
		return ""
	}
}

// Message returns the detail line for the current level.
func (b *UsageBanner) Message() string {
	if b.usage == nil {
		return ""
	}
	u := b.usage
	if u.Level() == api.UsageReached {
		return "You've reached your monthly message limit. Contact your admin for more."
	}
	msg := fmt.Sprintf("You've used %s of your monthly allowance", fmtPercent(u.PercentUsed))
	if left := u.Remaining(); left >= 0 {
		msg += fmt.Sprintf(" (%s of %s messages left)", fmtNumber(left), fmtNumber(u.MessagesLimit))
	}
	return msg + "."
}

// View renders the banner, or "" when hidden.
func (b *UsageBanner) View() string {
	if !b.Visible() {
		return ""
	}

	var style lipgloss.Style
	indicator := styles.StatusIndicators.Warning
	switch b.usage.Level() {
	case api.UsageApproaching:
		style = b.theme.BannerWarning
	case api.UsageCritical:
		style = b.theme.BannerCritical
	default:
		style = b.theme.BannerReached
		indicator = styles.StatusIndicators.Limit
	}

	bar := "[" + styles.RenderProgressBar(bannerBarWidth, b.usage.PercentUsed) + "]"
	text := indicator + " " + b.Title() + ": " + b.Message()

	// Padding(0, 1) takes two cells.
	avail := b.width - 2
	if avail >= lipgloss.Width(text)+lipgloss.Width(bar)+1 {
		text = text + " " + bar
	} else {
		text = truncate(text, avail)
	}
	return style.Width(b.width).Render(text)
}
