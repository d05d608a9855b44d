// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds the styles of the chat screen. It detects the terminal's
// color capability once at creation.
type Theme struct {
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// ==========================================================================
	// HEADER
	// ==========================================================================

	Header      lipgloss.Style
	HeaderBrand lipgloss.Style
	HeaderUser  lipgloss.Style

	// ==========================================================================
	// SIDEBAR
	// ==========================================================================

	Sidebar             lipgloss.Style
	SidebarTitle        lipgloss.Style
	SidebarItem         lipgloss.Style
	SidebarItemActive   lipgloss.Style
	SidebarItemSelected lipgloss.Style
	SidebarMeta         lipgloss.Style

	// ==========================================================================
	// MESSAGES
	// ==========================================================================

	UserLabel       lipgloss.Style
	UserBubble      lipgloss.Style
	AssistantLabel  lipgloss.Style
	AssistantBubble lipgloss.Style
	Timestamp       lipgloss.Style
	Typing          lipgloss.Style
	EmptyState      lipgloss.Style

	// ==========================================================================
	// INPUT
	// ==========================================================================

	InputContainer         lipgloss.Style
	InputContainerDisabled lipgloss.Style
	InputPrompt            lipgloss.Style

	// ==========================================================================
	// STATUS AND BANNERS
	// ==========================================================================

	StatusBar      lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style
	BannerWarning  lipgloss.Style
	BannerCritical lipgloss.Style
	BannerReached  lipgloss.Style

	// ==========================================================================
	// OVERLAYS
	// ==========================================================================

	Dialog      lipgloss.Style
	DialogTitle lipgloss.Style
	Toast       lipgloss.Style
	LoginBox    lipgloss.Style
	LoginTitle  lipgloss.Style
	ErrorText   lipgloss.Style
	MutedText   lipgloss.Style
}

// NewTheme creates a theme for the current terminal.
func NewTheme() *Theme {
	profile := termenv.ColorProfile()
	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: profile == termenv.TrueColor,
		ColorProfile: profile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	t.Header = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.HeaderBrand = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.HeaderUser = lipgloss.NewStyle().Foreground(TextSecondary).Italic(true)

	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		PaddingRight(1)
	t.SidebarTitle = lipgloss.NewStyle().Bold(true).Foreground(Purple).MarginBottom(1)
	t.SidebarItem = lipgloss.NewStyle().Foreground(TextPrimary).PaddingLeft(1)
	t.SidebarItemActive = lipgloss.NewStyle().Foreground(Cyan).Bold(true).PaddingLeft(1)
	t.SidebarItemSelected = lipgloss.NewStyle().Background(SelectionBg).Foreground(TextPrimary).PaddingLeft(1)
	t.SidebarMeta = lipgloss.NewStyle().Foreground(TextMuted).PaddingLeft(1)

	t.UserLabel = lipgloss.NewStyle().Bold(true).Foreground(Cyan)
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 1)
	t.AssistantLabel = lipgloss.NewStyle().Bold(true).Foreground(Purple)
	t.AssistantBubble = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(AssistantBubbleBorder).
		PaddingLeft(1)
	t.Timestamp = lipgloss.NewStyle().Foreground(TextMuted)
	t.Typing = lipgloss.NewStyle().Foreground(Purple).Italic(true)
	t.EmptyState = lipgloss.NewStyle().Foreground(TextMuted).Italic(true).Align(lipgloss.Center)

	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(0, 1)
	t.InputContainerDisabled = t.InputContainer.BorderForeground(Overlay)
	t.InputPrompt = lipgloss.NewStyle().Foreground(Cyan).Bold(true)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)
	t.ShortcutKey = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	t.ShortcutDesc = lipgloss.NewStyle().Foreground(TextMuted)

	banner := lipgloss.NewStyle().Padding(0, 1).Bold(true)
	t.BannerWarning = banner.Foreground(Amber)
	t.BannerCritical = banner.Foreground(TextPrimary).Background(AmberDeep)
	t.BannerReached = banner.Foreground(TextPrimary).Background(RoseDeep)

	t.Dialog = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Purple).
		Padding(1, 2)
	t.DialogTitle = lipgloss.NewStyle().Bold(true).Foreground(Purple).MarginBottom(1)
	t.Toast = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		Padding(0, 1)
	t.LoginBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Cyan).
		Padding(1, 3)
	t.LoginTitle = lipgloss.NewStyle().Bold(true).Foreground(Cyan).MarginBottom(1)
	t.ErrorText = lipgloss.NewStyle().Foreground(Rose)
	t.MutedText = lipgloss.NewStyle().Foreground(TextMuted)
}
