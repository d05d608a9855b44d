// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/evo-tui/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status is the reply state shown on the left of the status bar.
type Status int

const (
	StatusReady Status = iota
	StatusLoading
	StatusWaiting   // request sent, no reply yet
	StatusRevealing // reply arriving word by word
	StatusSignedOut
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusLoading:
		return "Loading..."
	case StatusWaiting:
		return "Waiting for reply..."
	case StatusRevealing:
		return "Replying..."
	case StatusSignedOut:
		return "Signed out"
	default:
		return "Unknown"
	}
}

// Shortcut is one key hint.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line: status on the left, key hints on the right.
// Hints that do not fit are dropped from the end.
type StatusBar struct {
	Status    Status
	Detail    string // e.g. "12 of 1,000 messages left"
	Shortcuts []Shortcut
	Width     int
	theme     *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// SetWidth updates the bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// View renders the status bar.
func (s *StatusBar) View() string {
	width := maxInt(s.Width, 20)
	inner := width - 2

	left := s.statusStyle().Render(s.Status.String())
	if s.Detail != "" {
		left += s.theme.ShortcutDesc.Render("  " + s.Detail)
	}
	if lipgloss.Width(left) > inner {
		left = truncate(s.Status.String(), inner)
	}

	right := s.renderShortcuts(inner - lipgloss.Width(left) - 2)
	gap := maxInt(inner-lipgloss.Width(left)-lipgloss.Width(right), 0)

	return s.theme.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

// renderShortcuts joins as many hints as fit in width.
func (s *StatusBar) renderShortcuts(width int) string {
	var parts []string
	used := 0
	for _, sc := range s.Shortcuts {
		part := s.theme.ShortcutKey.Render(sc.Key) + " " + s.theme.ShortcutDesc.Render(sc.Desc)
		w := lipgloss.Width(part)
		if len(parts) > 0 {
			w += 2
		}
		if used+w > width {
			break
		}
		parts = append(parts, part)
		used += w
	}
	return strings.Join(parts, "  ")
}

func (s *StatusBar) statusStyle() lipgloss.Style {
	switch s.Status {
	case StatusWaiting, StatusRevealing:
		return lipgloss.NewStyle().Foreground(styles.Purple).Bold(true)
	case StatusLoading:
		return lipgloss.NewStyle().Foreground(styles.Amber)
	case StatusSignedOut:
		return lipgloss.NewStyle().Foreground(styles.Rose)
	default:
		return lipgloss.NewStyle().Foreground(styles.Emerald)
	}
}
