// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/evo-tui/internal/ui/styles"
)

// =============================================================================
// SIDEBAR COMPONENT
// =============================================================================

// SidebarItem is one conversation row.
type SidebarItem struct {
	Key       string // model.ID.Key of the conversation
	Title     string
	UpdatedAt time.Time
	Active    bool
	Local     bool // not yet persisted on the server
}

// Sidebar is the conversation list. It owns the keyboard cursor and the
// scroll offset; which conversation is active is decided by the caller.
type Sidebar struct {
	items  []SidebarItem
	cursor int
	offset int
	width  int
	height int

	Focused bool
	Now     func() time.Time
	theme   *styles.Theme
}

// NewSidebar creates an empty sidebar.
func NewSidebar(theme *styles.Theme) *Sidebar {
	return &Sidebar{
		width:  28,
		height: 10,
		Now:    time.Now,
		theme:  theme,
	}
}

// SetSize updates the outer dimensions.
func (s *Sidebar) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.clampOffset()
}

// Width returns the outer width.
func (s *Sidebar) Width() int {
	return s.width
}

// SetItems replaces the rows and keeps the cursor on the same conversation
// when it is still listed.
func (s *Sidebar) SetItems(items []SidebarItem) {
	prev := s.SelectedKey()
	s.items = items
	if prev == "" || !s.SelectKey(prev) {
		if s.cursor >= len(items) {
			s.cursor = maxInt(len(items)-1, 0)
		}
	}
	s.clampOffset()
}

// Len returns the number of rows.
func (s *Sidebar) Len() int {
	return len(s.items)
}

// SelectedKey returns the key under the cursor, or "" when empty.
func (s *Sidebar) SelectedKey() string {
	if s.cursor < 0 || s.cursor >= len(s.items) {
		return ""
	}
	return s.items[s.cursor].Key
}

// SelectKey moves the cursor to key. It reports whether key was found.
func (s *Sidebar) SelectKey(key string) bool {
	for i, it := range s.items {
		if it.Key == key {
			s.cursor = i
			s.clampOffset()
			return true
		}
	}
	return false
}

// MoveUp moves the cursor one row up.
func (s *Sidebar) MoveUp() {
	if s.cursor > 0 {
		s.cursor--
		s.clampOffset()
	}
}

// MoveDown moves the cursor one row down.
func (s *Sidebar) MoveDown() {
	if s.cursor < len(s.items)-1 {
		s.cursor++
		s.clampOffset()
	}
}

// rows is the number of item rows that fit under the title.
func (s *Sidebar) rows() int {
	return maxInt(s.height-2, 1)
}

func (s *Sidebar) clampOffset() {
	rows := s.rows()
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+rows {
		s.offset = s.cursor - rows + 1
	}
	if maxOff := maxInt(len(s.items)-rows, 0); s.offset > maxOff {
		s.offset = maxOff
	}
	if s.offset < 0 {
		s.offset = 0
	}
}

// View renders the sidebar at its configured size.
func (s *Sidebar) View() string {
	inner := maxInt(s.width-2, 8) // border and padding

	var b strings.Builder
	title := "Conversations"
	if s.Focused {
		title = "> " + title
	}
	b.WriteString(s.theme.SidebarTitle.Render(truncate(title, inner)))

	if len(s.items) == 0 {
		b.WriteString("\n")
		b.WriteString(s.theme.SidebarMeta.Render(truncate("No conversations yet", inner-1)))
	}

	now := s.Now()
	end := minInt(s.offset+s.rows(), len(s.items))
	for i := s.offset; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(s.renderItem(s.items[i], i == s.cursor, inner, now))
	}

	return s.theme.Sidebar.
		Width(s.width - 1).
		Height(s.height).
		Render(b.String())
}

func (s *Sidebar) renderItem(it SidebarItem, selected bool, width int, now time.Time) string {
	marker := "  "
	if it.Active {
		marker = "* "
	}

	meta := relativeTime(it.UpdatedAt, now)
	if it.Local {
		meta = "..."
	}

	// PaddingLeft(1) of the item styles takes one cell.
	avail := width - 1 - lipgloss.Width(marker)
	titleWidth := avail
	if meta != "" {
		titleWidth = avail - lipgloss.Width(meta) - 1
	}
	if titleWidth < 4 {
		titleWidth = avail
		meta = ""
	}

	line := marker + padRight(it.Title, titleWidth)
	if meta != "" {
		line += " " + meta
	}

	switch {
	case selected && s.Focused:
		return s.theme.SidebarItemSelected.Render(line)
	case it.Active:
		return s.theme.SidebarItemActive.Render(line)
	default:
		return s.theme.SidebarItem.Render(line)
	}
}
