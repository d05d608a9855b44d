// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/evo-tui/internal/ui/styles"
)

func sidebarItems(n int) []SidebarItem {
	items := make([]SidebarItem, n)
	for i := range items {
		items[i] = SidebarItem{
			Key:   "k" + string(rune('a'+i)),
			Title: "Conversation " + string(rune('A'+i)),
		}
	}
	return items
}

func TestSidebarCursor(t *testing.T) {
	s := NewSidebar(styles.NewTheme())
	s.SetSize(30, 6) // four rows
	s.SetItems(sidebarItems(10))

	if got := s.SelectedKey(); got != "ka" {
		t.Fatalf("SelectedKey = %q, want ka", got)
	}
	s.MoveUp()
	if got := s.SelectedKey(); got != "ka" {
		t.Errorf("MoveUp at top moved to %q", got)
	}
	for i := 0; i < 20; i++ {
		s.MoveDown()
	}
	if got := s.SelectedKey(); got != "kj" {
		t.Errorf("MoveDown to bottom = %q, want kj", got)
	}
	if s.offset != 6 {
		t.Errorf("offset = %d, want 6", s.offset)
	}

	view := s.View()
	if !strings.Contains(view, "Conversation J") || strings.Contains(view, "Conversation A") {
		t.Errorf("view does not follow the cursor:\n%s", view)
	}
}

func TestSidebarSetItemsKeepsCursor(t *testing.T) {
	s := NewSidebar(styles.NewTheme())
	s.SetItems(sidebarItems(3))
	s.MoveDown()
	s.MoveDown() // kc

	items := append([]SidebarItem{{Key: "new", Title: "New Chat"}}, sidebarItems(3)...)
	s.SetItems(items)
	if got := s.SelectedKey(); got != "kc" {
		t.Errorf("SelectedKey after prepend = %q, want kc", got)
	}

	s.SetItems(sidebarItems(1))
	if got := s.SelectedKey(); got != "ka" {
		t.Errorf("SelectedKey after shrink = %q, want ka", got)
	}

	s.SetItems(nil)
	if got := s.SelectedKey(); got != "" {
		t.Errorf("SelectedKey on empty = %q", got)
	}
}

func TestSidebarSelectKey(t *testing.T) {
	s := NewSidebar(styles.NewTheme())
	s.SetItems(sidebarItems(5))
	if !s.SelectKey("kd") || s.SelectedKey() != "kd" {
		t.Errorf("SelectKey(kd) failed, at %q", s.SelectedKey())
	}
	if s.SelectKey("missing") {
		t.Error("SelectKey(missing) reported true")
	}
}

func TestSidebarView(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := NewSidebar(styles.NewTheme())
	s.Now = func() time.Time { return now }
	s.SetSize(32, 8)
	s.SetItems([]SidebarItem{
		{Key: "a", Title: "A very long conversation title that will not fit", UpdatedAt: now.Add(-2 * time.Hour), Active: true},
		{Key: "b", Title: "Draft", Local: true},
	})

	view := s.View()
	for _, want := range []string{"Conversations", "* A very", "2h", "Draft", "..."} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	for i, line := range strings.Split(view, "\n") {
		if w := lipgloss.Width(line); w > 32 {
			t.Errorf("line %d is %d cells wide: %q", i, w, line)
		}
	}
}

func TestSidebarEmpty(t *testing.T) {
	s := NewSidebar(styles.NewTheme())
	if view := s.View(); !strings.Contains(view, "No conversations yet") {
		t.Errorf("empty view:\n%s", view)
	}
}
