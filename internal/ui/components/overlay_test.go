// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/evo-tui/internal/api"
	"github.com/jeranaias/evo-tui/internal/ui/styles"
)

// =============================================================================
// TOAST TESTS
// =============================================================================

func TestToastManager(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewToastManager()
	m.Now = func() time.Time { return now }

	info := m.Add(ToastInfo, "Saved")
	m.Add(ToastError, "Failed")
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	if got := m.Toasts()[0].Message; got != "Failed" {
		t.Errorf("newest toast = %q, want Failed", got)
	}

	// Info expires after 4s, error after 8s.
	now = now.Add(5 * time.Second)
	if !m.Prune() {
		t.Fatal("Prune dropped everything")
	}
	for _, toast := range m.Toasts() {
		if toast.ID == info {
			t.Error("info toast survived its duration")
		}
	}

	now = now.Add(5 * time.Second)
	if m.Prune() {
		t.Error("error toast survived its duration")
	}
}

func TestToastManagerDedupAndCap(t *testing.T) {
	m := NewToastManager()
	a := m.Add(ToastWarning, "Busy")
	b := m.Add(ToastWarning, "Busy")
	if a != b || m.Len() != 1 {
		t.Errorf("duplicate toast stacked: ids %d %d, len %d", a, b, m.Len())
	}

	for i := 0; i < 10; i++ {
		m.Add(ToastInfo, strings.Repeat("x", i+1))
	}
	if m.Len() != maxToasts {
		t.Errorf("Len = %d, want %d", m.Len(), maxToasts)
	}

	id := m.Toasts()[1].ID
	m.Dismiss(id)
	for _, toast := range m.Toasts() {
		if toast.ID == id {
			t.Error("Dismiss kept the toast")
		}
	}
	m.DismissNewest()
	if m.Len() != maxToasts-2 {
		t.Errorf("Len after dismissals = %d", m.Len())
	}
}

func TestRenderToasts(t *testing.T) {
	theme := styles.NewTheme()
	if got := RenderToasts(theme, nil, 80); got != "" {
		t.Errorf("no toasts rendered %q", got)
	}
	out := RenderToasts(theme, []Toast{
		{Kind: ToastLimit, Message: "Monthly limit reached"},
		{Kind: ToastSuccess, Message: "Conversation deleted"},
	}, 80)
	for _, want := range []string{styles.StatusIndicators.Limit, "Monthly limit reached", styles.StatusIndicators.Success} {
		if !strings.Contains(out, want) {
			t.Errorf("toasts missing %q:\n%s", want, out)
		}
	}
}

// =============================================================================
// BANNER TESTS
// =============================================================================

func TestUsageBannerLevels(t *testing.T) {
	tests := []struct {
		name    string
		usage   *api.Usage
		visible bool
		title   string
	}{
		{"unknown", nil, false, ""},
		{"normal", &api.Usage{MessagesUsed: 10, MessagesLimit: 100, PercentUsed: 10}, false, ""},
		{"approaching", &api.Usage{MessagesUsed: 80, MessagesLimit: 100, PercentUsed: 80}, true, "Approaching usage limit"},
		{"critical", &api.Usage{MessagesUsed: 95, MessagesLimit: 100, PercentUsed: 95}, true, "Almost out of messages"},
		{"reached", &api.Usage{MessagesUsed: 100, MessagesLimit: 100, PercentUsed: 100}, true, "Usage limit reached"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := NewUsageBanner(styles.NewTheme())
			b.SetUsage(tc.usage)
			if b.Visible() != tc.visible {
				t.Errorf("Visible = %v, want %v", b.Visible(), tc.visible)
			}
			if b.Title() != tc.title {
				t.Errorf("Title = %q, want %q", b.Title(), tc.title)
			}
			view := b.View()
			if !tc.visible && view != "" {
				t.Errorf("hidden banner rendered %q", view)
			}
			if tc.visible && !strings.Contains(view, tc.title) {
				t.Errorf("view missing title:\n%s", view)
			}
		})
	}
}

func TestUsageBannerMessage(t *testing.T) {
	b := NewUsageBanner(styles.NewTheme())
	b.SetUsage(&api.Usage{MessagesUsed: 850, MessagesLimit: 1000, PercentUsed: 85})
	want := "You've used 85% of your monthly allowance (150 of 1,000 messages left)."
	if got := b.Message(); got != want {
		t.Errorf("Message = %q, want %q", got, want)
	}

	b.SetWidth(200)
	if view := b.View(); !strings.Contains(view, strings.Repeat(styles.ProgressFull, 13)) {
		t.Errorf("wide banner has no progress bar:\n%s", view)
	}
}

// =============================================================================
// STATUS BAR TESTS
// =============================================================================

func TestStatusBar(t *testing.T) {
	s := NewStatusBar(styles.NewTheme())
	s.Status = StatusWaiting
	s.Shortcuts = []Shortcut{{"enter", "send"}, {"ctrl+n", "new chat"}, {"ctrl+e", "export"}}

	s.SetWidth(120)
	view := s.View()
	for _, want := range []string{"Waiting for reply...", "enter", "ctrl+e"} {
		if !strings.Contains(view, want) {
			t.Errorf("wide bar missing %q:\n%s", want, view)
		}
	}

	s.SetWidth(40)
	view = s.View()
	if strings.Contains(view, "ctrl+e") {
		t.Errorf("narrow bar kept every hint:\n%s", view)
	}
	if strings.Contains(view, "\n") {
		t.Errorf("status bar wrapped:\n%s", view)
	}
}

func TestStatusString(t *testing.T) {
	if StatusRevealing.String() != "Replying..." || Status(42).String() != "Unknown" {
		t.Error("unexpected status strings")
	}
}

// =============================================================================
// CONFIRM DIALOG TESTS
// =============================================================================

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestConfirmDialog(t *testing.T) {
	d := NewConfirmDialog(styles.NewTheme())
	if cmd, handled := d.Update(key("y")); cmd != nil || handled {
		t.Fatal("hidden dialog consumed a key")
	}

	d.Show("Delete conversation?", "This cannot be undone.", "Delete", "delete", "42", true)
	if !strings.Contains(d.View(), "Delete conversation?") {
		t.Errorf("view:\n%s", d.View())
	}

	// Enter on the default button cancels.
	cmd, handled := d.Update(key("enter"))
	if !handled || cmd == nil {
		t.Fatal("enter not handled")
	}
	if res := cmd().(ConfirmResultMsg); res.Confirmed || res.Target != "42" || res.Action != "delete" {
		t.Errorf("default result = %+v", res)
	}
	if d.IsVisible() {
		t.Error("dialog still visible")
	}

	d.Show("Delete conversation?", "", "Delete", "delete", "42", true)
	d.Update(key("tab"))
	cmd, _ = d.Update(key("enter"))
	if res := cmd().(ConfirmResultMsg); !res.Confirmed {
		t.Errorf("tab+enter result = %+v", res)
	}

	d.Show("Delete conversation?", "", "Delete", "delete", "42", true)
	if cmd, handled := d.Update(key("x")); cmd != nil || !handled {
		t.Error("modal dialog let a key through")
	}
	cmd, _ = d.Update(key("esc"))
	if res := cmd().(ConfirmResultMsg); res.Confirmed {
		t.Error("esc confirmed")
	}
}
