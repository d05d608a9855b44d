// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/evo-tui/internal/ui/styles"
)

// =============================================================================
// CONFIRM DIALOG
// =============================================================================

// ConfirmResultMsg is emitted when a confirm dialog closes.
type ConfirmResultMsg struct {
	Action    string // caller supplied, e.g. "delete"
	Target    string // caller supplied, e.g. a conversation key
	Confirmed bool
}

// ConfirmDialog is a modal yes/no question. The default button is "Cancel"
// so a stray enter never destroys anything.
type ConfirmDialog struct {
	Title   string
	Body    string
	Confirm string // label of the confirming button

	action   string
	target   string
	visible  bool
	selected int // 0 = confirm, 1 = cancel
	danger   bool
	width    int
	height   int
	theme    *styles.Theme
}

const (
	buttonConfirm = 0
	buttonCancel  = 1
)

// NewConfirmDialog creates a hidden dialog.
func NewConfirmDialog(theme *styles.Theme) *ConfirmDialog {
	return &ConfirmDialog{theme: theme, selected: buttonCancel}
}

// Show opens the dialog. action and target are echoed in ConfirmResultMsg.
func (d *ConfirmDialog) Show(title, body, confirm, action, target string, danger bool) {
	d.Title = title
	d.Body = body
	d.Confirm = confirm
	d.action = action
	d.target = target
	d.danger = danger
	d.selected = buttonCancel
	d.visible = true
}

// Hide closes the dialog without emitting a result.
func (d *ConfirmDialog) Hide() {
	d.visible = false
}

// IsVisible reports whether the dialog is open.
func (d *ConfirmDialog) IsVisible() bool {
	return d.visible
}

// SetSize updates the area the dialog is centered in.
func (d *ConfirmDialog) SetSize(width, height int) {
	d.width = width
	d.height = height
}

// Update handles keys while the dialog is visible. The bool reports whether
// the key was consumed.
func (d *ConfirmDialog) Update(msg tea.Msg) (tea.Cmd, bool) {
	if !d.visible {
		return nil, false
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil, false
	}

	switch key.String() {
	case "left", "right", "tab", "shift+tab", "h", "l":
		d.selected = 1 - d.selected
		return nil, true
	case "enter", " ":
		return d.close(d.selected == buttonConfirm), true
	case "y":
		return d.close(true), true
	case "esc", "n", "q":
		return d.close(false), true
	}
	// Modal: swallow everything else.
	return nil, true
}

func (d *ConfirmDialog) close(confirmed bool) tea.Cmd {
	d.visible = false
	res := ConfirmResultMsg{Action: d.action, Target: d.target, Confirmed: confirmed}
	return func() tea.Msg { return res }
}

// View renders the dialog centered in its area, or "" when hidden.
func (d *ConfirmDialog) View() string {
	if !d.visible {
		return ""
	}

	boxWidth := 50
	if d.width > 0 && d.width-4 < boxWidth {
		boxWidth = maxInt(d.width-4, 24)
	}

	var content strings.Builder
	content.WriteString(d.theme.DialogTitle.Render(d.Title))
	content.WriteString("\n")
	if d.Body != "" {
		content.WriteString(wordWrap(d.Body, boxWidth-6))
		content.WriteString("\n\n")
	}
	content.WriteString(d.renderButtons())
	content.WriteString("\n\n")
	content.WriteString(d.theme.MutedText.Render("y confirm  n cancel  tab switch"))

	border := styles.Purple
	if d.danger {
		border = styles.Rose
	}
	box := d.theme.Dialog.
		BorderForeground(border).
		Width(boxWidth).
		Render(content.String())

	if d.width > 0 && d.height > 0 {
		return lipgloss.Place(d.width, d.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

func (d *ConfirmDialog) renderButtons() string {
	button := lipgloss.NewStyle().
		Foreground(styles.TextPrimary).
		Background(styles.Overlay).
		Padding(0, 2).
		MarginRight(1)
	active := button.
		Foreground(styles.TextInverse).
		Background(styles.Purple).
		Bold(true)

	confirm := d.Confirm
	if confirm == "" {
		confirm = "OK"
	}

	confirmStyle, cancelStyle := button, active
	if d.selected == buttonConfirm {
		confirmStyle, cancelStyle = active, button
		if d.danger {
			confirmStyle = confirmStyle.Background(styles.Rose)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		confirmStyle.Render(confirm),
		cancelStyle.Render("Cancel"),
	)
}
