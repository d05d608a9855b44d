// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/jeranaias/evo-tui/internal/conversation"
	"github.com/jeranaias/evo-tui/internal/session"
	"github.com/jeranaias/evo-tui/internal/ui/components"
)

// deleteAction tags the confirmation dialog of a delete.
const deleteAction = "delete"

// =============================================================================
// UPDATE
// =============================================================================

// Update handles messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refreshViewport()
		return m, nil

	case tea.KeyMsg:
		if m.state == StateLogin {
			return m.handleLoginKey(msg)
		}
		return m.handleKey(msg)

	case loginDoneMsg:
		if msg.Err != nil {
			m.login.Failed(msg.Err)
			return m, nil
		}
		return m, m.startChat()

	case sessionChangeMsg:
		return m.handleSessionChange(msg)

	case spinner.TickMsg:
		if m.ctrl == nil || !m.ctrl.Waiting() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refreshViewport()
		return m, cmd

	case components.ToastTickMsg:
		m.toasts.Prune()
		if m.toasts.Len() == 0 {
			m.toastTicking = false
			return m, nil
		}
		return m, components.ToastTickCmd()

	case components.ConfirmResultMsg:
		if !msg.Confirmed || msg.Action != deleteAction || m.ctrl == nil {
			return m, nil
		}
		cmd, err := m.ctrl.Delete(msg.Target)
		if errors.Is(err, conversation.ErrBusy) {
			m.toasts.Add(components.ToastWarning, "Wait for the reply before deleting this conversation.")
		} else if err != nil {
			log.WithError(err).Debug("delete refused")
		}
		return m, tea.Batch(cmd, m.sync())

	case draftLoadedMsg:
		m.applyDraft(msg)
		return m, nil

	case exportDoneMsg:
		return m, m.exportDone(msg)
	}

	if m.state == StateLogin {
		return m, m.login.Update(msg, m.deps.Client, m.ctx)
	}

	var cmds []tea.Cmd
	if m.ctrl != nil {
		cmds = append(cmds, m.ctrl.Update(msg))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd, m.sync())
	return m, tea.Batch(cmds...)
}

// =============================================================================
// SESSION CHANGES
// =============================================================================

func (m Model) handleSessionChange(msg sessionChangeMsg) (tea.Model, tea.Cmd) {
	if msg.Closed {
		return m, nil
	}
	wait := m.waitForSessionChange()
	switch {
	case msg.Change == session.ChangeLoggedOut && m.state == StateChat:
		return m, tea.Batch(wait, m.endChat(session.ReasonExternal))
	case msg.Change == session.ChangeLoggedIn && m.state == StateLogin:
		return m, tea.Batch(wait, m.startChat())
	}
	return m, wait
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}
	return m, m.login.Update(msg, m.deps.Client, m.ctx)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.dialog.IsVisible() {
		cmd, _ := m.dialog.Update(msg)
		return m, cmd
	}
	if m.renaming != "" {
		return m.handleRenameKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Logout):
		log.Info("logout requested")
		return m, m.endChat(session.ReasonLogout)

	case key.Matches(msg, m.keys.NewChat):
		m.focus = focusInput
		return m, tea.Batch(m.ctrl.NewChat(), m.sync())

	case key.Matches(msg, m.keys.Refresh):
		return m, tea.Batch(m.ctrl.Refresh(), m.sync())

	case key.Matches(msg, m.keys.Export):
		return m, m.exportActive()

	case key.Matches(msg, m.keys.ToggleDetail):
		m.messages.ShowTimestamp = !m.messages.ShowTimestamp
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.Dismiss):
		m.toasts.DismissNewest()
		if m.focus == focusSidebar {
			m.setFocus(focusInput)
			return m, m.sync()
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleFocus):
		if m.sidebarHidden() {
			return m, nil
		}
		if m.focus == focusInput {
			m.setFocus(focusSidebar)
		} else {
			m.setFocus(focusInput)
		}
		return m, m.sync()

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}
	return m.handleInputKey(msg)
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Send) {
		cmd, err := m.ctrl.Send(m.input.Value())
		if err != nil {
			log.WithError(err).Debug("send refused")
			return m, m.sync()
		}
		if cmd == nil {
			return m, nil
		}
		m.input.Reset()
		return m, tea.Batch(cmd, m.deleteDraft(m.draftKey), m.sync())
	}

	if m.ctrl.Streaming() {
		// Input is disabled while a reply arrives; only scrolling works.
		switch msg.String() {
		case "up":
			m.viewport.LineUp(1)
		case "down":
			m.viewport.LineDown(1)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	selected := m.sidebar.SelectedKey()

	switch {
	case key.Matches(msg, m.keys.Up):
		m.sidebar.MoveUp()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.sidebar.MoveDown()
		return m, nil

	case key.Matches(msg, m.keys.Open):
		if selected == "" {
			return m, nil
		}
		cmd, err := m.ctrl.Select(selected)
		if err != nil {
			log.WithError(err).Debug("select failed")
			return m, nil
		}
		m.setFocus(focusInput)
		return m, tea.Batch(cmd, m.sync())

	case key.Matches(msg, m.keys.Rename):
		conv := m.ctrl.Find(selected)
		if conv == nil {
			return m, nil
		}
		m.renaming = selected
		m.rename.SetValue(conv.GetTitle())
		m.rename.CursorEnd()
		return m, m.rename.Focus()

	case key.Matches(msg, m.keys.Delete):
		conv := m.ctrl.Find(selected)
		if conv == nil {
			return m, nil
		}
		m.dialog.Show(
			"Delete conversation?",
			"\""+conv.GetTitle()+"\" will be removed permanently.",
			"Delete",
			deleteAction,
			selected,
			true,
		)
		return m, nil

	case msg.String() == "n":
		m.setFocus(focusInput)
		return m, tea.Batch(m.ctrl.NewChat(), m.sync())
	}
	return m, nil
}

func (m Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stopRename()
		return m, m.sync()
	case "enter":
		title := strings.TrimSpace(m.rename.Value())
		if err := m.ctrl.Rename(m.renaming, title); err != nil {
			m.toasts.Add(components.ToastWarning, "A title cannot be empty.")
			return m, m.armToasts()
		}
		m.stopRename()
		return m, m.sync()
	}
	var cmd tea.Cmd
	m.rename, cmd = m.rename.Update(msg)
	return m, cmd
}

func (m *Model) stopRename() {
	m.renaming = ""
	m.rename.Blur()
	m.rename.Reset()
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusSidebar {
		m.input.Blur()
		if active := m.ctrl.Active(); active != nil {
			m.sidebar.SelectKey(active.ID.Key())
		}
	}
}

// quit stops background work and stores the unsent input before exiting.
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.ctrl != nil {
		m.ctrl.Teardown()
	}
	return m, tea.Sequence(m.saveDraft(m.draftKey, m.input.Value()), tea.Quit)
}
