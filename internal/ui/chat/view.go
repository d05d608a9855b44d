// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/evo-tui/internal/config"
	"github.com/jeranaias/evo-tui/internal/ui/components"
)

// minSidebarScreen is the narrowest screen that still shows the sidebar.
const minSidebarScreen = 60

// =============================================================================
// LAYOUT
// =============================================================================

func (m *Model) sidebarHidden() bool {
	return m.width > 0 && m.width < minSidebarScreen
}

func (m *Model) sidebarWidth() int {
	if m.sidebarHidden() {
		return 0
	}
	if w := m.deps.Config.UI.SidebarWidth; w > 0 {
		return w
	}
	return config.DefaultSidebarWidth
}

// layout distributes the screen: header, optional banner, sidebar and
// messages side by side, input box and status bar.
func (m *Model) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	m.header.SetWidth(m.width)
	m.banner.SetWidth(m.width)
	m.status.SetWidth(m.width)
	m.dialog.SetSize(m.width, m.height)

	bannerH := 0
	if m.banner.Visible() {
		bannerH = lipgloss.Height(m.banner.View())
	}
	inputH := m.input.Height() + 2
	bodyH := m.height - 1 - bannerH - inputH - 1
	if bodyH < 3 {
		bodyH = 3
	}

	sw := m.sidebarWidth()
	m.sidebar.SetSize(sw, bodyH)

	vw := m.width - sw - 1
	if m.deps.Config.UI.WordWrap > 0 && m.deps.Config.UI.WordWrap < vw {
		vw = m.deps.Config.UI.WordWrap
	}
	m.viewport.Width = vw
	m.viewport.Height = bodyH
	m.messages.SetWidth(vw)

	// Border and padding of the input box take four cells.
	m.input.SetWidth(m.width - 4)
	m.rename.Width = m.width - 12
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.state == StateLogin {
		return m.login.View(m.width, m.height)
	}
	if m.width == 0 {
		return "Loading..."
	}
	if m.dialog.IsVisible() {
		return m.dialog.View()
	}

	var sections []string
	sections = append(sections, m.header.View())
	if m.banner.Visible() {
		sections = append(sections, m.banner.View())
	}
	sections = append(sections, m.overlayToasts(m.renderBody()))
	sections = append(sections, m.renderInput())
	sections = append(sections, m.status.View())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderBody() string {
	messages := m.viewport.View()
	if m.ctrl != nil && m.ctrl.Active() == nil && !m.ctrl.Loading() {
		messages = lipgloss.Place(m.viewport.Width, m.viewport.Height, lipgloss.Center, lipgloss.Center,
			m.theme.EmptyState.Render("Start a conversation with "+components.AssistantName+".\nType a message and press enter."))
	}
	if m.sidebarHidden() {
		return messages
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), " ", messages)
}

func (m Model) renderInput() string {
	style := m.theme.InputContainer
	if m.ctrl != nil && m.ctrl.Streaming() {
		style = m.theme.InputContainerDisabled
	}
	content := m.input.View()
	if m.renaming != "" {
		content = m.rename.View() + "\n" + m.theme.MutedText.Render("enter save  esc cancel")
		style = style.Height(m.input.Height())
	}
	return style.Width(m.width - 2).Render(content)
}

// overlayToasts draws the toast stack over the bottom lines of body.
func (m Model) overlayToasts(body string) string {
	stack := components.RenderToasts(m.theme, m.toasts.Toasts(), m.width)
	if stack == "" {
		return body
	}
	lines := strings.Split(body, "\n")
	toast := strings.Split(stack, "\n")
	if len(toast) > len(lines) {
		toast = toast[len(toast)-len(lines):]
	}
	copy(lines[len(lines)-len(toast):], toast)
	return strings.Join(lines, "\n")
}
