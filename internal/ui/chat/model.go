// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strconv"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/jeranaias/evo-tui/internal/api"
	"github.com/jeranaias/evo-tui/internal/config"
	"github.com/jeranaias/evo-tui/internal/conversation"
	"github.com/jeranaias/evo-tui/internal/model"
	"github.com/jeranaias/evo-tui/internal/session"
	"github.com/jeranaias/evo-tui/internal/storage"
	"github.com/jeranaias/evo-tui/internal/ui/components"
	"github.com/jeranaias/evo-tui/internal/ui/styles"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State is the screen being shown.
type State int

const (
	StateLogin State = iota
	StateChat
)

type focus int

const (
	focusInput focus = iota
	focusSidebar
)

// Deps are the collaborators of the UI. Client and Config are required.
type Deps struct {
	Client  *api.Client
	Config  *config.Config
	Drafts  *storage.DraftStore // nil disables drafts
	Watcher *session.Watcher    // nil disables following other terminals
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model of the evo terminal UI.
type Model struct {
	state State
	focus focus
	deps  Deps
	theme *styles.Theme
	keys  KeyMap

	width  int
	height int

	// ctrl is nil on the login screen.
	ctrl *conversation.Controller

	// UI components
	header   *components.Header
	sidebar  *components.Sidebar
	messages *components.MessageView
	banner   *components.UsageBanner
	status   *components.StatusBar
	toasts   *components.ToastManager
	dialog   *components.ConfirmDialog
	login    *LoginForm

	viewport viewport.Model
	input    textarea.Model
	spinner  spinner.Model

	// rename is active while renaming holds a conversation key.
	rename   textinput.Model
	renaming string

	// draftKey is the drafts database key the input belongs to and
	// draftConv the conversation it was derived from.
	draftKey  string
	draftConv *model.Conversation

	// lastActive detects conversation switches for scrolling.
	lastActive *model.Conversation

	spinning     bool
	toastTicking bool
	quitting     bool
}

// New creates the UI model. It starts on the chat screen when the client's
// session already holds a token.
func New(deps Deps) Model {
	theme := styles.NewTheme()

	input := textarea.New()
	input.Placeholder = "Ask Evo Associate..."
	input.ShowLineNumbers = false
	input.Prompt = ""
	input.CharLimit = 8000
	input.SetHeight(3)
	input.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	input.Focus()

	rename := textinput.New()
	rename.Prompt = "Rename: "
	rename.CharLimit = 120

	m := Model{
		deps:     deps,
		theme:    theme,
		keys:     DefaultKeyMap(),
		header:   components.NewHeader(theme),
		sidebar:  components.NewSidebar(theme),
		messages: components.NewMessageView(theme),
		banner:   components.NewUsageBanner(theme),
		status:   components.NewStatusBar(theme),
		toasts:   components.NewToastManager(),
		dialog:   components.NewConfirmDialog(theme),
		login:    NewLoginForm(theme),
		viewport: viewport.New(80, 20),
		input:    input,
		spinner:  spinner.New(spinner.WithSpinner(styles.DotsSpinner.Bubbles()), spinner.WithStyle(theme.Typing)),
		rename:   rename,
		draftKey: storage.NewChatKey,
	}
	m.messages.Markdown = deps.Config.Chat.Markdown

	if sess := deps.Client.Session(); sess != nil && sess.Active() && !sess.Expired() {
		m.state = StateChat
		m.ctrl = m.newController()
	} else {
		m.state = StateLogin
		if sess != nil && sess.Expired() {
			m.login.Notice = session.ReasonExpired.Message()
			sess.End(session.ReasonExpired)
		}
	}
	return m
}

func (m *Model) newController() *conversation.Controller {
	cfg := m.deps.Config
	return conversation.New(m.deps.Client, conversation.Options{
		RevealDelay:    cfg.Chat.RevealDelay.Duration,
		UsageRefresh:   cfg.Chat.UsageRefresh.Duration,
		RecencyWindow:  cfg.Chat.RecencyWindow.Duration,
		RequestTimeout: cfg.API.Timeout.Duration,
	})
}

// Init starts the controller (or the login form) and the session watcher.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.waitForSessionChange()}
	if m.ctrl != nil {
		cmds = append(cmds, m.ctrl.Init(), m.loadDraft(m.draftKey))
	} else {
		cmds = append(cmds, textinput.Blink)
	}
	return tea.Batch(cmds...)
}

// State returns the screen being shown.
func (m Model) State() State {
	return m.state
}

// Controller returns the conversation controller, nil on the login screen.
func (m Model) Controller() *conversation.Controller {
	return m.ctrl
}

// ctx is the context factory for calls made by the UI itself.
func (m Model) ctx() (context.Context, context.CancelFunc) {
	if d := m.deps.Config.API.Timeout.Duration; d > 0 {
		return context.WithTimeout(context.Background(), d)
	}
	return context.WithTimeout(context.Background(), config.DefaultTimeout)
}

// =============================================================================
// SESSION TRANSITIONS
// =============================================================================

// startChat switches to the chat screen with a fresh controller.
func (m *Model) startChat() tea.Cmd {
	if m.ctrl != nil {
		m.ctrl.Teardown()
	}
	m.state = StateChat
	m.focus = focusInput
	m.ctrl = m.newController()
	m.login.Reset()
	m.login.Notice = ""
	m.draftKey = storage.NewChatKey
	m.draftConv = nil
	m.lastActive = nil
	m.input.Reset()
	m.layout()
	log.Info("chat started")
	return tea.Batch(m.ctrl.Init(), m.input.Focus(), m.loadDraft(m.draftKey))
}

// endChat tears the controller down and shows the login screen.
func (m *Model) endChat(reason session.Reason) tea.Cmd {
	save := m.saveDraft(m.draftKey, m.input.Value())
	if m.ctrl != nil {
		m.ctrl.Teardown()
		m.ctrl = nil
	}
	m.state = StateLogin
	m.dialog.Hide()
	m.renaming = ""
	m.spinning = false
	m.login.Reset()
	m.login.Notice = reason.Message()
	if sess := m.deps.Client.Session(); sess != nil {
		email := sess.Claims().Email
		sess.End(reason)
		if email != "" {
			m.login.SetEmail(email)
		}
	}
	m.input.Reset()
	log.WithField("reason", reason).Info("chat ended")
	return tea.Batch(save, textinput.Blink)
}

// =============================================================================
// SESSION WATCHER
// =============================================================================

// sessionChangeMsg reports a login or logout in another terminal.
type sessionChangeMsg struct {
	Change session.Change
	Closed bool
}

func (m Model) waitForSessionChange() tea.Cmd {
	if m.deps.Watcher == nil {
		return nil
	}
	changes := m.deps.Watcher.Changes()
	return func() tea.Msg {
		c, ok := <-changes
		return sessionChangeMsg{Change: c, Closed: !ok}
	}
}

// =============================================================================
// SYNC
// =============================================================================

// sync copies controller state into the widgets after an update and returns
// the follow-up commands the new state needs.
func (m *Model) sync() tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	var cmds []tea.Cmd

	for _, n := range m.ctrl.TakeNotices() {
		m.toasts.Add(toastKind(n.Kind), n.Text)
	}
	cmds = append(cmds, m.armToasts())

	cmds = append(cmds, m.syncDraft())

	if draft, ok := m.ctrl.TakeDraft(); ok {
		m.input.SetValue(draft)
		m.input.CursorEnd()
		cmds = append(cmds, m.saveDraft(m.draftKey, draft))
	}

	// A 401 ends the chat; the rolled-back text above is kept as a draft.
	if m.ctrl.SessionEnded() {
		return tea.Batch(append(cmds, m.endChat(session.ReasonUnauthorized))...)
	}

	if m.ctrl.Waiting() && !m.spinning {
		m.spinning = true
		cmds = append(cmds, m.spinner.Tick)
	}

	if m.ctrl.Streaming() {
		m.input.Blur()
	} else if m.focus == focusInput && !m.input.Focused() && m.renaming == "" {
		cmds = append(cmds, m.input.Focus())
	}

	m.header.SetIdentity(m.ctrl.Identity())
	m.banner.SetUsage(m.ctrl.Usage())
	m.syncSidebar()
	m.syncStatus()
	m.layout()
	m.refreshViewport()
	return tea.Batch(cmds...)
}

func (m *Model) syncSidebar() {
	convs := m.ctrl.Conversations()
	active := m.ctrl.Active()
	items := make([]components.SidebarItem, 0, len(convs))
	for _, c := range convs {
		items = append(items, components.SidebarItem{
			Key:       c.ID.Key(),
			Title:     c.GetTitle(),
			UpdatedAt: c.UpdatedAt,
			Active:    c == active,
			Local:     !c.ID.IsPersisted(),
		})
	}
	m.sidebar.SetItems(items)
	if active != nil && active != m.lastActive && m.focus == focusInput {
		m.sidebar.SelectKey(active.ID.Key())
	}
	m.sidebar.Focused = m.focus == focusSidebar
}

func (m *Model) syncStatus() {
	switch {
	case m.ctrl.Waiting():
		m.status.Status = components.StatusWaiting
	case m.ctrl.Streaming():
		m.status.Status = components.StatusRevealing
	case m.ctrl.Loading():
		m.status.Status = components.StatusLoading
	default:
		m.status.Status = components.StatusReady
	}

	m.status.Detail = ""
	if u := m.ctrl.Usage(); u != nil {
		if left := u.Remaining(); left >= 0 {
			m.status.Detail = pluralMessages(left) + " left"
		}
	}

	if m.focus == focusSidebar {
		m.status.Shortcuts = shortcuts(m.keys.SidebarHelp())
	} else {
		m.status.Shortcuts = shortcuts(m.keys.InputHelp())
	}
}

// refreshViewport re-renders the active conversation. The view follows new
// content when it was already at the bottom, while a reply is arriving and
// after switching conversations.
func (m *Model) refreshViewport() {
	if m.ctrl == nil {
		return
	}
	active := m.ctrl.Active()
	var msgs []*model.Message
	if active != nil {
		msgs = active.Messages
	}

	atBottom := m.viewport.AtBottom()
	m.viewport.SetContent(m.messages.RenderAll(msgs, m.spinner.View()))
	if atBottom || m.ctrl.Streaming() || active != m.lastActive {
		m.viewport.GotoBottom()
	}
	m.lastActive = active
}

// armToasts starts the expiry tick when toasts are showing.
func (m *Model) armToasts() tea.Cmd {
	if m.toastTicking || m.toasts.Len() == 0 {
		return nil
	}
	m.toastTicking = true
	return components.ToastTickCmd()
}

func toastKind(k conversation.NoticeKind) components.ToastKind {
	switch k {
	case conversation.NoticeSuccess:
		return components.ToastSuccess
	case conversation.NoticeWarning:
		return components.ToastWarning
	case conversation.NoticeError:
		return components.ToastError
	case conversation.NoticeLimit:
		return components.ToastLimit
	default:
		return components.ToastInfo
	}
}

func pluralMessages(n int) string {
	if n == 1 {
		return "1 message"
	}
	return formatCount(n) + " messages"
}

// formatCount writes n with thousand separators.
func formatCount(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return s
	}
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	return s
}
