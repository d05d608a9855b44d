// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/evo-tui/internal/model"
	"github.com/jeranaias/evo-tui/internal/ui/styles"
)

// =============================================================================
// MESSAGE VIEW
// =============================================================================

// AssistantName is the label shown above assistant replies.
const AssistantName = "Evo Associate"

// TypingText follows the spinner frame while a reply is outstanding.
const TypingText = "Evo Associate is typing..."

// MessageView renders conversation messages. Finished assistant replies go
// through glamour when Markdown is enabled; a reply that is still being
// revealed is shown as wrapped plain text so half-written markup does not
// flicker.
type MessageView struct {
	Markdown      bool
	ShowTimestamp bool

	width    int
	theme    *styles.Theme
	renderer *glamour.TermRenderer
	rWidth   int

	// rendered markdown keyed by message; entries are reused while content
	// and width are unchanged.
	cache map[*model.Message]renderedMessage
}

type renderedMessage struct {
	content string
	width   int
	out     string
}

// NewMessageView creates a message renderer.
func NewMessageView(theme *styles.Theme) *MessageView {
	return &MessageView{
		Markdown:      true,
		ShowTimestamp: true,
		width:         80,
		theme:         theme,
		cache:         make(map[*model.Message]renderedMessage),
	}
}

// SetWidth updates the available width.
func (v *MessageView) SetWidth(width int) {
	v.width = width
}

// contentWidth is the width left for message text inside a bubble.
func (v *MessageView) contentWidth() int {
	return maxInt(v.width-6, 20)
}

// RenderAll renders every message separated by a blank line. typing is the
// current spinner frame shown in place of an empty placeholder.
func (v *MessageView) RenderAll(msgs []*model.Message, typing string) string {
	if len(msgs) == 0 {
		return v.theme.EmptyState.Width(v.width).Render("Send a message to start the conversation.")
	}

	parts := make([]string, 0, len(msgs))
	seen := make(map[*model.Message]bool, len(msgs))
	for _, m := range msgs {
		seen[m] = true
		parts = append(parts, v.Render(m, typing))
	}

	// Forget messages that left the conversation (rollback, switch).
	for m := range v.cache {
		if !seen[m] {
			delete(v.cache, m)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Render renders one message.
func (v *MessageView) Render(m *model.Message, typing string) string {
	if m.Role == model.RoleUser {
		return v.renderUser(m)
	}
	return v.renderAssistant(m, typing)
}

func (v *MessageView) renderUser(m *model.Message) string {
	header := v.theme.UserLabel.Render(m.Role.DisplayName())
	if ts := v.renderTimestamp(m.Timestamp); ts != "" {
		header += " " + ts
	}
	body := wordWrap(m.Content, v.contentWidth()-2)
	bubble := v.theme.UserBubble.Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, header, bubble)
}

func (v *MessageView) renderAssistant(m *model.Message, typing string) string {
	header := v.theme.AssistantLabel.Render(AssistantName)
	if ts := v.renderTimestamp(m.Timestamp); ts != "" && !m.Pending {
		header += " " + ts
	}

	var body string
	switch {
	case m.IsPlaceholder():
		body = v.theme.Typing.Render(strings.TrimSpace(typing + " " + TypingText))
	case m.Pending:
		body = wordWrap(m.Content, v.contentWidth()) + v.theme.Typing.Render(" _")
	default:
		body = v.renderMarkdown(m)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, v.theme.AssistantBubble.Render(body))
}

// renderMarkdown renders m through glamour, falling back to wrapped plain
// text when markdown is off or rendering fails.
func (v *MessageView) renderMarkdown(m *model.Message) string {
	width := v.contentWidth()
	if !v.Markdown {
		return wordWrap(m.Content, width)
	}
	if c, ok := v.cache[m]; ok && c.content == m.Content && c.width == width {
		return c.out
	}

	r, err := v.glamour(width)
	if err != nil {
		logrus.WithError(err).Debug("markdown renderer unavailable")
		return wordWrap(m.Content, width)
	}
	out, err := r.Render(m.Content)
	if err != nil {
		logrus.WithError(err).Debug("markdown render failed")
		return wordWrap(m.Content, width)
	}
	out = strings.Trim(out, "\n")
	v.cache[m] = renderedMessage{content: m.Content, width: width, out: out}
	return out
}

func (v *MessageView) glamour(width int) (*glamour.TermRenderer, error) {
	if v.renderer != nil && v.rWidth == width {
		return v.renderer, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	v.renderer = r
	v.rWidth = width
	return r, nil
}

func (v *MessageView) renderTimestamp(t time.Time) string {
	if !v.ShowTimestamp || t.IsZero() {
		return ""
	}
	return v.theme.Timestamp.Render(formatTime(t, time.Now()))
}

// formatTime shows the clock for today and the date otherwise.
func formatTime(t, now time.Time) string {
	t = t.Local()
	now = now.Local()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	if t.Year() == now.Year() {
		return t.Format("Jan 2 15:04")
	}
	return t.Format("Jan 2 2006 15:04")
}
