// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"

	"github.com/jeranaias/evo-tui/internal/api"
	"github.com/jeranaias/evo-tui/internal/ui/styles"
)

// =============================================================================
// LOGIN FORM
// =============================================================================

// loginDoneMsg carries the result of a login attempt.
type loginDoneMsg struct {
	Err error
}

// LoginForm is the email/password screen shown without a session.
type LoginForm struct {
	email    textinput.Model
	password textinput.Model
	focus    int // 0 = email, 1 = password

	Submitting bool
	Err        string // shown under the form
	Notice     string // e.g. why the previous session ended

	theme *styles.Theme
}

// NewLoginForm creates the form with the email field focused.
func NewLoginForm(theme *styles.Theme) *LoginForm {
	email := textinput.New()
	email.Prompt = "Email    "
	email.Placeholder = "you@company.com"
	email.CharLimit = 254
	email.Width = 32
	email.Focus()

	password := textinput.New()
	password.Prompt = "Password "
	password.Placeholder = "********"
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '*'
	password.CharLimit = 128
	password.Width = 32

	return &LoginForm{
		email:    email,
		password: password,
		theme:    theme,
	}
}

// SetEmail prefills the email field.
func (f *LoginForm) SetEmail(email string) {
	f.email.SetValue(email)
	if email != "" {
		f.setFocus(1)
	}
}

// Reset clears the password and any error, keeping the email.
func (f *LoginForm) Reset() {
	f.password.Reset()
	f.Err = ""
	f.Submitting = false
	if f.email.Value() == "" {
		f.setFocus(0)
	} else {
		f.setFocus(1)
	}
}

func (f *LoginForm) setFocus(i int) tea.Cmd {
	f.focus = i
	if i == 0 {
		f.password.Blur()
		return f.email.Focus()
	}
	f.email.Blur()
	return f.password.Focus()
}

// Update handles keys for the form. Submission is returned as a command
// running login against client.
func (f *LoginForm) Update(msg tea.Msg, client *api.Client, ctx func() (context.Context, context.CancelFunc)) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		if f.focus == 0 {
			f.email, cmd = f.email.Update(msg)
		} else {
			f.password, cmd = f.password.Update(msg)
		}
		return cmd
	}
	if f.Submitting {
		return nil
	}

	switch key.String() {
	case "tab", "down", "shift+tab", "up":
		return f.setFocus(1 - f.focus)
	case "enter":
		if f.focus == 0 && f.password.Value() == "" {
			return f.setFocus(1)
		}
		return f.submit(client, ctx)
	}

	var cmd tea.Cmd
	if f.focus == 0 {
		f.email, cmd = f.email.Update(msg)
	} else {
		f.password, cmd = f.password.Update(msg)
	}
	return cmd
}

func (f *LoginForm) submit(client *api.Client, ctx func() (context.Context, context.CancelFunc)) tea.Cmd {
	email := strings.TrimSpace(f.email.Value())
	password := f.password.Value()
	if email == "" || password == "" {
		f.Err = "Email and password are required."
		return nil
	}
	f.Err = ""
	f.Submitting = true
	return func() tea.Msg {
		c, cancel := ctx()
		defer cancel()
		return loginDoneMsg{Err: client.Login(c, email, password)}
	}
}

// Failed records a login error for display.
func (f *LoginForm) Failed(err error) {
	f.Submitting = false
	f.password.Reset()
	f.setFocus(1)
	switch {
	case errors.Is(err, api.ErrInvalidCredentials):
		f.Err = "Invalid email or password."
	default:
		log.WithError(err).Warn("login failed")
		f.Err = api.UserMessage(err, "Login failed. Check your connection and try again.")
	}
}

// View renders the form centered in width x height.
func (f *LoginForm) View(width, height int) string {
	var b strings.Builder
	b.WriteString(f.theme.LoginTitle.Render("Sign in to Evo Associate"))
	b.WriteString("\n")
	if f.Notice != "" {
		b.WriteString(f.theme.MutedText.Render(f.Notice))
		b.WriteString("\n\n")
	}
	b.WriteString(f.email.View())
	b.WriteString("\n")
	b.WriteString(f.password.View())
	b.WriteString("\n\n")

	switch {
	case f.Submitting:
		b.WriteString(f.theme.MutedText.Render("Signing in..."))
	case f.Err != "":
		b.WriteString(f.theme.ErrorText.Render(styles.StatusIndicators.Error + " " + f.Err))
	default:
		b.WriteString(f.theme.MutedText.Render("enter sign in  tab switch field  ctrl+c quit"))
	}

	box := f.theme.LoginBox.Render(b.String())
	if width > 0 && height > 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}
