// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/evo-tui/internal/ui/styles"
)

// =============================================================================
// TOAST TYPES
// =============================================================================

// ToastKind selects the color, icon and lifetime of a toast.
type ToastKind int

const (
	ToastInfo ToastKind = iota
	ToastSuccess
	ToastWarning
	ToastError
	ToastLimit
)

const (
	DefaultToastDuration = 4 * time.Second
	WarningToastDuration = 6 * time.Second
	ErrorToastDuration   = 8 * time.Second
)

// maxToasts is how many toasts are kept at once; older ones are dropped.
const maxToasts = 4

// toastTickInterval drives expiry checks while toasts are visible.
const toastTickInterval = 250 * time.Millisecond

// Toast is a non-blocking notification that dismisses itself.
type Toast struct {
	ID        int
	Message   string
	Kind      ToastKind
	CreatedAt time.Time
	Duration  time.Duration
}

// Duration returns the default lifetime for kind.
func (k ToastKind) Duration() time.Duration {
	switch k {
	case ToastError, ToastLimit:
		return ErrorToastDuration
	case ToastWarning:
		return WarningToastDuration
	default:
		return DefaultToastDuration
	}
}

func (t Toast) expired(now time.Time) bool {
	return now.Sub(t.CreatedAt) >= t.Duration
}

// =============================================================================
// TOAST MANAGER
// =============================================================================

// ToastManager holds the visible toasts, newest first.
type ToastManager struct {
	mu     sync.Mutex
	toasts []Toast
	nextID int

	Now func() time.Time
}

// NewToastManager creates an empty manager.
func NewToastManager() *ToastManager {
	return &ToastManager{nextID: 1, Now: time.Now}
}

// Add shows a toast and returns its id. Repeating the message of the newest
// toast restarts its timer instead of stacking a copy.
func (m *ToastManager) Add(kind ToastKind, message string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	if len(m.toasts) > 0 && m.toasts[0].Message == message && m.toasts[0].Kind == kind {
		m.toasts[0].CreatedAt = now
		return m.toasts[0].ID
	}

	t := Toast{
		ID:        m.nextID,
		Message:   message,
		Kind:      kind,
		CreatedAt: now,
		Duration:  kind.Duration(),
	}
	m.nextID++

	m.toasts = append([]Toast{t}, m.toasts...)
	if len(m.toasts) > maxToasts {
		m.toasts = m.toasts[:maxToasts]
	}
	return t.ID
}

// Dismiss removes a toast by id.
func (m *ToastManager) Dismiss(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, t := range m.toasts {
		if t.ID == id {
			m.toasts = append(m.toasts[:i:i], m.toasts[i+1:]...)
			return
		}
	}
}

// DismissNewest removes the most recent toast.
func (m *ToastManager) DismissNewest() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.toasts) > 0 {
		m.toasts = m.toasts[1:]
	}
}

// Prune drops expired toasts and reports whether any are left.
func (m *ToastManager) Prune() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.Now()
	active := m.toasts[:0:0]
	for _, t := range m.toasts {
		if !t.expired(now) {
			active = append(active, t)
		}
	}
	m.toasts = active
	return len(m.toasts) > 0
}

// Toasts returns a copy of the visible toasts, newest first.
func (m *ToastManager) Toasts() []Toast {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Toast, len(m.toasts))
	copy(out, m.toasts)
	return out
}

// Len returns the number of visible toasts.
func (m *ToastManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.toasts)
}

// =============================================================================
// TOAST MESSAGES
// =============================================================================

// ToastTickMsg asks the owner to prune expired toasts.
type ToastTickMsg struct {
	Time time.Time
}

// ToastTickCmd schedules the next expiry check.
func ToastTickCmd() tea.Cmd {
	return tea.Tick(toastTickInterval, func(t time.Time) tea.Msg {
		return ToastTickMsg{Time: t}
	})
}

// =============================================================================
// TOAST RENDERING
// =============================================================================

// RenderToast renders a single toast no wider than width.
func RenderToast(theme *styles.Theme, t Toast, width int) string {
	maxWidth := minInt(56, width-4)
	if maxWidth < 24 {
		maxWidth = 24
	}

	color, icon := toastLook(t.Kind)
	iconStyle := lipgloss.NewStyle().Foreground(color).Bold(true)

	// Border and padding take four cells.
	body := wordWrap(t.Message, maxWidth-4-lipgloss.Width(icon)-1)
	body = strings.ReplaceAll(body, "\n", "\n"+strings.Repeat(" ", lipgloss.Width(icon)+1))

	return theme.Toast.
		BorderForeground(color).
		Render(iconStyle.Render(icon) + " " + body)
}

// RenderToasts stacks the visible toasts, newest on top, right aligned
// within width.
func RenderToasts(theme *styles.Theme, toasts []Toast, width int) string {
	if len(toasts) == 0 {
		return ""
	}
	rendered := make([]string, 0, len(toasts))
	for _, t := range toasts {
		rendered = append(rendered, RenderToast(theme, t, width))
	}
	stack := lipgloss.JoinVertical(lipgloss.Right, rendered...)
	return lipgloss.PlaceHorizontal(width, lipgloss.Right, stack)
}

func toastLook(kind ToastKind) (lipgloss.AdaptiveColor, string) {
	switch kind {
	case ToastError:
		return styles.Rose, styles.StatusIndicators.Error
	case ToastWarning:
		return styles.Amber, styles.StatusIndicators.Warning
	case ToastSuccess:
		return styles.Emerald, styles.StatusIndicators.Success
	case ToastLimit:
		return styles.Rose, styles.StatusIndicators.Limit
	default:
		return styles.Cyan, styles.StatusIndicators.Info
	}
}
