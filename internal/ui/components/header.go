// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/evo-tui/internal/api"
	"github.com/jeranaias/evo-tui/internal/ui/styles"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the single-line title bar: brand on the left, the signed-in user
// on the right.
type Header struct {
	Title  string
	User   string
	Role   string
	Tenant string
	Width  int
	theme  *styles.Theme
}

// NewHeader creates a header with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "evo",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetIdentity copies the display fields of the signed-in user.
func (h *Header) SetIdentity(me *api.Me) {
	if me == nil {
		h.User, h.Role, h.Tenant = "", "", ""
		return
	}
	h.User = me.DisplayName()
	h.Role = roleLabel(me.Role)
	h.Tenant = me.TenantName
}

// View renders the header.
func (h *Header) View() string {
	width := maxInt(h.Width, 20)

	brand := h.theme.HeaderBrand.Render(h.Title) +
		h.theme.MutedText.Render(" · Evo Associate")

	var right []string
	if h.User != "" {
		right = append(right, h.theme.HeaderUser.Render(h.User))
	}
	if h.Role != "" {
		right = append(right, h.theme.MutedText.Render("["+h.Role+"]"))
	}
	if h.Tenant != "" {
		right = append(right, h.theme.MutedText.Render(h.Tenant))
	}
	user := strings.Join(right, " ")

	gap := width - lipgloss.Width(brand) - lipgloss.Width(user) - 2
	if gap < 1 {
		// Narrow terminal: drop everything but the user name.
		user = h.theme.HeaderUser.Render(truncate(h.User, maxInt(width-lipgloss.Width(brand)-3, 0)))
		gap = maxInt(width-lipgloss.Width(brand)-lipgloss.Width(user)-2, 1)
	}

	line := brand + strings.Repeat(" ", gap) + user
	return h.theme.Header.Width(width).Render(line)
}

// roleLabel turns a backend role into a short badge.
func roleLabel(role string) string {
	switch role {
	case api.RoleTenantAdmin:
		return "admin"
	case api.RoleSuperAdmin:
		return "super admin"
	case "":
		return ""
	default:
		return strings.ToLower(role)
	}
}
