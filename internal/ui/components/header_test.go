// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/evo-tui/internal/api"
	"github.com/jeranaias/evo-tui/internal/ui/styles"
)

func TestNewHeader(t *testing.T) {
	h := NewHeader(styles.NewTheme())
	if h.Title != "evo" {
		t.Errorf("Title = %q, want %q", h.Title, "evo")
	}
	if h.Width != 80 {
		t.Errorf("Width = %d, want 80", h.Width)
	}
}

func TestHeaderIdentity(t *testing.T) {
	h := NewHeader(styles.NewTheme())
	h.SetIdentity(&api.Me{FullName: "Ana Lima", Role: api.RoleTenantAdmin, TenantName: "Acme"})

	view := h.View()
	for _, want := range []string{"evo", "Ana Lima", "[admin]", "Acme"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}

	h.SetIdentity(nil)
	if h.User != "" || h.Role != "" || h.Tenant != "" {
		t.Errorf("SetIdentity(nil) left %q %q %q", h.User, h.Role, h.Tenant)
	}
}

func TestHeaderWidth(t *testing.T) {
	h := NewHeader(styles.NewTheme())
	h.SetIdentity(&api.Me{Email: "someone.with.a.long.name@acme.test", Role: api.RoleSuperAdmin, TenantName: "Acme Corporation"})

	for _, width := range []int{30, 60, 120} {
		h.SetWidth(width)
		if got := lipgloss.Width(h.View()); got != width {
			t.Errorf("width %d: rendered %d cells", width, got)
		}
	}
}

func TestRoleLabel(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{api.RoleEmployee, "employee"},
		{api.RoleTenantAdmin, "admin"},
		{api.RoleSuperAdmin, "super admin"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := roleLabel(tc.role); got != tc.want {
			t.Errorf("roleLabel(%q) = %q, want %q", tc.role, got, tc.want)
		}
	}
}
