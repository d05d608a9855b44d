// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// LENIENT SCALARS
// =============================================================================

// FlexID is an identifier the backend may send as a JSON number or string.
type FlexID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = FlexID(n.String())
	return nil
}

// String returns the id as a string.
func (id FlexID) String() string {
	return string(id)
}

// wireID encodes a conversation id the way the backend expects it: numeric
// ids travel as numbers, anything else as a string, and "" as null.
func wireID(id string) any {
	if id == "" {
		return nil
	}
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

// timeLayouts are tried in order. The backend serialises local date-times
// without a zone; those are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Time is a timestamp in any of the formats the backend emits.
type Time struct {
	time.Time
}

// UnmarshalJSON accepts RFC 3339, zone-less ISO date-times, epoch
// milliseconds and null.
func (t *Time) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || len(data) == 0 {
		t.Time = time.Time{}
		return nil
	}
	if data[0] != '"' {
		ms, err := strconv.ParseInt(string(data), 10, 64)
		if err != nil {
			return fmt.Errorf("timestamp %s: %w", data, err)
		}
		t.Time = time.UnixMilli(ms).UTC()
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp %q: unrecognised format", s)
}

// =============================================================================
// CHAT TYPES
// =============================================================================

// ConversationSummary is an entry of GET /chat/conversations.
type ConversationSummary struct {
	ID        FlexID `json:"id"`
	Title     string `json:"title"`
	CreatedAt Time   `json:"createdAt"`
	UpdatedAt Time   `json:"updatedAt"`
}

// Message is a message of GET /chat/conversations/{id}.
type Message struct {
	ID        FlexID `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt Time   `json:"createdAt"`
}

// ConversationDetail is the body of GET /chat/conversations/{id}.
type ConversationDetail struct {
	ID        FlexID    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt Time      `json:"createdAt"`
	UpdatedAt Time      `json:"updatedAt"`
}

// CreatedConversation is the body of POST /chat/conversations.
type CreatedConversation struct {
	ID        FlexID `json:"id"`
	Title     string `json:"title"`
	CreatedAt Time   `json:"createdAt"`
}

// AskRequest is the body of POST /chat/ask.
type AskRequest struct {
	Message        string `json:"message"`
	ConversationID any    `json:"conversationId"`
}

// AskResponse is the body returned by POST /chat/ask.
type AskResponse struct {
	Reply          string `json:"reply"`
	ConversationID FlexID `json:"conversationId"`
}

// =============================================================================
// USAGE
// =============================================================================

// UsageLevel classifies how close the user is to the monthly limit.
type UsageLevel int

const (
	UsageNormal UsageLevel = iota
	UsageApproaching
	UsageCritical
	UsageReached
)

// Usage is the body of GET /chat/usage.
type Usage struct {
	MessagesUsed  int     `json:"messagesUsed"`
	MessagesLimit int     `json:"messagesLimit"`
	PercentUsed   float64 `json:"percentUsed"`
}

// LimitReached reports whether no further messages are allowed this month.
func (u Usage) LimitReached() bool {
	return u.PercentUsed >= 100 || (u.MessagesLimit > 0 && u.MessagesUsed >= u.MessagesLimit)
}

// Level returns the usage level for banners.
func (u Usage) Level() UsageLevel {
	switch {
	case u.LimitReached():
		return UsageReached
	case u.PercentUsed >= 90:
		return UsageCritical
	case u.PercentUsed >= 75:
		return UsageApproaching
	default:
		return UsageNormal
	}
}

// Remaining returns the messages left this month, or -1 when unlimited.
func (u Usage) Remaining() int {
	if u.MessagesLimit <= 0 {
		return -1
	}
	if left := u.MessagesLimit - u.MessagesUsed; left > 0 {
		return left
	}
	return 0
}

// =============================================================================
// AUTH TYPES
// =============================================================================

// Backend role names.
const (
	RoleEmployee    = "EMPLOYEE"
	RoleTenantAdmin = "TENANT_ADMIN"
	RoleSuperAdmin  = "SUPER_ADMIN"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body returned by POST /api/auth/login.
type LoginResponse struct {
	Token string `json:"token"`
}

// Me is the body of GET /api/auth/me.
type Me struct {
	Role       string `json:"role"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	TenantName string `json:"tenantName,omitempty"`
}

// DisplayName returns the full name, the local part of the email, or "User".
func (m Me) DisplayName() string {
	if m.FullName != "" {
		return m.FullName
	}
	if local, _, ok := strings.Cut(m.Email, "@"); ok && local != "" {
		return local
	}
	if m.Email != "" {
		return m.Email
	}
	return "User"
}

// IsTenantAdmin reports whether the user administers a tenant.
func (m Me) IsTenantAdmin() bool {
	return m.Role == RoleTenantAdmin
}

// IsSuperAdmin reports whether the user administers the platform.
func (m Me) IsSuperAdmin() bool {
	return m.Role == RoleSuperAdmin
}

// =============================================================================
// ADMIN TYPES
// =============================================================================

// TenantUser is an entry of GET /api/admin/tenant/users.
type TenantUser struct {
	ID           FlexID `json:"id"`
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	MessagesUsed int    `json:"messagesUsed"`
}

// InviteRequest is the body of POST /api/admin/tenant/users/invite.
type InviteRequest struct {
	Email    string `json:"email"`
	Role     string `json:"role"`
	FullName string `json:"fullName"`
}

// TenantMetrics is the body of GET /api/admin/tenant/usage/metrics.
type TenantMetrics struct {
	SubscriptionPlan    string `json:"subscriptionPlan"`
	CurrentUsers        int    `json:"currentUsers"`
	MessagesThisMonth   int    `json:"messagesThisMonth"`
	MaxMessagesPerMonth int    `json:"maxMessagesPerMonth"`
}

// Tenant is an entry of GET /api/admin/super/tenants.
type Tenant struct {
	ID                  FlexID `json:"id"`
	Name                string `json:"name"`
	Domain              string `json:"domain"`
	IsActive            bool   `json:"isActive"`
	SubscriptionPlan    string `json:"subscriptionPlan"`
	MaxMessagesPerMonth int    `json:"maxMessagesPerMonth"`
	MessagesUsed        int    `json:"messagesUsed"`
}

// Status returns "trial", "active" or "inactive".
func (t Tenant) Status() string {
	if !t.IsActive {
		return "inactive"
	}
	if t.SubscriptionPlan == "TRIAL" {
		return "trial"
	}
	return "active"
}

// CreateTenantRequest is the body of POST /api/admin/super/tenants.
type CreateTenantRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

// PlatformMetrics is the body of GET /api/admin/super/metrics.
type PlatformMetrics struct {
	TotalTenants  int `json:"totalTenants"`
	ActiveTenants int `json:"activeTenants"`
	TotalUsers    int `json:"totalUsers"`
}
