// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// =============================================================================
// TENANT ADMIN
// =============================================================================

// TenantUsers lists the users of the caller's tenant. Requires TENANT_ADMIN.
func (c *Client) TenantUsers(ctx context.Context) ([]TenantUser, error) {
	var out []TenantUser
	if err := c.get(ctx, "/api/admin/tenant/users", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InviteUser invites a user into the caller's tenant.
func (c *Client) InviteUser(ctx context.Context, req InviteRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return errors.Errorf("invalid email %q", req.Email)
	}
	if req.Role == "" {
		req.Role = RoleEmployee
	}
	req.Role = strings.ToUpper(req.Role)
	if req.Role != RoleEmployee && req.Role != RoleTenantAdmin {
		return errors.Errorf("invalid role %q", req.Role)
	}
	return c.post(ctx, "/api/admin/tenant/users/invite", req, nil)
}

// TenantMetrics returns plan and usage figures for the caller's tenant.
func (c *Client) TenantMetrics(ctx context.Context) (*TenantMetrics, error) {
	var out TenantMetrics
	if err := c.get(ctx, "/api/admin/tenant/usage/metrics", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// =============================================================================
// SUPER ADMIN
// =============================================================================

// Tenants lists every tenant on the platform. Requires SUPER_ADMIN.
func (c *Client) Tenants(ctx context.Context) ([]Tenant, error) {
	var out []Tenant
	if err := c.get(ctx, "/api/admin/super/tenants", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateTenant creates a tenant.
func (c *Client) CreateTenant(ctx context.Context, req CreateTenantRequest) (*Tenant, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Domain = strings.TrimSpace(strings.ToLower(req.Domain))
	if req.Name == "" || req.Domain == "" {
		return nil, errors.New("tenant name and domain are required")
	}
	var out Tenant
	if err := c.post(ctx, "/api/admin/super/tenants", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PlatformMetrics returns platform-wide totals.
func (c *Client) PlatformMetrics(ctx context.Context) (*PlatformMetrics, error) {
	var out PlatformMetrics
	if err := c.get(ctx, "/api/admin/super/metrics", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
