// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidCredentials is returned by Login when the backend rejects the
// email/password pair.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Login exchanges credentials for a token and begins the client's session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return errors.New("email and password are required")
	}
	var out LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", LoginRequest{Email: email, Password: password}, &out, false)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest) {
			return ErrInvalidCredentials
		}
		return err
	}
	if out.Token == "" {
		return errors.New("backend returned no token")
	}
	if c.sess == nil {
		return errors.New("client has no session")
	}
	return errors.Wrap(c.sess.Begin(out.Token), "save session")
}

// Me returns the identity of the logged-in user.
func (c *Client) Me(ctx context.Context) (*Me, error) {
	var out Me
	if err := c.get(ctx, "/api/auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
