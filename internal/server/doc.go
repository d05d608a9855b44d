// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides an in-memory sandbox of the assistant backend.
//
// The sandbox speaks the same HTTP/JSON contract as the hosted service so the
// client can be developed and demonstrated offline (`evo sandbox`) and so the
// api and conversation packages can be tested end to end over httptest.
//
// # Endpoints
//
//   - POST   /api/auth/login
//   - GET    /api/auth/me
//   - GET    /chat/conversations
//   - POST   /chat/conversations
//   - GET    /chat/conversations/{id}
//   - DELETE /chat/conversations/{id}
//   - POST   /chat/ask
//   - GET    /chat/usage
//   - GET    /api/admin/tenant/users
//   - POST   /api/admin/tenant/users/invite
//   - GET    /api/admin/tenant/usage/metrics
//   - GET    /api/admin/super/tenants
//   - POST   /api/admin/super/tenants
//   - GET    /api/admin/super/metrics
//
// Tokens are HS256 JWTs signed with a per-process secret. Replies are produced
// by a pluggable Responder (an echo by default). Faults can be queued per
// route with FailNext to exercise client error handling.
//
// # Usage
//
//	srv := server.NewServer(0).WithDemoData()
//	ts := httptest.NewServer(srv.Handler())
//	defer ts.Close()
package server
