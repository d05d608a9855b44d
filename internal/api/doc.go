// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP/JSON client for the assistant backend.
//
// The backend owns authentication, conversation storage, usage metering and
// billing; this package only shapes requests and maps responses and errors.
// Every authenticated call takes its bearer token from the injected
// session.Session, and any 401 ends that session.
//
// # Error mapping
//
//   - 401: ErrUnauthorized (the session is ended before returning)
//   - 403: ErrForbidden
//   - 404: ErrNotFound
//   - 429: ErrUsageLimit
//   - other non-2xx: *APIError carrying the status and the backend message
//
// All of the above are *APIError values; errors.Is matches the sentinels.
package api
