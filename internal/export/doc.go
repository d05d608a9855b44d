// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders conversations to files.
//
// # Supported Formats
//
//   - text: the plain transcript, "You:" and "AI:" blocks separated by rules
//   - markdown: headings per message with optional front matter
//   - json / yaml: machine-readable documents
//   - html: a standalone page with highlighted code blocks
//
// # Usage
//
//	exp, err := export.ForFormat("markdown", export.DefaultOptions())
//	path, err := export.ExportToFile(conv, exp, opts)
package export
