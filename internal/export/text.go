// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"

	"github.com/jeranaias/evo-tui/internal/model"
)

// TextExporter writes the plain transcript: one "You:" or "AI:" block per
// message, separated by horizontal rules.
type TextExporter struct {
	options *Options
}

// NewTextExporter creates a new text exporter.
func NewTextExporter(opts *Options) *TextExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &TextExporter{options: opts}
}

// Export converts a conversation to plain text.
func (e *TextExporter) Export(conv *model.Conversation) ([]byte, error) {
	msgs, err := exportable(conv)
	if err != nil {
		return nil, err
	}

	blocks := make([]string, 0, len(msgs))
	for _, m := range msgs {
		label := "AI"
		if m.Role == model.RoleUser {
			label = "You"
		}
		block := label + ": " + m.Content
		if e.options.IncludeTimestamps && !m.Timestamp.IsZero() {
			block = "[" + formatTimestamp(m.Timestamp) + "] " + block
		}
		blocks = append(blocks, block)
	}
	return []byte(strings.Join(blocks, "\n\n---\n\n") + "\n"), nil
}

// FileExtension returns the file extension for text.
func (e *TextExporter) FileExtension() string {
	return ".txt"
}

// MimeType returns the MIME type for text.
func (e *TextExporter) MimeType() string {
	return "text/plain"
}
