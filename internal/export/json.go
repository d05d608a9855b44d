// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"encoding/json"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jeranaias/evo-tui/internal/model"
)

// document is the machine-readable form of a conversation shared by the
// JSON and YAML exporters.
type document struct {
	ID        string            `json:"id,omitempty" yaml:"id,omitempty"`
	Title     string            `json:"title" yaml:"title"`
	CreatedAt *time.Time        `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt *time.Time        `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
	Exported  time.Time         `json:"exportedAt" yaml:"exportedAt"`
	Messages  []documentMessage `json:"messages" yaml:"messages"`
}

type documentMessage struct {
	ID        string     `json:"id,omitempty" yaml:"id,omitempty"`
	Role      string     `json:"role" yaml:"role"`
	Content   string     `json:"content" yaml:"content"`
	Timestamp *time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func newDocument(conv *model.Conversation, opts *Options) (*document, error) {
	msgs, err := exportable(conv)
	if err != nil {
		return nil, err
	}
	doc := &document{
		ID:       conv.ID.ServerID(),
		Title:    conv.GetTitle(),
		Exported: opts.now(),
		Messages: make([]documentMessage, 0, len(msgs)),
	}
	if opts.IncludeMetadata {
		doc.CreatedAt = optionalTime(conv.CreatedAt)
		doc.UpdatedAt = optionalTime(conv.UpdatedAt)
	}
	for _, m := range msgs {
		dm := documentMessage{
			ID:      m.ID.ServerID(),
			Role:    m.Role.String(),
			Content: m.Content,
		}
		if opts.IncludeTimestamps {
			dm.Timestamp = optionalTime(m.Timestamp)
		}
		doc.Messages = append(doc.Messages, dm)
	}
	return doc, nil
}

// =============================================================================
// JSON EXPORTER
// =============================================================================

// JSONExporter exports conversations to JSON format.
type JSONExporter struct {
	options *Options
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(opts *Options) *JSONExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &JSONExporter{options: opts}
}

// Export converts a conversation to indented JSON.
func (e *JSONExporter) Export(conv *model.Conversation) ([]byte, error) {
	doc, err := newDocument(conv, e.options)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for JSON.
func (e *JSONExporter) FileExtension() string {
	return ".json"
}

// MimeType returns the MIME type for JSON.
func (e *JSONExporter) MimeType() string {
	return "application/json"
}

// =============================================================================
// YAML EXPORTER
// =============================================================================

// YAMLExporter exports conversations to YAML format.
type YAMLExporter struct {
	options *Options
}

// NewYAMLExporter creates a new YAML exporter.
func NewYAMLExporter(opts *Options) *YAMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &YAMLExporter{options: opts}
}

// Export converts a conversation to YAML.
func (e *YAMLExporter) Export(conv *model.Conversation) ([]byte, error) {
	doc, err := newDocument(conv, e.options)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileExtension returns the file extension for YAML.
func (e *YAMLExporter) FileExtension() string {
	return ".yaml"
}

// MimeType returns the MIME type for YAML.
func (e *YAMLExporter) MimeType() string {
	return "application/yaml"
}
