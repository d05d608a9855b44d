// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/evo-tui/internal/model"
	"github.com/jeranaias/evo-tui/internal/util"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter defines the interface for conversation exporters.
type Exporter interface {
	// Export converts a conversation to the target format.
	Export(conv *model.Conversation) ([]byte, error)

	// FileExtension returns the file extension including the dot.
	FileExtension() string

	// MimeType returns the MIME type of the exported format.
	MimeType() string
}

// ErrEmptyConversation is returned for conversations without messages.
var ErrEmptyConversation = errors.New("conversation has no messages")

// =============================================================================
// EXPORT OPTIONS
// =============================================================================

// Options configures export behavior.
type Options struct {
	// OutputDir is the directory where files will be saved.
	OutputDir string

	// OpenAfterExport opens the file in the default application.
	OpenAfterExport bool

	// IncludeMetadata adds a header with title, dates and message count.
	IncludeMetadata bool

	// IncludeTimestamps adds per-message timestamps.
	IncludeTimestamps bool

	// Theme for HTML export ("light" or "dark").
	Theme string

	// Now is the clock used for export dates; nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns default export options.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
		Theme:             "dark",
	}
}

func (o *Options) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// =============================================================================
// FORMAT REGISTRY
// =============================================================================

var formats = map[string]func(*Options) Exporter{
	"text":     func(o *Options) Exporter { return NewTextExporter(o) },
	"markdown": func(o *Options) Exporter { return NewMarkdownExporter(o) },
	"json":     func(o *Options) Exporter { return NewJSONExporter(o) },
	"yaml":     func(o *Options) Exporter { return NewYAMLExporter(o) },
	"html":     func(o *Options) Exporter { return NewHTMLExporter(o) },
}

var formatAliases = map[string]string{
	"txt": "text",
	"md":  "markdown",
	"yml": "yaml",
	"htm": "html",
}

// Formats returns the supported format names.
func Formats() []string {
	names := make([]string, 0, len(formats))
	for name := range formats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForFormat returns the exporter for a format name or alias.
func ForFormat(name string, opts *Options) (Exporter, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if alias, ok := formatAliases[name]; ok {
		name = alias
	}
	newExporter, ok := formats[name]
	if !ok {
		return nil, errors.Errorf("unsupported export format %q (supported: %s)", name, strings.Join(Formats(), ", "))
	}
	return newExporter(opts), nil
}

// =============================================================================
// EXPORT FUNCTIONS
// =============================================================================

// ExportToFile exports a conversation to a new file in opts.OutputDir and
// returns its path.
func ExportToFile(conv *model.Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", errors.Wrap(err, "export failed")
	}

	outputPath := filepath.Join(opts.OutputDir, Filename(conv.GetTitle(), exporter.FileExtension(), opts.now()))
	if err := util.AtomicWriteFile(outputPath, content, 0644, 0755); err != nil {
		return "", errors.Wrap(err, "write file")
	}
	log.WithFields(log.Fields{"path": outputPath, "bytes": len(content)}).Info("conversation exported")

	if opts.OpenAfterExport {
		if err := openFile(outputPath); err != nil {
			// The file exists; failing to open it is only worth a warning.
			log.WithError(err).Warn("could not open exported file")
		}
	}

	return outputPath, nil
}

// Filename builds the export file name for a conversation title.
func Filename(title, ext string, at time.Time) string {
	return fmt.Sprintf("evo_%s_%s%s", sanitizeFilename(title), at.Format("20060102_150405"), ext)
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// foldAccents maps "Café" to "Cafe" so file names stay ASCII where possible.
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// sanitizeFilename removes or replaces characters that are invalid in filenames.
func sanitizeFilename(s string) string {
	if folded, _, err := transform.String(foldAccents, s); err == nil {
		s = folded
	}

	const maxLen = 50
	if r := []rune(s); len(r) > maxLen {
		s = string(r[:maxLen])
	}

	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('-')
		case unicode.IsSpace(r):
			b.WriteRune('_')
		case r < 32 || r == 127:
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "conversation"
	}
	return b.String()
}

// openFile opens a file in the default application for the OS.
func openFile(path string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", `""`, path)
	case "darwin":
		cmd = exec.Command("open", path)
	case "linux":
		cmd = exec.Command("xdg-open", path)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// formatTimestamp formats a timestamp for display.
func formatTimestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04:05")
}

// formatShortTimestamp formats a timestamp for inline display.
func formatShortTimestamp(t time.Time) string {
	return t.Format("15:04:05")
}

// exportable returns the messages worth exporting. Pending placeholders are
// skipped.
func exportable(conv *model.Conversation) ([]*model.Message, error) {
	if conv == nil {
		return nil, errors.New("conversation is nil")
	}
	msgs := make([]*model.Message, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		if !m.IsPlaceholder() {
			msgs = append(msgs, m)
		}
	}
	if len(msgs) == 0 {
		return nil, ErrEmptyConversation
	}
	return msgs, nil
}
