// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"

	"github.com/jeranaias/evo-tui/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports conversations to a standalone HTML page.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a conversation to HTML format.
func (e *HTMLExporter) Export(conv *model.Conversation) ([]byte, error) {
	msgs, err := exportable(conv)
	if err != nil {
		return nil, err
	}
	title := html.EscapeString(conv.GetTitle())
	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	fmt.Fprintf(&sb, "    <title>%s</title>\n", title)
	sb.WriteString("    <meta name=\"generator\" content=\"evo\">\n")
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	fmt.Fprintf(&sb, "<body class=\"%s-theme\">\n    <div class=\"container\">\n", theme)

	if e.options.IncludeMetadata {
		sb.WriteString("        <header class=\"header\">\n")
		fmt.Fprintf(&sb, "            <h1>%s</h1>\n", title)
		sb.WriteString("            <div class=\"metadata\">\n")
		if !conv.CreatedAt.IsZero() {
			fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(conv.CreatedAt))
		}
		fmt.Fprintf(&sb, "                <span class=\"meta-item\"><strong>Messages:</strong> %d</span>\n", len(msgs))
		sb.WriteString("            </div>\n        </header>\n")
	}

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, msg := range msgs {
		sb.WriteString(e.renderMessage(msg))
	}
	sb.WriteString("        </main>\n")

	fmt.Fprintf(&sb, "        <footer class=\"footer\">Exported from <strong>evo</strong> on %s</footer>\n",
		exportedAt(e.options.now()))
	sb.WriteString("    </div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

func (e *HTMLExporter) renderMessage(msg *model.Message) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "            <div class=\"message %s-message\">\n", html.EscapeString(msg.Role.String()))
	sb.WriteString("                <div class=\"message-header\">\n")
	fmt.Fprintf(&sb, "                    <span class=\"role-label\">%s</span>\n", html.EscapeString(roleLabel(msg.Role)))
	if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
		fmt.Fprintf(&sb, "                    <span class=\"timestamp\">%s</span>\n", formatShortTimestamp(msg.Timestamp))
	}
	sb.WriteString("                </div>\n")
	sb.WriteString("                <div class=\"message-content\">\n")
	sb.WriteString(e.formatContent(msg.Content))
	sb.WriteString("\n                </div>\n")
	sb.WriteString("            </div>\n")

	return sb.String()
}

var (
	fenceRegex      = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)\n(.*?)```")
	inlineCodeRegex = regexp.MustCompile("`([^`\n]+)`")
	paragraphRegex  = regexp.MustCompile(`\n\s*\n`)
)

// formatContent converts message markdown to HTML. Fenced code blocks are
// highlighted; everything else becomes escaped paragraphs.
func (e *HTMLExporter) formatContent(content string) string {
	var parts []string
	last := 0
	for _, m := range fenceRegex.FindAllStringSubmatchIndex(content, -1) {
		parts = append(parts, formatProse(content[last:m[0]]))
		lang := content[m[2]:m[3]]
		code := strings.TrimRight(content[m[4]:m[5]], "\n")
		parts = append(parts, e.formatCodeBlock(code, lang))
		last = m[1]
	}
	parts = append(parts, formatProse(content[last:]))

	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}

// formatProse turns blank-line separated text into paragraphs.
func formatProse(text string) string {
	var paras []string
	for _, para := range paragraphRegex.Split(strings.TrimSpace(text), -1) {
		if para = strings.TrimSpace(para); para == "" {
			continue
		}
		escaped := html.EscapeString(para)
		escaped = inlineCodeRegex.ReplaceAllString(escaped, "<code class=\"inline-code\">$1</code>")
		escaped = strings.ReplaceAll(escaped, "\n", "<br>\n")
		paras = append(paras, "<p>"+escaped+"</p>")
	}
	return strings.Join(paras, "\n")
}

func (e *HTMLExporter) formatCodeBlock(code, lang string) string {
	label := ""
	if lang != "" {
		label = fmt.Sprintf("<div class=\"code-lang\">%s</div>", html.EscapeString(lang))
	}
	return fmt.Sprintf("<div class=\"code-block\">%s%s</div>", label, e.highlight(code, lang))
}

// highlight renders code with chroma using inline styles so the page needs
// no external stylesheet.
func (e *HTMLExporter) highlight(code, lang string) string {
	fallback := "<pre><code>" + html.EscapeString(code) + "</code></pre>"

	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	styleName := "monokai"
	if e.options.Theme == "light" {
		styleName = "github"
	}
	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return fallback
	}
	var buf strings.Builder
	if err := chromahtml.New(chromahtml.TabWidth(4)).Format(&buf, style, iterator); err != nil {
		return fallback
	}
	return buf.String()
}

// pageCSS is embedded so exports are a single self-contained file.
const pageCSS = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body { font-family: -apple-system, "Segoe UI", Roboto, Arial, sans-serif; line-height: 1.6; }
        .dark-theme { background: #15171c; color: #e4e6eb; }
        .light-theme { background: #f7f7f9; color: #1d1f24; }
        .container { max-width: 900px; margin: 0 auto; padding: 2rem 1rem; }
        .header { border-bottom: 1px solid #7c5cff; padding-bottom: 1rem; margin-bottom: 1.5rem; }
        .header h1 { font-size: 1.6rem; }
        .metadata { display: flex; gap: 1.5rem; font-size: 0.85rem; opacity: 0.8; }
        .message { border-radius: 8px; padding: 1rem 1.25rem; margin-bottom: 1rem; }
        .dark-theme .user-message { background: #262a33; }
        .dark-theme .assistant-message { background: #1e2129; border-left: 3px solid #7c5cff; }
        .light-theme .user-message { background: #e9ecf2; }
        .light-theme .assistant-message { background: #ffffff; border-left: 3px solid #7c5cff; }
        .message-header { display: flex; justify-content: space-between; font-size: 0.8rem; margin-bottom: 0.5rem; }
        .role-label { font-weight: 600; text-transform: uppercase; letter-spacing: 0.05em; }
        .timestamp { opacity: 0.6; }
        .message-content p { margin-bottom: 0.75rem; }
        .inline-code { font-family: "Fira Code", monospace; background: rgba(124, 92, 255, 0.15); padding: 0 0.25rem; border-radius: 3px; }
        .code-block { margin: 0.75rem 0; border-radius: 6px; overflow: hidden; }
        .code-block pre { padding: 0.75rem 1rem; overflow-x: auto; font-family: "Fira Code", monospace; font-size: 0.85rem; }
        .code-lang { font-size: 0.7rem; padding: 0.2rem 1rem; background: rgba(0, 0, 0, 0.3); }
        .footer { margin-top: 2rem; font-size: 0.8rem; opacity: 0.6; text-align: center; }
    </style>
`
