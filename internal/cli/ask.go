// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	// maxFileSize is the largest file --file attaches (32KB).
	maxFileSize = 32 * 1024

	// minRenderWidth keeps glamour from wrapping on tiny terminals.
	minRenderWidth = 40

	assistantName = "Evo Associate"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// renderMarkdown renders content for the terminal, or returns it unchanged
// when rendering fails.
func renderMarkdown(content string, width int) string {
	if width < minRenderWidth {
		width = minRenderWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err != nil {
		return content
	}
	rendered, err := r.Render(content)
	if err != nil {
		return content
	}
	return rendered
}

// =============================================================================
// FILE READING
// =============================================================================

// readFileForQuestion reads a file and wraps it for inclusion in a message.
func readFileForQuestion(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Errorf("file not found: %s", path)
		}
		return "", errors.Wrap(err, "cannot access file")
	}
	if info.Size() > maxFileSize {
		return "", errors.Errorf("file too large: %d bytes (max %d bytes)", info.Size(), maxFileSize)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "read file")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n--- File: %s ---\n", path)
	b.Write(content)
	b.WriteString("\n--- End of file ---\n")
	return b.String(), nil
}

// =============================================================================
// ASK
// =============================================================================

func newAskCommand(appFn func() *App) *cobra.Command {
	var (
		convID string
		file   string
		raw    bool
	)
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a single question",
		Long: `Send one message and print the reply.

Without a question (or with "-") the message is read from stdin. The reply
starts a new conversation unless --conversation is given.`,
		Example: `  evo ask "Summarise our leave policy"
  evo ask --conversation 42 "And for contractors?"
  evo ask --file notes.txt "Turn these notes into an email"
  git diff | evo ask -`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			if err := app.requireSession(); err != nil {
				return err
			}

			question := strings.Join(args, " ")
			if question == "" || question == "-" {
				if IsTTY() && question == "" {
					return NewValidationErrorWithExample("question", "", "no question given", `evo ask "What is our refund policy?"`)
				}
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return errors.Wrap(err, "read question from stdin")
				}
				question = string(data)
			}
			if file != "" {
				attached, err := readFileForQuestion(file)
				if err != nil {
					return err
				}
				question += attached
			}

			out := cmd.OutOrStdout()
			lc := newLineChat(app, out, false)
			if raw {
				lc.markdown = false
			}
			defer lc.ctrl.Teardown()
			if convID != "" {
				if err := lc.start(); err != nil {
					return err
				}
				if err := lc.open(convID); err != nil {
					return err
				}
			} else if err := lc.checkUsage(); err != nil {
				return err
			}
			return lc.send(question)
		},
	}
	cmd.Flags().StringVarP(&convID, "conversation", "c", "", "Continue the conversation with this id")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Attach a text file to the question")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the reply without markdown rendering")
	return cmd
}
