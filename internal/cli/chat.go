// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/peterh/liner"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jeranaias/evo-tui/internal/config"
	"github.com/jeranaias/evo-tui/internal/conversation"
	"github.com/jeranaias/evo-tui/internal/model"
)

// errMessageNotSent reports a send the backend did not answer.
var errMessageNotSent = errors.New("message not sent")

// historyFileName holds the plain chat input history inside the config dir.
const historyFileName = "chat_history"

func newChatCommand(appFn func() *App) *cobra.Command {
	var (
		plain  bool
		convID string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with Evo Associate",
		Long: `Open the chat UI. With --plain, chat line by line instead.

Plain mode commands:
  /new           Start a new conversation
  /list          List conversations
  /open <id>     Continue a conversation
  /usage         Show monthly usage
  /help          Show this help
  /quit          Exit`,
		Example: `  evo chat
  evo chat --plain
  evo chat --plain --conversation 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			if !plain {
				return runTUI(cmd, app)
			}
			if err := app.requireSession(); err != nil {
				return err
			}
			return runPlainChat(cmd, app, convID)
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "Line mode instead of the full screen UI")
	cmd.Flags().StringVarP(&convID, "conversation", "c", "", "Continue the conversation with this id")
	return cmd
}

// =============================================================================
// INPUT HISTORY
// =============================================================================

// lineReader provides input history and line editing for plain chat.
type lineReader struct {
	line        *liner.State
	historyFile string
}

func newLineReader() *lineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &lineReader{line: line, historyFile: filepath.Join(dir, historyFileName)}
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *lineReader) read(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

func (r *lineReader) close() {
	if _, err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
	r.line.Close()
}

// =============================================================================
// LINE CHAT
// =============================================================================

// lineChat drives a conversation controller synchronously and prints the
// reply as it is revealed.
type lineChat struct {
	ctrl     *conversation.Controller
	out      io.Writer
	markdown bool

	reply   *model.Message
	printed int
	limited bool
}

func newLineChat(app *App, out io.Writer, reveal bool) *lineChat {
	opts := conversation.Options{
		RecencyWindow:  app.Config.Chat.RecencyWindow.Duration,
		RequestTimeout: app.Config.API.Timeout.Duration,
	}
	markdown := app.Config.Chat.Markdown && isTerminalWriter(out)
	// Rendered markdown only makes sense for the whole reply.
	if reveal && !markdown {
		opts.RevealDelay = app.Config.Chat.RevealDelay.Duration
	}
	return &lineChat{
		ctrl:     conversation.New(app.Client, opts),
		out:      out,
		markdown: markdown,
	}
}

// start loads the conversation list and identity.
func (lc *lineChat) start() error {
	conversation.Drive(lc.ctrl, lc.ctrl.Init(), nil)
	return lc.settle()
}

// checkUsage fetches the usage snapshot so that a send over the monthly
// limit is refused before anything is created on the backend.
func (lc *lineChat) checkUsage() error {
	conversation.Drive(lc.ctrl, lc.ctrl.RefreshUsage(), nil)
	return lc.settle()
}

// open activates the conversation with the given server id.
func (lc *lineChat) open(id string) error {
	cmd, err := lc.ctrl.Select(id)
	if err != nil {
		return errors.Wrapf(err, "open conversation %s", id)
	}
	conversation.Drive(lc.ctrl, cmd, nil)
	return lc.settle()
}

// send posts content and prints the reply. The returned error is the
// reason the message was not answered.
func (lc *lineChat) send(content string) error {
	lc.limited = false
	cmd, err := lc.ctrl.Send(content)
	if err != nil {
		lc.printNotices()
		return err
	}
	lc.reply = lc.ctrl.Active().LastMessage()
	lc.printed = 0

	if !lc.markdown {
		fmt.Fprint(lc.out, AssistantStyle.Render(assistantName+": "))
	}
	conversation.Drive(lc.ctrl, cmd, lc.observe)
	lc.flush()
	if err := lc.settle(); err != nil {
		return err
	}
	if _, ok := lc.ctrl.TakeDraft(); ok {
		if lc.limited {
			return conversation.ErrLimitReached
		}
		return errMessageNotSent
	}
	return nil
}

func (lc *lineChat) observe(tea.Msg) {
	if lc.markdown || lc.reply == nil {
		return
	}
	if n := len(lc.reply.Content); n > lc.printed {
		fmt.Fprint(lc.out, lc.reply.Content[lc.printed:])
		lc.printed = n
	}
}

// flush prints what the reveal has not printed yet.
func (lc *lineChat) flush() {
	r := lc.reply
	lc.reply = nil
	if r == nil || r.Content == "" {
		if !lc.markdown {
			fmt.Fprintln(lc.out)
		}
		return
	}
	if lc.markdown {
		fmt.Fprintln(lc.out, AssistantStyle.Render(assistantName))
		fmt.Fprint(lc.out, renderMarkdown(r.Content, GetTerminalWidth()))
		return
	}
	if lc.printed < len(r.Content) {
		fmt.Fprint(lc.out, r.Content[lc.printed:])
	}
	fmt.Fprintln(lc.out)
}

// settle prints pending notices and reports a lost session.
func (lc *lineChat) settle() error {
	lc.printNotices()
	if lc.ctrl.SessionEnded() {
		return ErrNotLoggedIn
	}
	return nil
}

func (lc *lineChat) printNotices() {
	for _, n := range lc.ctrl.TakeNotices() {
		switch n.Kind {
		case conversation.NoticeLimit:
			lc.limited = true
			fmt.Fprintln(lc.out, ErrorStyle.Render("[!] "+n.Text))
		case conversation.NoticeError:
			fmt.Fprintln(lc.out, ErrorStyle.Render("[!] "+n.Text))
		case conversation.NoticeWarning:
			fmt.Fprintln(lc.out, WarningStyle.Render("[!] "+n.Text))
		default:
			fmt.Fprintln(lc.out, DimStyle.Render(n.Text))
		}
	}
}

// =============================================================================
// PLAIN REPL
// =============================================================================

func runPlainChat(cmd *cobra.Command, app *App, convID string) error {
	out := cmd.OutOrStdout()
	lc := newLineChat(app, out, true)
	if err := lc.start(); err != nil {
		return err
	}
	if convID != "" {
		if err := lc.open(convID); err != nil {
			return err
		}
	}

	printWelcome(out, lc)
	in := newLineReader()
	defer lc.ctrl.Teardown()
	defer in.close()

	for {
		input, err := in.read(PromptStyle.Render("You: "))
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			quit, err := handleSlashCommand(out, lc, input)
			if err != nil {
				fmt.Fprintln(out, ErrorStyle.Render("[!] "+err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		switch err := lc.send(input); {
		case err == nil:
		case errors.Is(err, ErrNotLoggedIn):
			return err
		case errors.Is(err, conversation.ErrEmptyMessage):
		default:
			log.WithError(err).Debug("send failed")
		}
	}
}

// handleSlashCommand runs a /command. It reports whether to quit.
func handleSlashCommand(out io.Writer, lc *lineChat, input string) (bool, error) {
	parts := strings.Fields(input)
	switch parts[0] {
	case "/quit", "/q", "/exit":
		return true, nil
	case "/help", "/h", "/?":
		printChatHelp(out)
	case "/new", "/n":
		lc.ctrl.Deselect()
		fmt.Fprintln(out, DimStyle.Render("Your next message starts a new conversation."))
	case "/list", "/ls":
		printConversationList(out, lc.ctrl)
	case "/open", "/o":
		if len(parts) < 2 {
			return false, errors.New("usage: /open <id>")
		}
		if err := lc.open(parts[1]); err != nil {
			return false, err
		}
		if conv := lc.ctrl.Active(); conv != nil {
			printConversation(out, conv, lc.markdown)
		}
	case "/usage", "/u":
		if u := lc.ctrl.Usage(); u != nil {
			printUsage(out, u)
		}
	default:
		return false, errors.Errorf("unknown command: %s (type /help for commands)", parts[0])
	}
	return false, nil
}

func printWelcome(out io.Writer, lc *lineChat) {
	fmt.Fprintln(out, TitleStyle.Render("Evo Associate"))
	if me := lc.ctrl.Identity(); me != nil {
		fmt.Fprintln(out, DimStyle.Render("Signed in as "+me.DisplayName()))
	}
	if conv := lc.ctrl.Active(); conv != nil {
		fmt.Fprintln(out, DimStyle.Render("Continuing: "+conv.GetTitle()))
	}
	fmt.Fprintln(out, DimStyle.Render("Type your message and press Enter. Commands: /help, /quit"))
	fmt.Fprintln(out)
}

func printChatHelp(out io.Writer) {
	fmt.Fprintln(out, SectionStyle.Render("Commands"))
	for _, c := range [][2]string{
		{"/new", "Start a new conversation"},
		{"/list", "List conversations"},
		{"/open <id>", "Continue a conversation"},
		{"/usage", "Show monthly usage"},
		{"/quit", "Exit"},
	} {
		fmt.Fprintf(out, "  %-12s %s\n", c[0], DimStyle.Render(c[1]))
	}
}

func printConversationList(out io.Writer, ctrl *conversation.Controller) {
	list := ctrl.Conversations()
	if len(list) == 0 {
		fmt.Fprintln(out, DimStyle.Render("No conversations yet."))
		return
	}
	active := ctrl.Active()
	for _, c := range list {
		marker := " "
		if c == active {
			marker = "*"
		}
		id := c.ID.ServerID()
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(out, "%s %6s  %s\n", marker, id, truncateString(c.GetTitle(), titleColumnWidth))
	}
}
