// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jeranaias/evo-tui/internal/session"
)

// =============================================================================
// LOGIN
// =============================================================================

func newLoginCommand(appFn func() *App) *cobra.Command {
	var (
		email         string
		passwordStdin bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Long: `Log in with your email and password. The token is stored in
~/.evo/session and shared by every evo command and terminal.

Without --password-stdin the password is prompted for on the terminal.`,
		Example: `  evo login
  evo login --email ana@acme.test
  echo "$PASSWORD" | evo login --email ana@acme.test --password-stdin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			password := ""

			switch {
			case passwordStdin:
				if email == "" {
					return NewValidationErrorWithExample("--email", "", "required with --password-stdin",
						"evo login --email you@company.com --password-stdin")
				}
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.Wrap(err, "read password from stdin")
				}
				password = strings.TrimRight(line, "\r\n")
			default:
				if err := RequiresTTY("prompt for credentials"); err != nil {
					return err
				}
				var err error
				if email, password, err = promptCredentials(email); err != nil {
					return err
				}
			}

			ctx, cancel := app.ctx(cmd.Context())
			defer cancel()
			if err := app.Client.Login(ctx, email, password); err != nil {
				return err
			}

			claims := app.Session.Claims()
			who := claims.Email
			if who == "" {
				who = email
			}
			log.WithField("email", who).Info("logged in")
			fmt.Fprintf(cmd.OutOrStdout(), "%s Logged in as %s\n", SuccessStyle.Render("[OK]"), who)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

// promptCredentials reads the email (unless given) and the password with
// line editing; the password is not echoed.
func promptCredentials(email string) (string, string, error) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	if email == "" {
		var err error
		if email, err = line.Prompt("Email: "); err != nil {
			return "", "", promptErr(err)
		}
	}
	password, err := line.PasswordPrompt("Password: ")
	if err != nil {
		return "", "", promptErr(err)
	}
	return strings.TrimSpace(email), password, nil
}

func promptErr(err error) error {
	if errors.Is(err, liner.ErrPromptAborted) {
		return errors.New("login cancelled")
	}
	return errors.Wrap(err, "read credentials")
}

// =============================================================================
// LOGOUT
// =============================================================================

func newLogoutCommand(appFn func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Long: `Remove the stored token. Terminal UIs running in other terminals
notice and return to their login screen.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			if !app.Session.Active() {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
				return nil
			}
			app.Session.End(session.ReasonLogout)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", SuccessStyle.Render("[OK]"), session.ReasonLogout.Message())
			return nil
		},
	}
}

// =============================================================================
// WHOAMI
// =============================================================================

func newWhoamiCommand(appFn func() *App, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFn()
			if err := app.requireSession(); err != nil {
				return err
			}
			ctx, cancel := app.ctx(cmd.Context())
			defer cancel()
			me, err := app.Client.Me(ctx)
			if err != nil {
				return err
			}

			if opts.JSON {
				return printJSON(cmd.OutOrStdout(), "whoami", me)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, TitleStyle.Render(me.DisplayName()))
			fmt.Fprintln(out, RenderField("Email", me.Email))
			fmt.Fprintln(out, RenderField("Role", me.Role))
			if me.TenantName != "" {
				fmt.Fprintln(out, RenderField("Tenant", me.TenantName))
			}
			if exp := app.Session.Claims().ExpiresAt; !exp.IsZero() {
				fmt.Fprintln(out, RenderField("Session expires", formatTime(exp)))
			}
			return nil
		},
	}
}
