// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jeranaias/evo-tui/internal/api"
	"github.com/jeranaias/evo-tui/internal/config"
	"github.com/jeranaias/evo-tui/internal/logging"
	"github.com/jeranaias/evo-tui/internal/session"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// =============================================================================
// APP
// =============================================================================

// App holds what every command needs: configuration, the session and an API
// client bound to it.
type App struct {
	Config  *config.Config
	Store   *session.Store
	Session *session.Session
	Client  *api.Client

	logCloser io.Closer
}

// Options are the global flags.
type Options struct {
	LogLevel   string
	ConfigPath string
	BaseURL    string
	JSON       bool
}

// interactive commands own the terminal and log to the log file.
var interactive = map[string]bool{
	"evo":  true,
	"chat": true,
}

func newApp(opts *Options, cmd *cobra.Command) (*App, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.LoadFromPath(opts.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	if opts.BaseURL != "" {
		cfg.API.BaseURL = opts.BaseURL
	}

	level := cfg.Log.Level
	if cmd.Flags().Changed("log-level") || level == "" {
		level = opts.LogLevel
	}
	logOpts := logging.Options{Level: level, Output: cmd.ErrOrStderr()}
	if interactive[cmd.Name()] {
		if logOpts.File, err = cfg.LogPath(); err != nil {
			return nil, err
		}
	}
	closer, err := logging.Setup(logOpts)
	if err != nil {
		return nil, err
	}

	dir, err := config.ConfigDir()
	if err != nil {
		closer.Close()
		return nil, err
	}
	store := session.NewStore(dir)
	sess := session.New(store)
	if err := sess.Restore(); err != nil {
		log.WithError(err).Warn("could not restore session")
	}

	client := api.NewClient(cfg.API.BaseURL, sess).
		WithTimeout(cfg.API.Timeout.Duration).
		WithRateLimit(cfg.API.RequestsPerSecond, cfg.API.Burst)

	log.WithFields(log.Fields{
		"command":  cmd.CommandPath(),
		"base_url": cfg.API.BaseURL,
	}).Debug("app ready")

	return &App{
		Config:    cfg,
		Store:     store,
		Session:   sess,
		Client:    client,
		logCloser: closer,
	}, nil
}

// Close releases the log file.
func (a *App) Close() error {
	if a == nil || a.logCloser == nil {
		return nil
	}
	return a.logCloser.Close()
}

// ctx bounds a single backend call.
func (a *App) ctx(parent context.Context) (context.Context, context.CancelFunc) {
	d := a.Config.API.Timeout.Duration
	if d <= 0 {
		d = config.DefaultTimeout
	}
	return context.WithTimeout(parent, d)
}

// requireSession fails with a hint when nobody is logged in.
func (a *App) requireSession() error {
	if !a.Session.Active() {
		return ErrNotLoggedIn
	}
	if a.Session.Expired() {
		a.Session.End(session.ReasonExpired)
		return errors.Wrap(ErrNotLoggedIn, session.ReasonExpired.Message())
	}
	return nil
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// NewRootCommand builds the evo command tree.
func NewRootCommand() *cobra.Command {
	opts := &Options{}
	var app *App

	// appFn hands subcommands the App once PersistentPreRunE has built it.
	appFn := func() *App { return app }

	root := &cobra.Command{
		Use:   "evo",
		Short: "Terminal client for Evo Associate",
		Long: `evo is a terminal client for the Evo Associate assistant.

Without a subcommand it opens the chat UI. Log in first with "evo login".`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts, cmd)
			if err != nil {
				return err
			}
			app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, appFn())
		},
	}

	root.PersistentFlags().StringVar(&opts.LogLevel, "log-level", config.DefaultLogLevel,
		"Log level (trace,debug,info,warn,error)")
	root.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Config file (default ~/.evo/config.toml)")
	root.PersistentFlags().StringVar(&opts.BaseURL, "base-url", "", "Backend URL, overrides api.base_url")
	root.PersistentFlags().BoolVar(&opts.JSON, "json", false, "Print machine-readable JSON")

	root.AddCommand(
		newChatCommand(appFn),
		newAskCommand(appFn),
		newLoginCommand(appFn),
		newLogoutCommand(appFn),
		newWhoamiCommand(appFn, opts),
		newUsageCommand(appFn, opts),
		newConversationsCommand(appFn, opts),
		newDraftsCommand(appFn, opts),
		newAdminCommand(appFn, opts),
		newSuperCommand(appFn, opts),
		newConfigCommand(appFn, opts),
		newSandboxCommand(),
		newVersionCommand(),
	)
	return root
}

// Execute runs the command line and returns the exit code.
func Execute() int {
	root := NewRootCommand()
	cmd, err := root.ExecuteC()
	if err != nil {
		if asJSON, _ := root.PersistentFlags().GetBool("json"); asJSON && cmd != nil {
			DisplayErrorJSON(root.OutOrStdout(), cmd.CommandPath(), err)
		} else {
			DisplayError(root.ErrOrStderr(), err)
		}
		return GetExitCode(err)
	}
	return ExitSuccess
}
