// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jeranaias/evo-tui/internal/config"
	"github.com/jeranaias/evo-tui/internal/session"
	"github.com/jeranaias/evo-tui/internal/storage"
	"github.com/jeranaias/evo-tui/internal/ui/chat"
)

// runTUI opens the full screen chat UI. Drafts and the session watcher are
// optional: the UI still runs when either cannot be set up.
func runTUI(cmd *cobra.Command, app *App) error {
	if err := RequiresTTY("open the chat UI"); err != nil {
		return err
	}
	if _, err := config.EnsureConfigDir(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	deps := chat.Deps{Client: app.Client, Config: app.Config}

	if path, err := app.Config.DraftsPath(); err == nil {
		drafts, err := storage.OpenDraftStore(path)
		if err != nil {
			log.WithError(err).Warn("drafts disabled")
		} else {
			defer drafts.Close()
			deps.Drafts = drafts
		}
	}

	watcher, err := session.NewWatcher(app.Session, app.Store)
	if err != nil {
		log.WithError(err).Warn("session watch disabled")
	} else {
		go watcher.Run(ctx)
		deps.Watcher = watcher
	}

	p := tea.NewProgram(chat.New(deps), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "run chat UI")
	}
	return nil
}
