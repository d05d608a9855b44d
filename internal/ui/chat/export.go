// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/jeranaias/evo-tui/internal/export"
	"github.com/jeranaias/evo-tui/internal/ui/components"
)

// exportDoneMsg reports where the active conversation was written.
type exportDoneMsg struct {
	Path string
	Err  error
}

// exportActive writes a snapshot of the active conversation in the
// configured format. The snapshot is taken on the event loop so the write
// never sees a conversation that is still changing.
func (m *Model) exportActive() tea.Cmd {
	snap, err := m.ctrl.Snapshot()
	if err != nil {
		m.toasts.Add(components.ToastWarning, "Open a conversation to export it.")
		return m.armToasts()
	}

	opts := export.DefaultOptions()
	dir, err := m.deps.Config.ExportDir()
	if err != nil {
		m.toasts.Add(components.ToastError, "No export directory available.")
		return m.armToasts()
	}
	opts.OutputDir = dir

	exp, err := export.ForFormat(m.deps.Config.Export.Format, opts)
	if err != nil {
		m.toasts.Add(components.ToastError, err.Error())
		return m.armToasts()
	}

	return func() tea.Msg {
		path, err := export.ExportToFile(snap, exp, opts)
		return exportDoneMsg{Path: path, Err: err}
	}
}

func (m *Model) exportDone(msg exportDoneMsg) tea.Cmd {
	if msg.Err != nil {
		log.WithError(msg.Err).Warn("export failed")
		m.toasts.Add(components.ToastError, "Export failed: "+msg.Err.Error())
	} else {
		m.toasts.Add(components.ToastSuccess, "Exported to "+msg.Path)
	}
	return m.armToasts()
}
