// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Drive runs cmd and every command it leads to until none is left, feeding
// each resulting message through c.Update in order. Batches run their
// commands one after another. observe, when not nil, is called after each
// update, which lets a line-mode caller print reveal progress.
//
// Timers run for real, so the usage refresh must be disabled for a
// controller that is driven this way.
func Drive(c *Controller, cmd tea.Cmd, observe func(tea.Msg)) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if msg == nil {
			continue
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		follow := c.Update(msg)
		if observe != nil {
			observe(msg)
		}
		queue = append(queue, follow)
	}
}
