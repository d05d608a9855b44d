// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
)

func (c *Controller) loadUsage() tea.Cmd {
	backend, ctxFn, owner := c.backend, c.ctx, c.id
	return func() tea.Msg {
		ctx, cancel := ctxFn()
		defer cancel()
		usage, err := backend.Usage(ctx)
		return UsageLoadedMsg{Owner: owner, Usage: usage, Err: err}
	}
}

// RefreshUsage fetches a new usage snapshot.
func (c *Controller) RefreshUsage() tea.Cmd {
	if c.closed {
		return nil
	}
	return c.loadUsage()
}

func (c *Controller) scheduleUsage() tea.Cmd {
	if c.opts.UsageRefresh <= 0 {
		return nil
	}
	gen, owner := c.usageGen, c.id
	return tea.Tick(c.opts.UsageRefresh, func(time.Time) tea.Msg {
		return UsageTickMsg{Owner: owner, Gen: gen}
	})
}

func (c *Controller) handleUsageTick(msg UsageTickMsg) tea.Cmd {
	if msg.Gen != c.usageGen {
		return nil
	}
	return tea.Batch(c.loadUsage(), c.scheduleUsage())
}

func (c *Controller) handleUsageLoaded(msg UsageLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		if !c.failed(msg.Err) {
			// Usage is advisory; the banner keeps the last snapshot.
			log.WithError(msg.Err).Debug("usage refresh failed")
		}
		return nil
	}
	c.usage = msg.Usage
	return nil
}

func (c *Controller) loadIdentity() tea.Cmd {
	backend, ctxFn, owner := c.backend, c.ctx, c.id
	return func() tea.Msg {
		ctx, cancel := ctxFn()
		defer cancel()
		me, err := backend.Me(ctx)
		return IdentityLoadedMsg{Owner: owner, Me: me, Err: err}
	}
}

func (c *Controller) handleIdentityLoaded(msg IdentityLoadedMsg) tea.Cmd {
	if msg.Err != nil {
		if !c.failed(msg.Err) {
			log.WithError(msg.Err).Debug("identity lookup failed")
		}
		return nil
	}
	c.identity = msg.Me
	return nil
}
