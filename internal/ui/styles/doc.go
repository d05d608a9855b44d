// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the evo terminal
// client.
//
// All colors are lipgloss.AdaptiveColor values so light and dark terminals
// both read well. Theme bundles the styles used by the chat screen; status
// helpers always pair a color with an ASCII shape so states stay readable
// without color.
package styles
