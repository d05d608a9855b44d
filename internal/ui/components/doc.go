// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the styled building blocks of the evo chat screen.

Components are plain structs with setters and a View method. They hold no
backend state: the chat model copies what it needs from the conversation
controller before rendering.

# Display Components

Header (header.go) - Brand, signed-in user and tenant.
Sidebar (sidebar.go) - Conversation list with active and cursor markers.
MessageView (message.go) - User and assistant messages, markdown rendered.
UsageBanner (banner.go) - Monthly usage warning with a progress bar.
StatusBar (statusbar.go) - Reply state and key hints.

# Overlays

ToastManager (toast.go) - Auto-dismissing notifications.
ConfirmDialog (dialog.go) - Yes/no confirmation, used before deleting.

All components take a *styles.Theme:

	theme := styles.NewTheme()
	sidebar := components.NewSidebar(theme)
	sidebar.SetSize(28, 20)
	sidebar.SetItems(items)
	view := sidebar.View()
*/
package components
