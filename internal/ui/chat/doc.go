// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the evo terminal UI: the login screen and the chat
screen, built on Bubble Tea.

# Model (model.go)

Model is the root tea.Model. It owns the widgets (sidebar, message viewport,
input, toasts, dialogs) and a conversation.Controller, which holds all
conversation state. Every message the model does not handle itself is
forwarded to the controller; after each update the model copies the
controller's state into its widgets (sync).

A new controller is created at every login. When the session ends (logout,
a 401 from the backend or a logout in another terminal) the controller is
torn down and the login screen is shown again.

# Files

  - keys.go: key bindings
  - login.go: the login form
  - update.go: message and key handling
  - view.go: layout and rendering
  - drafts.go: unsent input kept per conversation in the drafts database
  - export.go: writing the active conversation to a file
*/
package chat
