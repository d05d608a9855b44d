// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

// NoticeKind classifies a user-facing notification.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
	// NoticeLimit is shown when the monthly message limit stops a send.
	NoticeLimit
)

// String returns the kind name.
func (k NoticeKind) String() string {
	switch k {
	case NoticeSuccess:
		return "success"
	case NoticeWarning:
		return "warning"
	case NoticeError:
		return "error"
	case NoticeLimit:
		return "limit"
	default:
		return "info"
	}
}

// Notice is a transient notification for the view to display.
type Notice struct {
	Kind NoticeKind
	Text string
}

// User-facing texts.
const (
	limitText        = "You've reached your monthly message limit. Upgrade your plan or wait until next month."
	busyText         = "Please wait for the current reply to finish."
	sendFailedText   = "Failed to send message"
	createFailedText = "Failed to create conversation"
	newChatFailed    = "Failed to create new conversation"
	loadListFailed   = "Failed to load conversations"
	loadConvFailed   = "Failed to load conversation"
	deleteFailedText = "Failed to delete conversation"
	deletedText      = "Conversation deleted"

	// NoResponseText replaces an empty reply.
	NoResponseText = "No response received."
)

func (c *Controller) notify(kind NoticeKind, text string) {
	c.notices = append(c.notices, Notice{Kind: kind, Text: text})
}

// TakeNotices returns and clears the pending notices.
func (c *Controller) TakeNotices() []Notice {
	out := c.notices
	c.notices = nil
	return out
}

// Notices returns the pending notices without clearing them.
func (c *Controller) Notices() []Notice {
	return append([]Notice(nil), c.notices...)
}
