// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// conversationPath returns the path of a single conversation.
func conversationPath(id string) string {
	return "/chat/conversations/" + url.PathEscape(id)
}

// ListConversations returns the user's conversations, newest first as
// ordered by the backend.
func (c *Client) ListConversations(ctx context.Context) ([]ConversationSummary, error) {
	var out []ConversationSummary
	if err := c.get(ctx, "/chat/conversations", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetConversation returns a conversation with its messages.
func (c *Client) GetConversation(ctx context.Context, id string) (*ConversationDetail, error) {
	if id == "" {
		return nil, errors.New("conversation id is required")
	}
	var out ConversationDetail
	if err := c.get(ctx, conversationPath(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateConversation creates an empty conversation.
func (c *Client) CreateConversation(ctx context.Context) (*CreatedConversation, error) {
	var out CreatedConversation
	if err := c.post(ctx, "/chat/conversations", struct{}{}, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, errors.New("backend returned a conversation without id")
	}
	return &out, nil
}

// DeleteConversation deletes a conversation.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("conversation id is required")
	}
	return c.do(ctx, http.MethodDelete, conversationPath(id), nil, nil, true)
}

// Ask sends a message and returns the assistant reply. An empty
// conversationID asks the backend to start a new conversation.
func (c *Client) Ask(ctx context.Context, message, conversationID string) (*AskResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.New("message is required")
	}
	req := AskRequest{
		Message:        message,
		ConversationID: wireID(conversationID),
	}
	var out AskResponse
	if err := c.post(ctx, "/chat/ask", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Usage returns the user's monthly usage snapshot.
func (c *Client) Usage(ctx context.Context) (*Usage, error) {
	var out Usage
	if err := c.get(ctx, "/chat/usage", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
