// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jeranaias/evo-tui/internal/api"
)

// fakeBackend is an in-memory Backend with per-operation failure hooks.
type fakeBackend struct {
	mu sync.Mutex

	convs  []api.ConversationDetail
	nextID int
	usage  api.Usage
	reply  func(message string) string
	calls  map[string]int

	createErr error
	askErr    error
	listErr   error
	getErr    error
	deleteErr error
	usageErr  error

	// askConversationID, when set, is returned instead of the requested id.
	askConversationID string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		nextID: 100,
		usage:  api.Usage{MessagesUsed: 1, MessagesLimit: 100, PercentUsed: 1},
		reply:  func(m string) string { return "Echo: " + m },
		calls:  map[string]int{},
	}
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, v := range f.calls {
		n += v
	}
	return n
}

func (f *fakeBackend) hit(op string) {
	f.mu.Lock()
	f.calls[op]++
	f.mu.Unlock()
}

func (f *fakeBackend) find(id string) *api.ConversationDetail {
	for i := range f.convs {
		if f.convs[i].ID.String() == id {
			return &f.convs[i]
		}
	}
	return nil
}

func (f *fakeBackend) addConversation(title string, updated time.Time) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := strconv.Itoa(f.nextID)
	f.convs = append([]api.ConversationDetail{{
		ID:        api.FlexID(id),
		Title:     title,
		CreatedAt: api.Time{Time: updated},
		UpdatedAt: api.Time{Time: updated},
	}}, f.convs...)
	return id
}

func (f *fakeBackend) ListConversations(context.Context) ([]api.ConversationSummary, error) {
	f.hit("list")
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]api.ConversationSummary, 0, len(f.convs))
	for _, c := range f.convs {
		out = append(out, api.ConversationSummary{ID: c.ID, Title: c.Title, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt})
	}
	return out, nil
}

func (f *fakeBackend) GetConversation(_ context.Context, id string) (*api.ConversationDetail, error) {
	f.hit("get")
	if f.getErr != nil {
		return nil, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.find(id)
	if c == nil {
		return nil, api.ErrNotFound
	}
	detail := *c
	detail.Messages = append([]api.Message(nil), c.Messages...)
	return &detail, nil
}

func (f *fakeBackend) CreateConversation(context.Context) (*api.CreatedConversation, error) {
	f.hit("create")
	if f.createErr != nil {
		return nil, f.createErr
	}
	id := f.addConversation("", time.Now())
	return &api.CreatedConversation{ID: api.FlexID(id), CreatedAt: api.Time{Time: time.Now()}}, nil
}

func (f *fakeBackend) DeleteConversation(_ context.Context, id string) error {
	f.hit("delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.convs {
		if f.convs[i].ID.String() == id {
			f.convs = append(f.convs[:i], f.convs[i+1:]...)
			return nil
		}
	}
	return api.ErrNotFound
}

func (f *fakeBackend) Ask(_ context.Context, message, conversationID string) (*api.AskResponse, error) {
	f.hit("ask")
	if f.askErr != nil {
		return nil, f.askErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	reply := f.reply(message)
	if c := f.find(conversationID); c != nil {
		if c.Title == "" {
			c.Title = "Server: " + message
		}
		c.Messages = append(c.Messages,
			api.Message{ID: api.FlexID(strconv.Itoa(len(c.Messages) + 1)), Role: "USER", Content: message},
			api.Message{ID: api.FlexID(strconv.Itoa(len(c.Messages) + 2)), Role: "ASSISTANT", Content: reply},
		)
	}
	id := conversationID
	if f.askConversationID != "" {
		id = f.askConversationID
	}
	return &api.AskResponse{Reply: reply, ConversationID: api.FlexID(id)}, nil
}

func (f *fakeBackend) Usage(context.Context) (*api.Usage, error) {
	f.hit("usage")
	if f.usageErr != nil {
		return nil, f.usageErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.usage
	return &u, nil
}

func (f *fakeBackend) Me(context.Context) (*api.Me, error) {
	f.hit("me")
	return &api.Me{Role: api.RoleEmployee, FullName: "Ana Lima", Email: "ana@acme.test"}, nil
}
