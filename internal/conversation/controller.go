// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"github.com/jeranaias/evo-tui/internal/api"
	"github.com/jeranaias/evo-tui/internal/export"
	"github.com/jeranaias/evo-tui/internal/model"
	"github.com/jeranaias/evo-tui/internal/reveal"
	"github.com/jeranaias/evo-tui/internal/session"
)

// Backend is the part of the API client the controller uses.
type Backend interface {
	ListConversations(ctx context.Context) ([]api.ConversationSummary, error)
	GetConversation(ctx context.Context, id string) (*api.ConversationDetail, error)
	CreateConversation(ctx context.Context) (*api.CreatedConversation, error)
	DeleteConversation(ctx context.Context, id string) error
	Ask(ctx context.Context, message, conversationID string) (*api.AskResponse, error)
	Usage(ctx context.Context) (*api.Usage, error)
	Me(ctx context.Context) (*api.Me, error)
}

// Validation errors, returned before any network call.
var (
	ErrEmptyMessage        = errors.New("message is empty")
	ErrLimitReached        = errors.New("monthly message limit reached")
	ErrBusy                = errors.New("a reply is still pending")
	ErrEmptyTitle          = errors.New("title must not be empty")
	ErrNoConversation      = errors.New("no conversation selected")
	ErrUnknownConversation = errors.New("conversation not found")
	ErrClosed              = errors.New("conversation view closed")
)

// Options tunes timing.
type Options struct {
	// RevealDelay is the pause between reveal steps. Zero shows replies at
	// once.
	RevealDelay time.Duration
	// UsageRefresh is the interval of the background usage poll. Zero
	// disables polling; Drive callers must disable it.
	UsageRefresh time.Duration
	// RecencyWindow keeps just-created conversations missing from a list
	// refresh.
	RecencyWindow time.Duration
	// RequestTimeout bounds each backend call. Zero leaves it to the client.
	RequestTimeout time.Duration
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns the standard timings.
func DefaultOptions() Options {
	return Options{
		RevealDelay:   30 * time.Millisecond,
		UsageRefresh:  30 * time.Second,
		RecencyWindow: 10 * time.Second,
	}
}

// pendingSend is a send whose backend calls have not resolved yet.
type pendingSend struct {
	id          uint64
	content     string
	conv        *model.Conversation
	user        *model.Message
	placeholder *model.Message
	// created is set when the conversation was created for this send.
	created bool
}

// activeReveal is the reveal task currently writing into a placeholder.
type activeReveal struct {
	task *reveal.Task
	conv *model.Conversation
	// user is the message the reply answers.
	user *model.Message
	msg  *model.Message
}

// controllerSeq numbers controllers so that results of a replaced one can be
// told apart.
var controllerSeq atomic.Uint64

// Controller owns the conversation list and the send flow.
type Controller struct {
	id      uint64
	backend Backend
	opts    Options

	conversations []*model.Conversation
	active        *model.Conversation

	usage    *api.Usage
	identity *api.Me

	send    *pendingSend
	reveal  *activeReveal
	sendSeq uint64

	usageGen     uint64
	loading      bool
	closed       bool
	sessionEnded bool

	notices []Notice
	draft   string
}

// New creates a controller over backend.
func New(backend Backend, opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		id:      controllerSeq.Add(1),
		backend: backend,
		opts:    opts,
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// Conversations returns the conversations in display order.
func (c *Controller) Conversations() []*model.Conversation {
	return c.conversations
}

// Active returns the active conversation, or nil.
func (c *Controller) Active() *model.Conversation {
	return c.active
}

// Streaming reports whether a reply is pending or still being revealed.
func (c *Controller) Streaming() bool {
	return c.send != nil || c.reveal != nil
}

// Waiting reports whether a reply is pending from the backend.
func (c *Controller) Waiting() bool {
	return c.send != nil
}

// Loading reports whether the conversation list is being fetched.
func (c *Controller) Loading() bool {
	return c.loading
}

// Usage returns the last usage snapshot, or nil before the first fetch.
func (c *Controller) Usage() *api.Usage {
	return c.usage
}

// Identity returns the logged-in user, or nil before it was fetched.
func (c *Controller) Identity() *api.Me {
	return c.identity
}

// SessionEnded reports whether a backend call found the session invalid.
func (c *Controller) SessionEnded() bool {
	return c.sessionEnded
}

// TakeDraft returns the text of the last rolled-back send, once.
func (c *Controller) TakeDraft() (string, bool) {
	d := c.draft
	c.draft = ""
	return d, d != ""
}

// Find returns the conversation matching key by local or server id.
func (c *Controller) Find(key string) *model.Conversation {
	for _, conv := range c.conversations {
		if conv.ID.Matches(key) {
			return conv
		}
	}
	return nil
}

func (c *Controller) contains(conv *model.Conversation) bool {
	for _, x := range c.conversations {
		if x == conv {
			return true
		}
	}
	return false
}

func (c *Controller) remove(conv *model.Conversation) {
	kept := make([]*model.Conversation, 0, len(c.conversations))
	for _, x := range c.conversations {
		if x != conv {
			kept = append(kept, x)
		}
	}
	c.conversations = kept
	if c.active == conv {
		c.active = nil
	}
}

func (c *Controller) prepend(conv *model.Conversation) {
	c.conversations = append([]*model.Conversation{conv}, c.conversations...)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Init loads the conversation list, the usage snapshot and the identity,
// and starts the periodic usage refresh.
func (c *Controller) Init() tea.Cmd {
	if c.closed {
		return nil
	}
	c.loading = true
	c.usageGen++
	return tea.Batch(
		c.loadConversations(false),
		c.loadUsage(),
		c.loadIdentity(),
		c.scheduleUsage(),
	)
}

// Refresh reloads the conversation list, keeping the active conversation's
// local history.
func (c *Controller) Refresh() tea.Cmd {
	if c.closed {
		return nil
	}
	c.loading = true
	return c.loadConversations(true)
}

// Teardown cancels the reveal and stops the usage refresh. Results that
// arrive afterwards are ignored.
func (c *Controller) Teardown() {
	if c.reveal != nil {
		c.reveal.task.Cancel()
		c.reveal = nil
	}
	c.send = nil
	c.usageGen++
	c.closed = true
}

// Closed reports whether Teardown was called.
func (c *Controller) Closed() bool {
	return c.closed
}

// =============================================================================
// UPDATE
// =============================================================================

// Update applies a message produced by one of the controller's commands.
// Messages of other types or owned by another controller are ignored.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	if c.closed || !c.owns(msg) {
		return nil
	}
	switch msg := msg.(type) {
	case ConversationsLoadedMsg:
		return c.handleListLoaded(msg)
	case ConversationLoadedMsg:
		return c.handleConversationLoaded(msg)
	case ConversationCreatedMsg:
		return c.handleCreated(msg)
	case ConversationDeletedMsg:
		return c.handleDeleted(msg)
	case TitleRefreshedMsg:
		return c.handleTitleRefreshed(msg)
	case AskDoneMsg:
		return c.handleAskDone(msg)
	case RevealTickMsg:
		return c.handleRevealTick(msg)
	case UsageLoadedMsg:
		return c.handleUsageLoaded(msg)
	case UsageTickMsg:
		return c.handleUsageTick(msg)
	case IdentityLoadedMsg:
		return c.handleIdentityLoaded(msg)
	}
	return nil
}

// owns reports whether msg came from one of c's commands.
func (c *Controller) owns(msg tea.Msg) bool {
	var owner uint64
	switch msg := msg.(type) {
	case ConversationsLoadedMsg:
		owner = msg.Owner
	case ConversationLoadedMsg:
		owner = msg.Owner
	case ConversationCreatedMsg:
		owner = msg.Owner
	case ConversationDeletedMsg:
		owner = msg.Owner
	case TitleRefreshedMsg:
		owner = msg.Owner
	case AskDoneMsg:
		owner = msg.Owner
	case UsageLoadedMsg:
		owner = msg.Owner
	case UsageTickMsg:
		owner = msg.Owner
	case IdentityLoadedMsg:
		owner = msg.Owner
	default:
		return true
	}
	if owner != c.id {
		log.WithFields(log.Fields{"owner": owner, "controller": c.id}).Debug("dropping result of another controller")
		return false
	}
	return true
}

// failed handles a backend error common to all operations. It returns true
// when the error ended the session, in which case no further notice should
// be shown.
func (c *Controller) failed(err error) bool {
	if errors.Is(err, api.ErrUnauthorized) || errors.Is(err, session.ErrNoSession) {
		if !c.sessionEnded {
			c.sessionEnded = true
			c.notify(NoticeError, session.ReasonUnauthorized.Message())
		}
		return true
	}
	return false
}

// ctx returns the context for one backend call.
func (c *Controller) ctx() (context.Context, context.CancelFunc) {
	if c.opts.RequestTimeout > 0 {
		return context.WithTimeout(context.Background(), c.opts.RequestTimeout)
	}
	return context.WithCancel(context.Background())
}

// =============================================================================
// EXPORT
// =============================================================================

// Snapshot returns a copy of the active conversation without a reply that
// is still pending or being revealed. The copy is safe to hand to another goroutine.
func (c *Controller) Snapshot() (*model.Conversation, error) {
	if c.active == nil {
		return nil, ErrNoConversation
	}
	snapshot := c.active.Clone()
	kept := snapshot.Messages[:0]
	for _, m := range snapshot.Messages {
		if !m.IsPlaceholder() && !m.Pending {
			kept = append(kept, m)
		}
	}
	snapshot.Messages = kept
	return snapshot, nil
}

// Export renders the active conversation with exp.
func (c *Controller) Export(exp export.Exporter) ([]byte, error) {
	snapshot, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	log.WithField("conversation", snapshot.ID.String()).Debug("exporting conversation")
	return exp.Export(snapshot)
}
