// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// =============================================================================
// TOKEN FILE WATCHER
// =============================================================================

// Change describes what happened to the token file.
type Change int

const (
	// ChangeLoggedOut means the token file disappeared.
	ChangeLoggedOut Change = iota
	// ChangeLoggedIn means a new token was written.
	ChangeLoggedIn
)

// Watcher follows the token file so that a login or logout in another
// terminal is reflected in this session.
type Watcher struct {
	sess    *Session
	store   *Store
	watcher *fsnotify.Watcher
	changes chan Change
}

// NewWatcher creates a watcher for the store's token file.
func NewWatcher(sess *Session, store *Store) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create token watcher")
	}
	// Watch the directory: the file itself is replaced on every save.
	if err := w.Add(filepath.Dir(store.Path())); err != nil {
		w.Close()
		return nil, errors.Wrap(err, "watch session directory")
	}
	return &Watcher{
		sess:    sess,
		store:   store,
		watcher: w,
		changes: make(chan Change, 4),
	}, nil
}

// Changes delivers token file changes after they were applied to the session.
func (w *Watcher) Changes() <-chan Change {
	return w.changes
}

// Run processes events until ctx is done. It closes the change channel on exit.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.changes)
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.store.Path()) {
				continue
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.WithError(err).Warn("token watcher error")
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	token, err := w.store.Load()
	if err != nil {
		log.WithError(err).Warn("token watcher could not read token")
		return
	}

	current, _ := w.sess.Token()
	switch {
	case token == "" && current != "":
		w.sess.End(ReasonExternal)
		w.emit(ChangeLoggedOut)
	case token != "" && token != current:
		w.sess.adopt(token)
		w.emit(ChangeLoggedIn)
	default:
		log.WithField("op", event.Op.String()).Debug("token file event without session change")
	}
}

func (w *Watcher) emit(c Change) {
	select {
	case w.changes <- c:
	default:
		log.Debug("token change dropped; receiver is behind")
	}
}
