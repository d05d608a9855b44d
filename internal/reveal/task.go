// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"sync/atomic"
)

// taskSeq hands out task ids. Ids never repeat within a process, so a tick
// scheduled for a replaced task can always be told apart from the current one.
var taskSeq atomic.Uint64

// Task is a cancellable, step-driven reveal of one reply.
type Task struct {
	id        uint64
	text      string
	cursor    int
	finished  bool
	cancelled bool
}

// NewTask creates a reveal task over text.
func NewTask(text string) *Task {
	return &Task{
		id:   taskSeq.Add(1),
		text: text,
	}
}

// ID returns the task's unique id.
func (t *Task) ID() uint64 {
	return t.id
}

// Text returns the full text being revealed.
func (t *Task) Text() string {
	return t.text
}

// Cursor returns the current reveal offset.
func (t *Task) Cursor() int {
	return t.cursor
}

// Step advances the reveal and returns the content to display.
//
// While the cursor is short of the end each call returns a longer prefix and
// done is false. Once the cursor reached the end the next call writes the
// full text one final time and reports done. After Cancel, or after done was
// reported, ok is false and nothing must be written.
func (t *Task) Step() (content string, done bool, ok bool) {
	if t.cancelled || t.finished {
		return "", true, false
	}
	if t.cursor >= len(t.text) {
		t.finished = true
		return t.text, true, true
	}
	t.cursor = NextBoundary(t.text, t.cursor)
	return t.text[:t.cursor], false, true
}

// Cancel stops the task. Safe to call more than once.
func (t *Task) Cancel() {
	t.cancelled = true
}

// Cancelled reports whether Cancel was called.
func (t *Task) Cancelled() bool {
	return t.cancelled
}

// Active reports whether the task still has steps to run.
func (t *Task) Active() bool {
	return !t.cancelled && !t.finished
}
