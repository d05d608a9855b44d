// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package reveal

import (
	"unicode/utf8"
)

// ShortWordLen is the length, in runes, below which a following word is
// absorbed into the current chunk.
const ShortWordLen = 15

// isBreak reports whether b separates words. All breaks are ASCII, so any
// offset next to one is a valid rune boundary.
func isBreak(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}

// skipBreaks returns the first offset at or after i that is not a break.
func skipBreaks(text string, i int) int {
	for i < len(text) && isBreak(text[i]) {
		i++
	}
	return i
}

// wordEnd returns the offset of the first break at or after i, or len(text).
func wordEnd(text string, i int) int {
	for i < len(text) && !isBreak(text[i]) {
		i++
	}
	return i
}

// NextBoundary returns the end offset of the next chunk to reveal after
// cursor. Leading whitespace is skipped, the chunk extends to the next word
// break, and one more word is absorbed when both the chunk and that word are
// short. With no further break the boundary is len(text).
//
// For cursor < len(text) the result is always greater than cursor.
func NextBoundary(text string, cursor int) int {
	n := len(text)
	if cursor >= n {
		return n
	}
	if cursor < 0 {
		cursor = 0
	}

	start := skipBreaks(text, cursor)
	if start >= n {
		return n
	}
	end := wordEnd(text, start)
	if end >= n {
		return n
	}

	next := skipBreaks(text, end)
	if next >= n {
		return n
	}
	nextEnd := wordEnd(text, next)
	if utf8.RuneCountInString(text[start:end]) < ShortWordLen &&
		utf8.RuneCountInString(text[next:nextEnd]) < ShortWordLen {
		return nextEnd
	}
	return end
}
