// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
)

// =============================================================================
// SHARED HELPER FUNCTIONS
// =============================================================================

// fmtNumber formats a number with thousand separators.
func fmtNumber(n int) string {
	if n < 0 {
		return "-" + fmtNumber(-n)
	}
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}

	var sb strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}

// fmtPercent formats a percentage, dropping the decimal for whole values:
// 75 -> "75%", 92.5 -> "92.5%".
func fmtPercent(p float64) string {
	if p == float64(int(p)) {
		return strconv.Itoa(int(p)) + "%"
	}
	return strconv.FormatFloat(p, 'f', 1, 64) + "%"
}

// truncate shortens s to at most width terminal cells, adding "..." when
// anything was cut. Wide runes count as two cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// padRight pads s with spaces to exactly width cells.
func padRight(s string, width int) string {
	return runewidth.FillRight(truncate(s, width), width)
}

// wordWrap wraps text at word boundaries so that no line exceeds width
// cells. Words longer than a line are hard-broken. Existing newlines are kept.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}

	var result strings.Builder
	for i, line := range strings.Split(text, "\n") {
		if i > 0 {
			result.WriteByte('\n')
		}
		lineWidth := 0
		for j, word := range strings.Fields(line) {
			w := runewidth.StringWidth(word)
			for w > width {
				if lineWidth > 0 {
					result.WriteByte('\n')
					lineWidth = 0
				}
				head := runewidth.Truncate(word, width, "")
				if head == "" {
					_, size := utf8.DecodeRuneInString(word)
					head = word[:size]
				}
				result.WriteString(head)
				result.WriteByte('\n')
				word = word[len(head):]
				w = runewidth.StringWidth(word)
			}
			switch {
			case j == 0 || lineWidth == 0:
			case lineWidth+1+w > width:
				result.WriteByte('\n')
				lineWidth = 0
			default:
				result.WriteByte(' ')
				lineWidth++
			}
			result.WriteString(word)
			lineWidth += w
		}
	}
	return result.String()
}

// relativeTime renders t relative to now the way the sidebar shows it.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return strconv.Itoa(int(d/time.Minute)) + "m"
	case d < 24*time.Hour:
		return strconv.Itoa(int(d/time.Hour)) + "h"
	case d < 7*24*time.Hour:
		return strconv.Itoa(int(d/(24*time.Hour))) + "d"
	case t.Year() == now.Year():
		return t.Format("Jan 2")
	default:
		return t.Format("Jan 2 2006")
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
