// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"
)

// =============================================================================
// HELPER FUNCTION TESTS
// =============================================================================

func TestFmtNumber(t *testing.T) {
	tests := []struct {
		input int
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{1234567, "1,234,567"},
		{-1500, "-1,500"},
	}
	for _, tc := range tests {
		if got := fmtNumber(tc.input); got != tc.want {
			t.Errorf("fmtNumber(%d) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestFmtPercent(t *testing.T) {
	tests := []struct {
		input float64
		want  string
	}{
		{0, "0%"},
		{75, "75%"},
		{92.5, "92.5%"},
		{100, "100%"},
	}
	for _, tc := range tests {
		if got := fmtPercent(tc.input); got != tc.want {
			t.Errorf("fmtPercent(%v) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 0, ""},
		{"hello", 2, "he"},
		{"日本語テキスト", 7, "日本..."},
	}
	for _, tc := range tests {
		got := truncate(tc.input, tc.width)
		if got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.input, tc.width, got, tc.want)
		}
		if runewidth.StringWidth(got) > tc.width {
			t.Errorf("truncate(%q, %d) is %d cells wide", tc.input, tc.width, runewidth.StringWidth(got))
		}
	}
}

func TestPadRight(t *testing.T) {
	if got := padRight("ab", 5); got != "ab   " {
		t.Errorf("padRight = %q", got)
	}
	if got := runewidth.StringWidth(padRight("a much longer string", 6)); got != 6 {
		t.Errorf("padRight width = %d, want 6", got)
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"fits", "short text", 20, "short text"},
		{"breaks at words", "the quick brown fox", 10, "the quick\nbrown fox"},
		{"keeps newlines", "a\nb c", 10, "a\nb c"},
		{"hard breaks long words", "abcdefghij", 4, "abcd\nefgh\nij"},
		{"zero width", "unchanged", 0, "unchanged"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := wordWrap(tc.input, tc.width)
			if got != tc.want {
				t.Errorf("wordWrap(%q, %d) = %q, want %q", tc.input, tc.width, got, tc.want)
			}
			if tc.width == 0 {
				return
			}
			for _, line := range strings.Split(got, "\n") {
				if runewidth.StringWidth(line) > tc.width {
					t.Errorf("line %q exceeds %d cells", line, tc.width)
				}
			}
		})
	}
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		at   time.Time
		want string
	}{
		{time.Time{}, ""},
		{now.Add(-10 * time.Second), "now"},
		{now.Add(-5 * time.Minute), "5m"},
		{now.Add(-3 * time.Hour), "3h"},
		{now.Add(-2 * 24 * time.Hour), "2d"},
		{time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), "Jan 2"},
		{time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), "Jan 2 2024"},
	}
	for _, tc := range tests {
		if got := relativeTime(tc.at, now); got != tc.want {
			t.Errorf("relativeTime(%v) = %q, want %q", tc.at, got, tc.want)
		}
	}
}
