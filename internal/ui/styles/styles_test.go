// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
	"time"
)

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		width   int
		percent float64
		want    string
	}{
		{10, 0, "----------"},
		{10, 100, "##########"},
		{10, 150, "##########"},
		{10, -5, "----------"},
		{10, 50, "#####-----"},
		{4, 60, "##.-"},
		{0, 50, ""},
	}
	for _, tt := range tests {
		got := RenderProgressBar(tt.width, tt.percent)
		if got != tt.want {
			t.Errorf("RenderProgressBar(%d, %v) = %q, want %q", tt.width, tt.percent, got, tt.want)
		}
		if tt.width > 0 && len(got) != tt.width {
			t.Errorf("RenderProgressBar(%d, %v) has length %d", tt.width, tt.percent, len(got))
		}
	}
}

func TestSpinnerConfig(t *testing.T) {
	if got := DotsSpinner.Duration(); got != time.Second/6 {
		t.Errorf("DotsSpinner.Duration() = %v", got)
	}
	if got := (SpinnerConfig{}).Duration(); got != time.Second {
		t.Errorf("zero FPS should fall back to one frame per second, got %v", got)
	}
	s := LineSpinner.Bubbles()
	if len(s.Frames) != 4 || s.FPS != time.Second/10 {
		t.Errorf("Bubbles() = %+v", s)
	}
}

func TestStatusRenderers(t *testing.T) {
	tests := []struct {
		render func(string) string
		prefix string
	}{
		{RenderSuccess, StatusIndicators.Success},
		{RenderError, StatusIndicators.Error},
		{RenderWarning, StatusIndicators.Warning},
		{RenderInfo, StatusIndicators.Info},
	}
	for _, tt := range tests {
		out := tt.render("saved")
		if !strings.Contains(out, tt.prefix) || !strings.Contains(out, "saved") {
			t.Errorf("render output %q lacks %q", out, tt.prefix)
		}
	}
}

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}
	for name, out := range map[string]string{
		"UserBubble":      theme.UserBubble.Render("hi"),
		"AssistantBubble": theme.AssistantBubble.Render("hi"),
		"Sidebar":         theme.Sidebar.Render("hi"),
		"BannerReached":   theme.BannerReached.Render("hi"),
		"LoginBox":        theme.LoginBox.Render("hi"),
	} {
		if !strings.Contains(out, "hi") {
			t.Errorf("%s did not render its content: %q", name, out)
		}
	}
}
