// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/jeranaias/evo-tui/internal/export"
)

// formatFlag is an export format checked while the flags are parsed.
type formatFlag struct {
	value string
}

var _ pflag.Value = (*formatFlag)(nil)

func (f *formatFlag) String() string { return f.value }

func (f *formatFlag) Set(s string) error {
	if _, err := export.ForFormat(s, nil); err != nil {
		return err
	}
	f.value = strings.ToLower(strings.TrimSpace(s))
	return nil
}

func (f *formatFlag) Type() string { return "format" }

// addFormatFlag registers --format/-f on fs.
func addFormatFlag(fs *pflag.FlagSet, f *formatFlag) {
	fs.VarP(f, "format", "f", "Export format: "+strings.Join(export.Formats(), ", ")+" (default export.format)")
}
