// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// RequireConfirmation asks before a destructive action unless confirmed is
// already set (--yes). Without a terminal on in it refuses rather than
// blocking.
func RequireConfirmation(confirmed bool, action string, in io.Reader, out io.Writer, tty bool) (bool, error) {
	if confirmed {
		return true, nil
	}
	if !tty {
		return false, &TTYRequiredError{Operation: "confirm " + action + " (use --yes)"}
	}
	return PromptYesNo(in, out, action+"?"), nil
}

// PromptYesNo asks question and returns true for y or yes.
func PromptYesNo(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && input == "" {
		return false
	}
	response := strings.ToLower(strings.TrimSpace(input))
	return response == "y" || response == "yes"
}
