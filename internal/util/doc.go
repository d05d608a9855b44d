// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util holds file helpers shared by the config, session and export
// packages.
//
// AtomicWriteFile writes through a synced temporary file in the target
// directory and renames it into place, so readers see either the old file
// or the complete new one:
//
//	err := util.AtomicWriteFile(path, data, 0600, 0700)
package util
