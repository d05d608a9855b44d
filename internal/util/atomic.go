// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// AtomicWriteFile writes data to path with permissions perm. Missing parent
// directories are created with dirPerm.
//
// The data goes to a temporary file in the same directory, is synced, and
// is then renamed over path. On failure the temporary file is removed and
// path is left untouched.
func AtomicWriteFile(path string, data []byte, perm, dirPerm os.FileMode) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "resolve path")
	}
	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return errors.Wrap(err, "create parent directory")
	}

	// Same directory, so the rename stays on one filesystem.
	f, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(absPath)+"-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tempPath := f.Name()

	success := false
	defer func() {
		if !success {
			f.Close()
			os.Remove(tempPath)
		}
	}()

	// Chmod before writing so a secret is never readable by others.
	if err := f.Chmod(perm); err != nil {
		return errors.Wrap(err, "set file permissions")
	}
	if _, err := f.Write(data); err != nil {
		return errors.Wrap(err, "write data")
	}
	if err := f.Sync(); err != nil {
		return errors.Wrap(err, "sync data to disk")
	}
	// Close before rename; Windows refuses to rename open files.
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tempPath, absPath); err != nil {
		return errors.Wrap(err, "rename temp file")
	}

	success = true
	return nil
}
