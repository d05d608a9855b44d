// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures the process-wide logrus logger.
//
// The terminal UI owns stdout and stderr, so interactive sessions log to a
// file (~/.evo/evo.log by default). One-shot commands may log to stderr.
package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// TimestampFormat adds millisecond precision to log timestamps.
const TimestampFormat = "2006-01-02T15:04:05.999Z07:00"

// Options selects the level and destination.
type Options struct {
	Level string
	// File receives the log. Empty means Output is used.
	File string
	// Output is used when File is empty. Defaults to os.Stderr.
	Output io.Writer
}

// Setup applies opts to the standard logrus logger. The returned closer
// releases the log file, if one was opened.
func Setup(opts Options) (io.Closer, error) {
	level := log.InfoLevel
	if opts.Level != "" {
		parsed, err := log.ParseLevel(opts.Level)
		if err != nil {
			return nopCloser{}, errors.Wrap(err, "cannot parse log-level")
		}
		level = parsed
	}
	log.SetLevel(level)

	formatter := new(log.TextFormatter)
	formatter.TimestampFormat = TimestampFormat
	formatter.FullTimestamp = true

	var closer io.Closer = nopCloser{}
	switch {
	case opts.File != "":
		if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
			return closer, errors.Wrapf(err, "create log directory for %s", opts.File)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return closer, errors.Wrapf(err, "open log file %s", opts.File)
		}
		formatter.DisableColors = true
		log.SetOutput(f)
		closer = f
	case opts.Output != nil:
		log.SetOutput(opts.Output)
	default:
		log.SetOutput(os.Stderr)
	}
	log.SetFormatter(formatter)
	log.Debug("debug logging enabled")
	return closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
