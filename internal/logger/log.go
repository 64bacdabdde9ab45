// SPDX-FileCopyrightText: The toolatlas authors
//
// SPDX-License-Identifier: MIT

// Package logger provides a thin wrapper around log/slog for the toolatlas service.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger is a type wrapper around the Go stdlib slog.Logger
type Logger struct {
	*slog.Logger
}

// New returns a new Logger that writes text-formatted log output to STDERR
func New(level slog.Level) *Logger {
	return NewLogger(level, os.Stderr)
}

// NewLogger returns a new Logger with the given log level writing to the given output
func NewLogger(level slog.Level, output io.Writer) *Logger {
	return &Logger{slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}))}
}

// Err returns a slog.Attr for the given error
func Err(err error) slog.Attr {
	return slog.Any("error", err)
}
