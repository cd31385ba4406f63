// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

type TTY struct {
	debug  bool
	stdout io.Writer
	stderr io.Writer
	logger hclog.Logger
}

var _ UI = TTY{}

func NewTTY(debug bool) TTY {
	return NewCustomWriterTTY(debug, os.Stdout, os.Stderr)
}

// NewCustomWriterTTY is used for testing whether TTY writes correct output
// to stdout/stderr
func NewCustomWriterTTY(debug bool, stdout, stderr io.Writer) TTY {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	t := TTY{debug: debug, stdout: stdout, stderr: stderr}
	t.logger = newLogger(debug, t.DebugWriter())
	return t
}

func (t TTY) Printf(str string, args ...interface{}) {
	fmt.Fprintf(t.stdout, str, args...)
}

func (t TTY) Warnf(str string, args ...interface{}) {
	fmt.Fprintf(t.stderr, str, args...)
}

func (t TTY) Debugf(str string, args ...interface{}) {
	if t.debug {
		fmt.Fprintf(t.stderr, str, args...)
	}
}

func (t TTY) DebugWriter() io.Writer {
	if t.debug {
		return t.stderr
	}
	return noopWriter{}
}

func (t TTY) Logger() hclog.Logger { return t.logger }

func newLogger(debug bool, out io.Writer) hclog.Logger {
	if !debug {
		return hclog.NewNullLogger()
	}
	level := hclog.Debug
	if os.Getenv("QRPM_TRACE") != "" {
		level = hclog.Trace
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:   "qrpm",
		Level:  level,
		Output: out,
	})
}

type noopWriter struct{}

var _ io.Writer = noopWriter{}

func (w noopWriter) Write(data []byte) (int, error) { return len(data), nil }
