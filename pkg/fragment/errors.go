// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package fragment

import (
	"fmt"
	"strings"
)

type UndefinedVariableError struct {
	Name string
}

func (e *UndefinedVariableError) Error() string {
	return fmt.Sprintf("Undefined variable '%s'", e.Name)
}

type CommandFailedError struct {
	Command  string
	Stderr   string
	ExitCode int
	Err      error
}

func (e *CommandFailedError) Error() string {
	msg := fmt.Sprintf("Failed expanding '$(%s)': %s", e.Command, e.Err)
	if stderr := strings.TrimRight(e.Stderr, "\n"); len(stderr) > 0 {
		msg += "\n" + stderr
	}
	return msg
}

func (e *CommandFailedError) Unwrap() error { return e.Err }

type DuplicateInterpolationError struct {
	Source string
	Result string
}

func (e *DuplicateInterpolationError) Error() string {
	return fmt.Sprintf("Duplicate interpolation of '%s': %q", e.Source, e.Result)
}
