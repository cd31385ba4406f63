// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"fmt"
	"strings"

	"carvel.dev/qrpm/pkg/filepos"
	"github.com/hashicorp/go-multierror"
)

type IllegalKeyError struct {
	Key      string
	Position *filepos.Position
}

func (e *IllegalKeyError) Error() string {
	return withPosition(fmt.Sprintf("Illegal key '%s'", e.Key), e.Position)
}

type IllegalFileAttributeError struct {
	Path     string
	Attrs    []string
	Position *filepos.Position
}

func (e *IllegalFileAttributeError) Error() string {
	return withPosition(fmt.Sprintf("Illegal file attribute(s) in '%s': %s",
		e.Path, strings.Join(e.Attrs, ", ")), e.Position)
}

type IllegalFileSpecError struct {
	Path     string
	Reason   string
	Position *filepos.Position
}

func (e *IllegalFileSpecError) Error() string {
	return withPosition(fmt.Sprintf("Illegal file '%s': %s", e.Path, e.Reason), e.Position)
}

type UndefinedVariableError struct {
	Path     string
	Name     string
	Position *filepos.Position
}

func (e *UndefinedVariableError) Error() string {
	return withPosition(fmt.Sprintf("Undefined variable '%s' in definition of '%s'", e.Name, e.Path), e.Position)
}

type IllegalReferenceError struct {
	Path     string
	Name     string
	Position *filepos.Position
}

func (e *IllegalReferenceError) Error() string {
	return withPosition(fmt.Sprintf("Can't reference non-variable '%s' in definition of '%s'", e.Name, e.Path), e.Position)
}

type MissingMandatoryFieldError struct {
	Fields []string
}

func (e *MissingMandatoryFieldError) Error() string {
	return fmt.Sprintf("Missing mandatory fields '%s'", strings.Join(e.Fields, "', '"))
}

type IllegalFieldTypeError struct {
	Field    string
	Expected string
	Actual   string
	Position *filepos.Position
}

func (e *IllegalFieldTypeError) Error() string {
	return withPosition(fmt.Sprintf("Illegal type of field '%s' (expected %s but was %s)",
		e.Field, e.Expected, e.Actual), e.Position)
}

type CyclicDefinitionError struct {
	// Cycle starts and ends with the same path
	Cycle []string
}

func (e *CyclicDefinitionError) Error() string {
	return fmt.Sprintf("Cyclic definition: %s", strings.Join(e.Cycle, " -> "))
}

// EvaluationError wraps failures to interpolate the entry at Path, such as
// fragment.CommandFailedError or fragment.DuplicateInterpolationError.
type EvaluationError struct {
	Path     string
	Err      error
	Position *filepos.Position
}

func (e *EvaluationError) Error() string {
	return withPosition(fmt.Sprintf("Evaluating '%s': %s", e.Path, e.Err), e.Position)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

func withPosition(msg string, pos *filepos.Position) string {
	if pos.IsKnown() {
		return msg + " (" + pos.AsCompactString() + ")"
	}
	return msg
}

// errorList collects independent violations so they can be reported at
// once.
type errorList struct {
	errs *multierror.Error
}

func (l *errorList) Add(err error) {
	l.errs = multierror.Append(l.errs, err)
	l.errs.ErrorFormat = formatErrors
}

func (l *errorList) AsError() error {
	return l.errs.ErrorOrNil()
}

func formatErrors(errs []error) string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	msgs := []string{fmt.Sprintf("%d errors occurred:", len(errs))}
	for _, err := range errs {
		msgs = append(msgs, "- "+err.Error())
	}
	return strings.Join(msgs, "\n")
}
