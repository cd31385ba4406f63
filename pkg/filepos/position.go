// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package filepos

import (
	"fmt"
)

// Position is a location in a description file. Lines and columns are 1
// based; zero means unknown.
type Position struct {
	file   string
	line   int
	column int
}

// NewPositionInFile returns the position of line within file.
func NewPositionInFile(line int, file string) *Position {
	if line <= 0 {
		panic("Lines are 1 based")
	}
	return &Position{file: file, line: line}
}

// NewUnknownPosition is a position nothing is known about.
func NewUnknownPosition() *Position { return &Position{} }

// NewUnknownPositionInFile is a position in file at an unknown line.
func NewUnknownPositionInFile(file string) *Position { return &Position{file: file} }

// WithColumn returns a copy of p at col.
func (p *Position) WithColumn(col int) *Position {
	newPos := *p
	newPos.column = col
	return &newPos
}

func (p *Position) IsKnown() bool { return p != nil && p.line > 0 }

func (p *Position) File() string {
	if p == nil {
		return ""
	}
	return p.file
}

func (p *Position) Line() int {
	if p == nil {
		return 0
	}
	return p.line
}

func (p *Position) Column() int {
	if p == nil {
		return 0
	}
	return p.column
}

// AsString is used in sentences, eg. "defined on line qrpm.yml:3".
func (p *Position) AsString() string {
	return "line " + p.AsCompactString()
}

// AsCompactString formats p as "file:line", "file:?" or "?".
func (p *Position) AsCompactString() string {
	line := "?"
	if p.IsKnown() {
		line = fmt.Sprintf("%d", p.line)
	}
	if file := p.File(); len(file) > 0 {
		return file + ":" + line
	}
	return line
}
