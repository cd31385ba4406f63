// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package filepos

import (
	"strings"
)

// Index maps entry paths (eg. "pkg.home" or "require[1]") to the position
// of the YAML node they were declared at.
type Index struct {
	positions map[string]*Position
}

func NewIndex() *Index {
	return &Index{positions: map[string]*Position{}}
}

func (i *Index) Set(path string, pos *Position) {
	i.positions[path] = pos
}

// Lookup returns the position of path. A path that was not recorded falls
// back to its closest recorded ancestor.
func (i *Index) Lookup(path string) *Position {
	if i == nil {
		return NewUnknownPosition()
	}
	for path != "" {
		if pos, found := i.positions[path]; found {
			return pos
		}
		cut := strings.LastIndexAny(path, ".[")
		if cut <= 0 {
			break
		}
		path = path[:cut]
	}
	return NewUnknownPosition()
}

func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.positions)
}
