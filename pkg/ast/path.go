// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package ast

import (
	"fmt"
	"strconv"
	"strings"

	"carvel.dev/qrpm/pkg/fragment"
	"carvel.dev/qrpm/pkg/orderedmap"
)

// ChildPath is the path of member key of the entry at parentPath.
func ChildPath(parentPath, key string) string {
	if parentPath == "" {
		return key
	}
	return parentPath + "." + key
}

// IndexPath is the path of element i of the list at parentPath.
func IndexPath(parentPath string, i int) string {
	return fmt.Sprintf("%s[%d]", parentPath, i)
}

// Dot looks up a path such as "pkg.dirs[1].name" starting at root. Paths of
// directories are not supported since their keys are expressions.
func Dot(root *Map, path string) (Entry, error) {
	var curr Entry = root
	rest := path

	for len(rest) > 0 {
		switch {
		case rest[0] == '[':
			closing := strings.IndexByte(rest, ']')
			if closing < 0 {
				return nil, fmt.Errorf("Illegal path '%s'", path)
			}
			idx, err := strconv.Atoi(rest[1:closing])
			if err != nil || idx < 0 {
				return nil, fmt.Errorf("Illegal index '%s' in '%s'", rest[1:closing], path)
			}
			list, ok := curr.(*List)
			if !ok {
				return nil, fmt.Errorf("Expected '%s' to be a list in '%s'", curr.Path(), path)
			}
			if idx >= len(list.Elements) {
				return nil, fmt.Errorf("Index %d out of range in '%s'", idx, path)
			}
			curr = list.Elements[idx]
			rest = rest[closing+1:]

		default:
			if curr != Entry(root) {
				if rest[0] != '.' {
					return nil, fmt.Errorf("Illegal path '%s'", path)
				}
				rest = rest[1:]
			}
			end := strings.IndexAny(rest, ".[")
			if end < 0 {
				end = len(rest)
			}
			member := rest[:end]
			if !fragment.IsPath(member) {
				return nil, fmt.Errorf("Illegal member '%s' in '%s'", member, path)
			}
			hash, ok := curr.(*Map)
			if !ok {
				return nil, fmt.Errorf("Expected '%s' to be a map in '%s'", curr.Path(), path)
			}
			next, found := hash.Get(member)
			if !found {
				return nil, fmt.Errorf("Unknown member '%s' in '%s'", member, path)
			}
			curr = next
			rest = rest[end:]
		}
	}
	return curr, nil
}

// Traverse visits entry and all of its descendants depth first, parents
// before children.
func Traverse(entry Entry, visitFunc func(Entry)) {
	visitFunc(entry)
	for _, child := range Children(entry) {
		Traverse(child, visitFunc)
	}
}

// Children returns the direct descendants of entry.
func Children(entry Entry) []Entry {
	switch typedEntry := entry.(type) {
	case *Scalar, *StandardDir:
		return nil
	case *Map:
		return typedEntry.Members.Values()
	case *List:
		return typedEntry.Elements
	case *Directory:
		var result []Entry
		for _, file := range typedEntry.Files {
			result = append(result, file)
		}
		return result
	case *File:
		var result []Entry
		for _, attr := range typedEntry.Attrs.Values() {
			result = append(result, attr)
		}
		return result
	default:
		panic(fmt.Sprintf("Unknown entry type %T", entry))
	}
}

// Variables lists the names referenced by entry and its descendants in
// first occurrence order. Directories list the names referenced by their
// files before the names referenced by their key.
func Variables(entry Entry) []string {
	names := orderedmap.NewSet[string]()

	Traverse(entry, func(e Entry) {
		switch typedEntry := e.(type) {
		case *Scalar:
			names.Add(typedEntry.Expr.Variables()...)
		case *StandardDir:
			if typedEntry.Assigned() {
				names.Add(typedEntry.Expr.Variables()...)
			}
		}
	})

	if dir, ok := entry.(*Directory); ok {
		names.Add(dir.Key.Variables()...)
	}
	return names.Items()
}

// Directories returns the top-level directories in declaration order.
func Directories(root *Map) []*Directory {
	var result []*Directory
	root.Members.Iterate(func(_ string, entry Entry) {
		if dir, ok := entry.(*Directory); ok {
			result = append(result, dir)
		}
	})
	return result
}

// Files returns the files of all directories in declaration order.
func Files(root *Map) []*File {
	var result []*File
	for _, dir := range Directories(root) {
		result = append(result, dir.Files...)
	}
	return result
}
