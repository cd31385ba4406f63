// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package ast

import (
	"fmt"

	"github.com/xlab/treeprint"
)

// Dump renders the tree below root. Entries show their source before
// evaluation and their value after.
func Dump(root *Map) string {
	tree := treeprint.NewWithRoot("qrpm")
	root.Members.Iterate(func(key string, entry Entry) {
		dumpEntry(tree, key, entry)
	})
	return tree.String()
}

func dumpEntry(tree treeprint.Tree, label string, entry Entry) {
	switch typedEntry := entry.(type) {
	case *StandardDir:
		val := "(unassigned)"
		if typedEntry.Interpolated() {
			val = typedEntry.Value()
		} else if typedEntry.Assigned() {
			val = typedEntry.Expr.Source()
		}
		tree.AddMetaNode("stddir", fmt.Sprintf("%s: %s", label, val))

	case *Scalar:
		tree.AddNode(fmt.Sprintf("%s: %s", label, scalarText(typedEntry)))

	case *Map:
		branch := tree.AddBranch(label)
		typedEntry.Members.Iterate(func(key string, member Entry) {
			dumpEntry(branch, key, member)
		})

	case *List:
		branch := tree.AddBranch(label)
		for i, elem := range typedEntry.Elements {
			dumpEntry(branch, fmt.Sprintf("[%d]", i), elem)
		}

	case *Directory:
		dir := typedEntry.Key.Source()
		if typedEntry.Interpolated() {
			dir = typedEntry.Dir()
		}
		branch := tree.AddMetaBranch("dir", dir)
		for _, file := range typedEntry.Files {
			dumpEntry(branch, "", file)
		}

	case *File:
		kind := "file"
		switch {
		case typedEntry.IsSymlink():
			kind = "symlink"
		case typedEntry.IsReflink():
			kind = "reflink"
		}
		text := fmt.Sprintf("%s -> %s", typedEntry.Src(), typedEntry.Dst())
		if perm, found := typedEntry.Attr(AttrPerm); found {
			text += " (" + scalarText(perm) + ")"
		}
		tree.AddMetaNode(kind, text)

	default:
		panic(fmt.Sprintf("Unknown entry type %T", entry))
	}
}

func scalarText(s *Scalar) string {
	if s.Interpolated() {
		return s.Value()
	}
	return s.Expr.Source()
}
