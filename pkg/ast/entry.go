// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package ast

import (
	"fmt"
	"path"

	"carvel.dev/qrpm/pkg/fragment"
	"carvel.dev/qrpm/pkg/orderedmap"
)

type Entry interface {
	Path() string
	Interpolated() bool
	MarkInterpolated()
	Signature() string

	sealed()
}

var _ = []Entry{&Scalar{}, &StandardDir{}, &Map{}, &List{}, &Directory{}, &File{}}

type node struct {
	path         string
	interpolated bool
}

func (n *node) Path() string       { return n.path }
func (n *node) Interpolated() bool { return n.interpolated }

// MarkInterpolated records that the entry got its value. It may only happen
// once per entry.
func (n *node) MarkInterpolated() {
	if n.interpolated {
		panic(fmt.Sprintf("Entry '%s' is already interpolated", n.path))
	}
	n.interpolated = true
}

// Scalar is a string, number, boolean or null value.
type Scalar struct {
	node
	Expr  *fragment.Expression
	value string
}

func NewScalar(path string, expr *fragment.Expression) *Scalar {
	return &Scalar{node: node{path: path}, Expr: expr}
}

func (s *Scalar) Value() string { return s.value }

func (s *Scalar) SetValue(val string) {
	s.MarkInterpolated()
	s.value = val
}

func (s *Scalar) Signature() string { return fmt.Sprintf("Scalar(%s,%s)", s.path, s.Expr.Source()) }

// StandardDir is a well-known install directory such as "etcdir". Its
// expression is unset until Assign points it at either the system wide
// ("$sysetcdir") or the package private ("$pcketcdir") variant.
type StandardDir struct {
	Scalar
}

type DirKind string

const (
	SystemDir  DirKind = "sys"
	PackageDir DirKind = "pck"
)

func NewStandardDir(name string) *StandardDir {
	return &StandardDir{Scalar{node: node{path: name}}}
}

func (d *StandardDir) Name() string { return d.path }

func (d *StandardDir) Assigned() bool { return d.Expr != nil }

func (d *StandardDir) Assign(kind DirKind) {
	if d.Assigned() {
		panic(fmt.Sprintf("Standard directory '%s' is already assigned", d.path))
	}
	d.Expr = fragment.ParseString("$" + string(kind) + d.path)
}

func (d *StandardDir) Signature() string {
	source := ""
	if d.Assigned() {
		source = d.Expr.Source()
	}
	return fmt.Sprintf("StandardDir(%s,%s)", d.path, source)
}

// Map keeps members in declaration order. Members are interpolated on
// their own; interpolating a Map does nothing.
type Map struct {
	node
	Members *orderedmap.Map[string, Entry]
}

// NewRoot returns the top-level map. Its path is empty.
func NewRoot() *Map { return NewMap("") }

func NewMap(path string) *Map {
	return &Map{node: node{path: path}, Members: orderedmap.New[string, Entry]()}
}

func (m *Map) Get(key string) (Entry, bool) { return m.Members.Get(key) }

func (m *Map) Set(key string, entry Entry) { m.Members.Set(key, entry) }

func (m *Map) Signature() string {
	return fmt.Sprintf("Map(%s,%s)", m.path, signatures(m.Members.Values()))
}

// List keeps elements by index. Interpolating a List interpolates all of
// its elements.
type List struct {
	node
	Elements []Entry
}

func NewList(path string) *List {
	return &List{node: node{path: path}}
}

// NextPath is the path of the element that Append would add next.
func (l *List) NextPath() string { return IndexPath(l.path, len(l.Elements)) }

func (l *List) Append(entry Entry) { l.Elements = append(l.Elements, entry) }

func (l *List) Signature() string {
	return fmt.Sprintf("List(%s,%s)", l.path, signatures(l.Elements))
}

// Directory is a top-level list of files installed into the directory
// named by Key. Key is interpolated before the files.
type Directory struct {
	node
	Key   *fragment.Expression
	Files []*File

	dir string
}

func NewDirectory(key *fragment.Expression) *Directory {
	return &Directory{node: node{path: key.Source()}, Key: key}
}

// NewFile adds a file with the given attributes. Attributes are scalars
// keyed by name, file, symlink, reflink or perm.
func (d *Directory) NewFile(attrs map[string]*fragment.Expression, order []string) *File {
	file := &File{
		node:      node{path: IndexPath(d.path, len(d.Files))},
		Index:     len(d.Files),
		Attrs:     orderedmap.New[string, *Scalar](),
		directory: d,
	}
	for _, name := range order {
		file.Attrs.Set(name, NewScalar(ChildPath(file.path, name), attrs[name]))
	}
	d.Files = append(d.Files, file)
	return file
}

// Dir is the interpolated directory path.
func (d *Directory) Dir() string { return d.dir }

func (d *Directory) SetDir(dir string) {
	d.MarkInterpolated()
	d.dir = dir
}

func (d *Directory) Signature() string {
	var entries []Entry
	for _, file := range d.Files {
		entries = append(entries, file)
	}
	return fmt.Sprintf("Directory(%s,%s)", d.path, signatures(entries))
}

// File is one element of a Directory. Exactly one of the file, symlink
// and reflink attributes is set; perm only goes with file.
type File struct {
	node
	Index int
	Attrs *orderedmap.Map[string, *Scalar]

	directory *Directory
	srcPath   string
	dstName   string
}

const (
	AttrName    = "name"
	AttrFile    = "file"
	AttrSymlink = "symlink"
	AttrReflink = "reflink"
	AttrPerm    = "perm"
)

// FileAttrs lists the recognized attribute names.
var FileAttrs = []string{AttrName, AttrFile, AttrSymlink, AttrReflink, AttrPerm}

// SourceAttrs lists the attributes of which exactly one must be present.
var SourceAttrs = []string{AttrFile, AttrSymlink, AttrReflink}

func (f *File) Directory() *Directory { return f.directory }

func (f *File) Attr(name string) (*Scalar, bool) { return f.Attrs.Get(name) }

func (f *File) IsSymlink() bool { return f.Attrs.Has(AttrSymlink) }
func (f *File) IsReflink() bool { return f.Attrs.Has(AttrReflink) }
func (f *File) IsLink() bool    { return f.IsSymlink() || f.IsReflink() }
func (f *File) IsFile() bool    { return !f.IsLink() }

func (f *File) sourceAttr() *Scalar {
	for _, name := range SourceAttrs {
		if attr, found := f.Attrs.Get(name); found {
			return attr
		}
	}
	panic(fmt.Sprintf("File '%s' has no source attribute", f.path))
}

// Resolve computes the derived paths from interpolated attributes and the
// interpolated directory.
func (f *File) Resolve() {
	if !f.directory.Interpolated() {
		panic(fmt.Sprintf("Directory of file '%s' is not interpolated", f.path))
	}
	f.MarkInterpolated()
	f.srcPath = f.sourceAttr().Value()
	f.dstName = path.Base(f.srcPath)
	if name, found := f.Attrs.Get(AttrName); found {
		f.dstName = name.Value()
	}
}

// SrcPath is the path of the source file in the build directory, or the
// link target for links.
func (f *File) SrcPath() string { return f.srcPath }

// DstName is the basename of the installed file.
func (f *File) DstName() string { return f.dstName }

// DstPath is the full path of the installed file.
func (f *File) DstPath() string { return f.directory.Dir() + "/" + f.dstName }

func (f *File) Symlink() string { return f.attrValue(AttrSymlink) }
func (f *File) Reflink() string { return f.attrValue(AttrReflink) }
func (f *File) Perm() string    { return f.attrValue(AttrPerm) }

func (f *File) attrValue(name string) string {
	if attr, found := f.Attrs.Get(name); found {
		return attr.Value()
	}
	return ""
}

// Src is the source path, as written before interpolation and as
// resolved after.
func (f *File) Src() string {
	if f.Interpolated() {
		return f.srcPath
	}
	return f.sourceAttr().Expr.Source()
}

// Dst is the destination name, as written before interpolation and as
// resolved after.
func (f *File) Dst() string {
	if f.Interpolated() {
		return f.dstName
	}
	if name, found := f.Attrs.Get(AttrName); found {
		return name.Expr.Source()
	}
	return path.Base(f.Src())
}

func (f *File) Signature() string {
	return fmt.Sprintf("File(%s,%s)", f.path, f.sourceAttr().Expr.Source())
}

func (*Scalar) sealed()    {}
func (*Map) sealed()       {}
func (*List) sealed()      {}
func (*Directory) sealed() {}
func (*File) sealed()      {}

func signatures(entries []Entry) string {
	var result string
	for i, entry := range entries {
		if i > 0 {
			result += ","
		}
		result += entry.Signature()
	}
	return result
}
