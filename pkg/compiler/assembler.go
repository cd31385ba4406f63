// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"fmt"
	"strings"

	"carvel.dev/qrpm/pkg/ast"
	"carvel.dev/qrpm/pkg/fragment"
	"carvel.dev/qrpm/pkg/orderedmap"
)

// Assemble builds the entry tree from doc, the caller dictionary and the
// built-in tables, then records definitions and dependencies.
func (c *Compiler) Assemble(doc *orderedmap.StringMap) (*ast.Map, error) {
	c.expectStage(stageNew, "Assemble")

	c.root = ast.NewRoot()

	if c.opts.SystemDirs {
		for _, name := range StandardDirs {
			c.root.Set(name, ast.NewStandardDir(name))
		}
	}

	err := doc.IterateErr(func(key string, val interface{}) error {
		switch {
		case strings.ContainsAny(key, "/$"):
			return c.assembleDirectory(key, val)

		case fragment.IsPath(key):
			switch val.(type) {
			case string:
				if isListField(key) {
					return c.assembleMember(c.root, key, []interface{}{val})
				}
			case []interface{}:
				if !isListField(key) {
					return c.assembleDirectory(key, val)
				}
			}
			return c.assembleMember(c.root, key, val)

		default:
			return &IllegalKeyError{Key: key, Position: c.position(key)}
		}
	})
	if err != nil {
		return nil, err
	}

	err = c.assembleDict()
	if err != nil {
		return nil, err
	}

	if c.opts.Defaults {
		for _, def := range Defaults() {
			if def.Name != SourceDirField {
				c.assembleDefault(def)
			}
		}
	}
	if c.opts.SourceDir {
		for _, def := range Defaults() {
			if def.Name == SourceDirField {
				c.assembleDefault(def)
			}
		}
	}
	if c.opts.SystemDirs {
		for _, def := range InstallDirs() {
			c.assembleDefault(def)
		}
	}

	c.root.Members.Iterate(func(_ string, entry ast.Entry) { c.collect(entry) })

	c.logger.Debug("assembled", "entries", c.root.Members.Len(), "definitions", c.definitions.Len())
	c.stage = stageAssembled

	return c.root, nil
}

// assembleMember adds the generic entry for val as member key of parent.
func (c *Compiler) assembleMember(parent *ast.Map, key string, val interface{}) error {
	entry, err := c.assembleValue(ast.ChildPath(parent.Path(), key), val)
	if err != nil {
		return err
	}
	parent.Set(key, entry)
	return nil
}

func (c *Compiler) assembleValue(path string, val interface{}) (ast.Entry, error) {
	switch typedVal := val.(type) {
	case *orderedmap.StringMap:
		hash := ast.NewMap(path)
		err := typedVal.IterateErr(func(key string, member interface{}) error {
			return c.assembleMember(hash, key, member)
		})
		return hash, err

	case []interface{}:
		list := ast.NewList(path)
		for _, elem := range typedVal {
			entry, err := c.assembleValue(list.NextPath(), elem)
			if err != nil {
				return nil, err
			}
			list.Append(entry)
		}
		return list, nil

	default:
		expr, err := fragment.Parse(val)
		if err != nil {
			return nil, fmt.Errorf("Assembling '%s': %s", path, err)
		}
		return ast.NewScalar(path, expr), nil
	}
}

func (c *Compiler) assembleDirectory(key string, val interface{}) error {
	dir := ast.NewDirectory(fragment.ParseString(key))

	switch typedVal := val.(type) {
	case string, *orderedmap.StringMap:
		err := c.assembleFile(dir, typedVal)
		if err != nil {
			return err
		}
	case []interface{}:
		for _, elem := range typedVal {
			err := c.assembleFile(dir, elem)
			if err != nil {
				return err
			}
		}
	default:
		return &IllegalFileSpecError{Path: key, Position: c.position(key),
			Reason: fmt.Sprintf("expected a file name, a file or a list of files but was %s", typeName(val))}
	}

	c.root.Set(key, dir)
	return nil
}

// assembleFile normalizes a file declaration: a plain string names the
// source file, a map lists file attributes.
func (c *Compiler) assembleFile(dir *ast.Directory, val interface{}) error {
	path := ast.IndexPath(dir.Path(), len(dir.Files))
	pos := c.position(path)

	attrs := orderedmap.NewMap()
	switch typedVal := val.(type) {
	case string:
		attrs.Set(ast.AttrFile, typedVal)
	case *orderedmap.StringMap:
		attrs = typedVal
	default:
		return &IllegalFileSpecError{Path: path, Position: pos,
			Reason: fmt.Sprintf("expected a file name or a file but was %s", typeName(val))}
	}

	var unknown []string
	for _, key := range attrs.Keys() {
		if !contains(ast.FileAttrs, key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		return &IllegalFileAttributeError{Path: path, Attrs: unknown, Position: pos}
	}

	sources := 0
	for _, key := range ast.SourceAttrs {
		if attrs.Has(key) {
			sources++
		}
	}
	if sources != 1 {
		return &IllegalFileSpecError{Path: path, Position: pos,
			Reason: "exactly one of 'file', 'symlink', or 'reflink' should be defined"}
	}
	if attrs.Has(ast.AttrPerm) && (attrs.Has(ast.AttrSymlink) || attrs.Has(ast.AttrReflink)) {
		return &IllegalFileSpecError{Path: path, Position: pos,
			Reason: "can't use 'perm' together with 'symlink' or 'reflink'"}
	}

	exprs := map[string]*fragment.Expression{}
	err := attrs.IterateErr(func(key string, attrVal interface{}) error {
		switch typedVal := attrVal.(type) {
		case int:
			// YAML reads an unquoted 0644 as the number 420
			if key == ast.AttrPerm {
				attrVal = fmt.Sprintf("%04o", typedVal)
			}
		case string:
			if key == ast.AttrFile && c.opts.SourceDir {
				attrVal = "$" + SourceDirField + "/" + typedVal
			}
		}

		expr, err := fragment.Parse(attrVal)
		if err != nil {
			return &IllegalFileSpecError{Path: ast.ChildPath(path, key), Position: pos, Reason: err.Error()}
		}
		exprs[key] = expr
		return nil
	})
	if err != nil {
		return err
	}

	dir.NewFile(exprs, attrs.Keys())
	return nil
}

// assembleDict adds caller supplied values. They replace values of the
// same path, including members of maps (eg. "pkg.home").
func (c *Compiler) assembleDict() error {
	return c.dict.IterateErr(func(key string, val interface{}) error {
		if !fragment.IsPath(key) {
			return &IllegalKeyError{Key: key}
		}
		expr, err := fragment.Parse(val)
		if err != nil {
			return fmt.Errorf("Defining '%s': %s", key, err)
		}

		if cut := strings.LastIndexByte(key, '.'); cut > 0 {
			if parent, err := ast.Dot(c.root, key[:cut]); err == nil {
				if hash, ok := parent.(*ast.Map); ok {
					hash.Set(key[cut+1:], ast.NewScalar(key, expr))
					return nil
				}
			}
		}
		c.root.Set(key, ast.NewScalar(key, expr))
		return nil
	})
}

func (c *Compiler) assembleDefault(def Definition) {
	if _, found := c.root.Get(def.Name); !found {
		c.root.Set(def.Name, ast.NewScalar(def.Name, fragment.MustParse(def.Source)))
	}
}

// collect registers entry and its dependencies. Maps are registered so that
// references to them can be told apart from undefined names, but only
// their members carry dependencies. Descendants of lists and directories
// are covered by their list or directory.
func (c *Compiler) collect(entry ast.Entry) {
	switch typedEntry := entry.(type) {
	case *ast.Scalar, *ast.StandardDir, *ast.List, *ast.Directory:
		c.definitions.Set(entry.Path(), entry)
		c.dependencies.Set(entry.Path(), ast.Variables(entry))

	case *ast.Map:
		c.definitions.Set(entry.Path(), entry)
		typedEntry.Members.Iterate(func(_ string, member ast.Entry) { c.collect(member) })

	case *ast.File:
		panic(fmt.Sprintf("Unexpected file '%s' outside of a directory", entry.Path()))

	default:
		panic(fmt.Sprintf("Unknown entry type %T", entry))
	}
}

func contains(list []string, item string) bool {
	for _, elem := range list {
		if elem == item {
			return true
		}
	}
	return false
}

func typeName(val interface{}) string {
	switch val.(type) {
	case nil:
		return "null"
	case *orderedmap.StringMap:
		return "map"
	case []interface{}:
		return "list"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	default:
		return fmt.Sprintf("%T", val)
	}
}
