// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"carvel.dev/qrpm/pkg/ast"
)

// Checks selects the checks run by Analyze. Standard directories are
// always assigned.
type Checks struct {
	Undefined  bool
	Mandatory  bool
	FieldTypes bool
}

func AllChecks() Checks {
	return Checks{Undefined: true, Mandatory: true, FieldTypes: true}
}

// Analyze assigns standard directories and checks the assembled tree.
// Nothing is rendered and no command runs.
func (c *Compiler) Analyze(checks Checks) error {
	c.expectStage(stageAssembled, "Analyze")

	// Assignment changes dependencies so it has to come first
	c.assignStandardDirs()

	if checks.Undefined {
		err := c.checkReferences()
		if err != nil {
			return err
		}
	}
	if checks.Mandatory {
		err := c.checkMandatoryFields()
		if err != nil {
			return err
		}
	}
	if checks.FieldTypes {
		err := c.checkFieldTypes()
		if err != nil {
			return err
		}
	}

	c.stage = stageAnalyzed
	return nil
}

// assignStandardDirs points each standard directory at its package private
// variant when exactly one directory is installed under it and at the system
// wide variant otherwise. Directories count when their key refers to the
// standard directory.
func (c *Compiler) assignStandardDirs() {
	dirs := ast.Directories(c.root)

	for _, name := range StandardDirs {
		entry, found := c.root.Get(name)
		if !found {
			continue
		}
		stdDir, ok := entry.(*ast.StandardDir)
		if !ok || stdDir.Assigned() {
			// Declared by the user
			continue
		}

		count := 0
		for _, dir := range dirs {
			if contains(dir.Key.Variables(), name) {
				count++
			}
		}

		kind := ast.SystemDir
		if count == 1 {
			kind = ast.PackageDir
		}
		stdDir.Assign(kind)
		c.dependencies.Set(stdDir.Path(), ast.Variables(stdDir))

		c.logger.Trace("assigned standard directory", "name", name, "kind", kind, "directories", count)
	}
}

func (c *Compiler) checkReferences() error {
	var errs errorList

	c.dependencies.Iterate(func(path string, deps []string) {
		for _, dep := range deps {
			def, found := c.definitions.Get(dep)
			if !found {
				errs.Add(&UndefinedVariableError{Path: path, Name: dep, Position: c.position(path)})
				continue
			}
			switch def.(type) {
			case *ast.Scalar, *ast.StandardDir:
			default:
				errs.Add(&IllegalReferenceError{Path: path, Name: dep, Position: c.position(path)})
			}
		}
	})

	return errs.AsError()
}

func (c *Compiler) checkMandatoryFields() error {
	var missing []string
	for _, name := range MandatoryFields {
		def, found := c.definitions.Get(name)
		if !found {
			missing = append(missing, name)
			continue
		}
		if scalar, ok := def.(*ast.Scalar); ok && len(scalar.Expr.Source()) == 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingMandatoryFieldError{Fields: missing}
	}
	return nil
}

func (c *Compiler) checkFieldTypes() error {
	for _, field := range Fields {
		entry, found := c.root.Get(field.Name)
		if !found {
			continue
		}

		actual := entryKind(entry)
		expected := "scalar"
		valid := actual == "scalar"
		if field.Kind == ScalarOrListField {
			expected = "scalar or list"
			valid = valid || actual == "list"
		}
		if !valid {
			return &IllegalFieldTypeError{Field: field.Name, Expected: expected,
				Actual: actual, Position: c.position(field.Name)}
		}
	}
	return nil
}

func entryKind(entry ast.Entry) string {
	switch entry.(type) {
	case *ast.Scalar, *ast.StandardDir:
		return "scalar"
	case *ast.Map:
		return "map"
	case *ast.List:
		return "list"
	case *ast.Directory:
		return "directory"
	case *ast.File:
		return "file"
	default:
		return "unknown"
	}
}
