// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"fmt"

	"carvel.dev/qrpm/pkg/ast"
	"carvel.dev/qrpm/pkg/fragment"
	"carvel.dev/qrpm/pkg/orderedmap"
)

type Result struct {
	Dict        *Dictionary
	Root        *ast.Map
	Files       []*ast.File
	Directories []*ast.Directory
}

// Order returns the paths in evaluation order: every path comes after the
// paths it references. Evaluation starts from the built-in fields, srcdir and
// the directories (or from every definition with EvaluateAll).
func (c *Compiler) Order() ([]string, error) {
	if c.stage < stageAnalyzed {
		panic("Internal inconsistency: Order called before Analyze")
	}

	var seeds []string
	if c.opts.EvaluateAll {
		c.definitions.Iterate(func(path string, entry ast.Entry) {
			if _, ok := entry.(*ast.Map); !ok {
				seeds = append(seeds, path)
			}
		})
	} else {
		for _, field := range Fields {
			if c.definitions.Has(field.Name) {
				seeds = append(seeds, field.Name)
			}
		}
		// Builds run in the source directory whether or not a file refers to it
		if c.definitions.Has(SourceDirField) {
			seeds = append(seeds, SourceDirField)
		}
		for _, dir := range ast.Directories(c.root) {
			seeds = append(seeds, dir.Path())
		}
	}

	walk := &orderWalk{deps: c.dependencies, done: orderedmap.NewSet[string](), onStack: map[string]bool{}}
	for _, seed := range seeds {
		err := walk.visit(seed)
		if err != nil {
			return nil, err
		}
	}
	return walk.done.Items(), nil
}

type orderWalk struct {
	deps    *orderedmap.Map[string, []string]
	done    *orderedmap.Set[string]
	stack   []string
	onStack map[string]bool
}

func (w *orderWalk) visit(path string) error {
	if w.done.Has(path) {
		return nil
	}
	if w.onStack[path] {
		for i, p := range w.stack {
			if p == path {
				cycle := append(append([]string{}, w.stack[i:]...), path)
				return &CyclicDefinitionError{Cycle: cycle}
			}
		}
	}

	w.onStack[path] = true
	w.stack = append(w.stack, path)

	deps, _ := w.deps.Get(path)
	for _, dep := range deps {
		err := w.visit(dep)
		if err != nil {
			return err
		}
	}

	w.stack = w.stack[:len(w.stack)-1]
	delete(w.onStack, path)
	w.done.Add(path)
	return nil
}

// Evaluate interpolates entries in dependency order. Any failure discards
// all values resolved so far.
func (c *Compiler) Evaluate(ctx context.Context) (*Result, error) {
	c.expectStage(stageAnalyzed, "Evaluate")

	order, err := c.Order()
	if err != nil {
		return nil, err
	}
	c.logger.Debug("evaluation order", "paths", order)

	runner := c.opts.Runner
	if runner == nil {
		runner = fragment.NewShellRunner(fragment.ShellRunnerOpts{Logger: c.logger.Named("shell")})
	}
	eval := &evaluation{
		renderer: fragment.NewRenderer(runner, fragment.RendererOpts{AllowDuplicates: c.opts.AllowDuplicates}),
		dict:     NewDictionary(),
	}

	for _, path := range order {
		entry, found := c.definitions.Get(path)
		if !found || entry.Interpolated() || eval.dict.Has(path) {
			continue
		}

		val, err := eval.interpolate(ctx, entry)
		if err != nil {
			return nil, &EvaluationError{Path: path, Err: err, Position: c.position(path)}
		}

		switch entry.(type) {
		case *ast.Directory, *ast.File, *ast.Map:
		default:
			eval.dict.Set(path, val)
		}
		c.logger.Trace("interpolated", "path", path, "value", val)
	}

	c.stage = stageEvaluated

	return &Result{
		Dict:        eval.dict,
		Root:        c.root,
		Files:       ast.Files(c.root),
		Directories: ast.Directories(c.root),
	}, nil
}

type evaluation struct {
	renderer *fragment.Renderer
	dict     *Dictionary
}

// interpolate resolves entry. Lists resolve all of their elements, including
// members of maps inside them. Directories resolve their key before their
// files.
func (e *evaluation) interpolate(ctx context.Context, entry ast.Entry) (interface{}, error) {
	switch typedEntry := entry.(type) {
	case *ast.StandardDir:
		if !typedEntry.Assigned() {
			return nil, fmt.Errorf("Standard directory '%s' is not assigned", typedEntry.Name())
		}
		return e.interpolateScalar(ctx, &typedEntry.Scalar)

	case *ast.Scalar:
		return e.interpolateScalar(ctx, typedEntry)

	case *ast.Map:
		typedEntry.MarkInterpolated()
		return nil, nil

	case *ast.List:
		return e.interpolateNested(ctx, typedEntry)

	case *ast.Directory:
		dir, err := e.renderer.Render(ctx, typedEntry.Key, e.dict)
		if err != nil {
			return nil, err
		}
		typedEntry.SetDir(dir)

		for _, file := range typedEntry.Files {
			_, err := e.interpolate(ctx, file)
			if err != nil {
				return nil, err
			}
		}
		return dir, nil

	case *ast.File:
		for _, attr := range typedEntry.Attrs.Values() {
			_, err := e.interpolateScalar(ctx, attr)
			if err != nil {
				return nil, err
			}
		}
		typedEntry.Resolve()
		return typedEntry.DstPath(), nil

	default:
		panic(fmt.Sprintf("Unknown entry type %T", entry))
	}
}

func (e *evaluation) interpolateScalar(ctx context.Context, scalar *ast.Scalar) (string, error) {
	val, err := e.renderer.Render(ctx, scalar.Expr, e.dict)
	if err != nil {
		return "", err
	}
	scalar.SetValue(val)
	return val, nil
}

// interpolateNested resolves entries below a list. Lists become slices and
// maps become ordered maps.
func (e *evaluation) interpolateNested(ctx context.Context, entry ast.Entry) (interface{}, error) {
	switch typedEntry := entry.(type) {
	case *ast.Scalar:
		return e.interpolateScalar(ctx, typedEntry)

	case *ast.List:
		result := []interface{}{}
		for _, elem := range typedEntry.Elements {
			val, err := e.interpolateNested(ctx, elem)
			if err != nil {
				return nil, err
			}
			result = append(result, val)
		}
		typedEntry.MarkInterpolated()
		return result, nil

	case *ast.Map:
		result := orderedmap.NewMap()
		err := typedEntry.Members.IterateErr(func(key string, member ast.Entry) error {
			val, err := e.interpolateNested(ctx, member)
			result.Set(key, val)
			return err
		})
		if err != nil {
			return nil, err
		}
		typedEntry.MarkInterpolated()
		return result, nil

	default:
		panic(fmt.Sprintf("Unexpected entry type %T in list", entry))
	}
}
