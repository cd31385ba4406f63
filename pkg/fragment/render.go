// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package fragment

import (
	"context"
	"fmt"
	"strings"
)

// Dictionary resolves variable names to their rendered values.
type Dictionary interface {
	Lookup(name string) (string, bool)
}

// MapDictionary is a Dictionary backed by a plain map.
type MapDictionary map[string]string

func (d MapDictionary) Lookup(name string) (string, bool) {
	val, found := d[name]
	return val, found
}

type RendererOpts struct {
	// AllowDuplicates accepts an Expression rendering to a string it has
	// rendered to before
	AllowDuplicates bool
}

// Renderer renders fragments against a Dictionary, running commands with
// its Runner.
type Renderer struct {
	opts   RendererOpts
	runner Runner
}

func NewRenderer(runner Runner, opts RendererOpts) *Renderer {
	if runner == nil {
		runner = NewShellRunner(ShellRunnerOpts{})
	}
	return &Renderer{opts: opts, runner: runner}
}

// Render renders expr against dict.
func (r *Renderer) Render(ctx context.Context, expr *Expression, dict Dictionary) (string, error) {
	return r.render(ctx, expr, dict)
}

func (r *Renderer) render(ctx context.Context, frag Fragment, dict Dictionary) (string, error) {
	switch typedFrag := frag.(type) {
	case *Text:
		return typedFrag.Literal, nil

	case *Nil:
		return "", nil

	case *Variable:
		return r.lookup(typedFrag.Name, dict)

	case *CommandVariable:
		// Pasted into the command line without any shell quoting
		return r.lookup(typedFrag.Name, dict)

	case *Command:
		cmdLine, err := r.renderAll(ctx, typedFrag.Children, dict)
		if err != nil {
			return "", err
		}
		return r.runner.Run(ctx, cmdLine)

	case *Expression:
		result, err := r.renderAll(ctx, typedFrag.Children, dict)
		if err != nil {
			return "", err
		}
		if !typedFrag.remember(result) && !r.opts.AllowDuplicates {
			return "", &DuplicateInterpolationError{Source: typedFrag.Source(), Result: result}
		}
		return result, nil

	default:
		panic(fmt.Sprintf("Unknown fragment type %T", frag))
	}
}

func (r *Renderer) renderAll(ctx context.Context, frags []Fragment, dict Dictionary) (string, error) {
	var result strings.Builder
	for _, frag := range frags {
		val, err := r.render(ctx, frag, dict)
		if err != nil {
			return "", err
		}
		result.WriteString(val)
	}
	return result.String(), nil
}

func (r *Renderer) lookup(name string, dict Dictionary) (string, error) {
	if dict != nil {
		if val, found := dict.Lookup(name); found {
			return val, nil
		}
	}
	return "", &UndefinedVariableError{Name: name}
}
