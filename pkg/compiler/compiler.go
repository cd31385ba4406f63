// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"context"
	"fmt"

	"carvel.dev/qrpm/pkg/ast"
	"carvel.dev/qrpm/pkg/filepos"
	"carvel.dev/qrpm/pkg/fragment"
	"carvel.dev/qrpm/pkg/orderedmap"
	"github.com/hashicorp/go-hclog"
)

type Opts struct {
	// SystemDirs adds standard, root, system and package directories
	SystemDirs bool
	// Defaults adds default values for undeclared fields
	Defaults bool
	// SourceDir prefixes file sources with $srcdir and defines srcdir
	SourceDir bool

	// EvaluateAll evaluates every definition, not just built-in fields,
	// directories and what they reference
	EvaluateAll bool
	// AllowDuplicates disables the duplicate interpolation check
	AllowDuplicates bool

	Runner    fragment.Runner
	Logger    hclog.Logger
	Positions *filepos.Index
}

func NewOpts() Opts {
	return Opts{SystemDirs: true, Defaults: true, SourceDir: true}
}

type stage int

const (
	stageNew stage = iota
	stageAssembled
	stageAnalyzed
	stageEvaluated
)

// Compiler turns a decoded description into a resolved dictionary. Its
// stages run in order: Assemble, Analyze, Evaluate. A Compiler is used for
// a single description.
type Compiler struct {
	opts   Opts
	dict   *orderedmap.StringMap
	logger hclog.Logger

	root         *ast.Map
	definitions  *orderedmap.Map[string, ast.Entry]
	dependencies *orderedmap.Map[string, []string]
	stage        stage
}

// New returns a Compiler. Values of dict override values of the same name
// in the description; they must be scalars.
func New(dict *orderedmap.StringMap, opts Opts) *Compiler {
	if dict == nil {
		dict = orderedmap.NewMap()
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Compiler{
		opts:         opts,
		dict:         dict,
		logger:       logger,
		definitions:  orderedmap.New[string, ast.Entry](),
		dependencies: orderedmap.New[string, []string](),
	}
}

// Compile assembles, analyzes with all checks and evaluates doc.
func (c *Compiler) Compile(ctx context.Context, doc *orderedmap.StringMap) (*Result, error) {
	_, err := c.Assemble(doc)
	if err != nil {
		return nil, err
	}
	err = c.Analyze(AllChecks())
	if err != nil {
		return nil, err
	}
	return c.Evaluate(ctx)
}

// Root is the entry tree. It is nil before Assemble.
func (c *Compiler) Root() *ast.Map { return c.root }

// Definitions maps paths to entries.
func (c *Compiler) Definitions() *orderedmap.Map[string, ast.Entry] { return c.definitions }

// Dependencies maps paths to the names they reference.
func (c *Compiler) Dependencies() *orderedmap.Map[string, []string] { return c.dependencies }

func (c *Compiler) expectStage(expected stage, op string) {
	if c.stage != expected {
		panic(fmt.Sprintf("Internal inconsistency: %s called out of order", op))
	}
}

func (c *Compiler) position(path string) *filepos.Position {
	return c.opts.Positions.Lookup(path)
}
