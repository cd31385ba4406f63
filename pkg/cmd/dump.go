// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"

	"carvel.dev/qrpm/pkg/ast"
	"carvel.dev/qrpm/pkg/cmd/compile"
	"carvel.dev/qrpm/pkg/cmd/ui"
	"github.com/spf13/cobra"
)

type DumpOptions struct {
	CompileOptions *compile.CompileOptions
	Evaluate       bool
}

func NewDumpOptions() *DumpOptions {
	return &DumpOptions{CompileOptions: compile.NewOptions()}
}

func NewDumpCmd(o *DumpOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the entry tree of a description",
		RunE:  func(cmd *cobra.Command, _ []string) error { return o.Run(cmd.Context(), ui.NewTTY(o.CompileOptions.Debug)) },
	}
	o.CompileOptions.SetFlags(cmd)
	cmd.Flags().BoolVar(&o.Evaluate, "evaluate", false, "Print the tree after evaluation instead of after assembly")
	return cmd
}

func (o *DumpOptions) Run(ctx context.Context, ui ui.UI) error {
	doc, c, err := o.CompileOptions.NewCompiler(ui)
	if err != nil {
		return err
	}

	root, err := c.Assemble(doc.Values)
	if err != nil {
		return err
	}

	if o.Evaluate {
		err = c.Analyze(o.CompileOptions.CompilerFlags.Checks())
		if err != nil {
			return err
		}
		_, err = c.Evaluate(ctx)
		if err != nil {
			return err
		}
	}

	ui.Printf("%s", ast.Dump(root))
	return nil
}
