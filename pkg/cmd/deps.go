// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"strings"

	"carvel.dev/qrpm/pkg/cmd/compile"
	"carvel.dev/qrpm/pkg/cmd/ui"
	"github.com/spf13/cobra"
)

type DepsOptions struct {
	CompileOptions *compile.CompileOptions
}

func NewDepsOptions() *DepsOptions {
	return &DepsOptions{CompileOptions: compile.NewOptions()}
}

func NewDepsCmd(o *DepsOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps",
		Short: "Print what each definition references and the evaluation order",
		RunE:  func(_ *cobra.Command, _ []string) error { return o.Run(ui.NewTTY(o.CompileOptions.Debug)) },
	}
	o.CompileOptions.SetFlags(cmd)
	return cmd
}

// Run prints dependencies without running any command.
func (o *DepsOptions) Run(ui ui.UI) error {
	doc, c, err := o.CompileOptions.NewCompiler(ui)
	if err != nil {
		return err
	}

	_, err = c.Assemble(doc.Values)
	if err != nil {
		return err
	}
	err = c.Analyze(o.CompileOptions.CompilerFlags.Checks())
	if err != nil {
		return err
	}

	ui.Printf("dependencies:\n")
	c.Dependencies().Iterate(func(path string, deps []string) {
		if len(deps) > 0 {
			ui.Printf("  %s: %s\n", path, strings.Join(deps, ", "))
		} else {
			ui.Printf("  %s:\n", path)
		}
	})

	order, err := c.Order()
	if err != nil {
		return err
	}

	ui.Printf("order:\n")
	for _, path := range order {
		ui.Printf("  %s\n", path)
	}
	return nil
}
