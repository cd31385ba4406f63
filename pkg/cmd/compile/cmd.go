// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package compile

import (
	"context"
	"time"

	"carvel.dev/qrpm/pkg/cmd/ui"
	"carvel.dev/qrpm/pkg/compiler"
	"carvel.dev/qrpm/pkg/files"
	"carvel.dev/qrpm/pkg/fragment"
	"carvel.dev/qrpm/pkg/loader"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

type CompileOptions struct {
	Debug bool

	InputFlags    InputFlags
	DefineFlags   DefineFlags
	CompilerFlags CompilerFlags
	OutputFlags   OutputFlags

	// Fs and Runner are replaced in tests
	Fs     afero.Fs
	Runner fragment.Runner
}

func NewOptions() *CompileOptions {
	return &CompileOptions{Fs: afero.NewOsFs()}
}

func NewCmd(o *CompileOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "compile",
		Aliases: []string{"c"},
		Short:   "Resolve a package description",
		RunE:    func(cmd *cobra.Command, _ []string) error { return o.Run(cmd.Context()) },
	}
	o.SetFlags(cmd)
	o.OutputFlags.Set(cmd)
	return cmd
}

// SetFlags adds the flags shared by all commands that compile a
// description.
func (o *CompileOptions) SetFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.Debug, "debug", false, "Enable debug output")
	o.InputFlags.Set(cmd)
	o.DefineFlags.Set(cmd)
	o.CompilerFlags.Set(cmd)
}

func (o *CompileOptions) Run(ctx context.Context) error {
	ui := ui.NewTTY(o.Debug)
	t1 := time.Now()

	defer func() {
		ui.Debugf("total: %s\n", time.Since(t1))
	}()

	res, err := o.Compile(ctx, ui)
	if err != nil {
		return err
	}

	out, err := NewOutput(res)
	if err != nil {
		return err
	}
	data, err := out.Bytes(o.OutputFlags.Type)
	if err != nil {
		return err
	}

	if len(o.OutputFlags.File) > 0 {
		return files.NewOutputFile(o.OutputFlags.File, data).Create(o.Fs)
	}
	ui.Printf("%s", data)
	return nil
}

// Compile loads, assembles, analyzes and evaluates the description.
func (o *CompileOptions) Compile(ctx context.Context, ui ui.UI) (*compiler.Result, error) {
	doc, c, err := o.NewCompiler(ui)
	if err != nil {
		return nil, err
	}

	_, err = c.Assemble(doc.Values)
	if err != nil {
		return nil, err
	}
	err = c.Analyze(o.CompilerFlags.Checks())
	if err != nil {
		return nil, err
	}
	return c.Evaluate(ctx)
}

// NewCompiler loads the description and returns a compiler for it.
func (o *CompileOptions) NewCompiler(ui ui.UI) (*loader.Document, *compiler.Compiler, error) {
	logger := ui.Logger()

	doc, err := o.InputFlags.Load(o.fs(), logger)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("loaded description", "file", o.InputFlags.File, "includes", doc.Includes)

	dict, err := o.DefineFlags.Values(o.fs())
	if err != nil {
		return nil, nil, err
	}

	opts := o.CompilerFlags.Opts()
	opts.Logger = logger.Named("compiler")
	opts.Positions = doc.Positions
	opts.Runner = o.Runner
	if opts.Runner == nil {
		opts.Runner = fragment.NewShellRunner(fragment.ShellRunnerOpts{
			Shell:  o.CompilerFlags.Shell,
			Logger: logger.Named("shell"),
		})
	}

	return doc, compiler.New(dict, opts), nil
}

func (o *CompileOptions) fs() afero.Fs {
	if o.Fs == nil {
		return afero.NewOsFs()
	}
	return o.Fs
}
