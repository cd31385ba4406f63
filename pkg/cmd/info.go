// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"strings"

	"carvel.dev/qrpm/pkg/cmd/compile"
	"carvel.dev/qrpm/pkg/cmd/ui"
	"carvel.dev/qrpm/pkg/pkgspec"
	"github.com/spf13/cobra"
)

type InfoOptions struct {
	CompileOptions *compile.CompileOptions
}

func NewInfoOptions() *InfoOptions {
	return &InfoOptions{CompileOptions: compile.NewOptions()}
}

func NewInfoCmd(o *InfoOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Print a summary of the package a description builds",
		RunE:  func(cmd *cobra.Command, _ []string) error { return o.Run(cmd.Context(), ui.NewTTY(o.CompileOptions.Debug)) },
	}
	o.CompileOptions.SetFlags(cmd)
	return cmd
}

func (o *InfoOptions) Run(ctx context.Context, ui ui.UI) error {
	res, err := o.CompileOptions.Compile(ctx, ui)
	if err != nil {
		return err
	}

	pkg, err := pkgspec.New(res)
	if err != nil {
		return err
	}

	ver, err := pkg.ParsedVersion()
	if err != nil {
		return err
	}

	build, err := pkg.BuildCommand(o.CompileOptions.Fs)
	if err != nil {
		return err
	}

	ui.Printf("package: %s-%s", pkg.Name, ver.Original())
	if len(pkg.Release) > 0 {
		ui.Printf("-%s", pkg.Release)
	}
	ui.Printf("\n")
	ui.Printf("summary: %s\n", pkg.Summary)
	if len(pkg.Require) > 0 {
		ui.Printf("require: %s\n", strings.Join(pkg.Require, ", "))
	}
	if len(build) > 0 {
		ui.Printf("build: %s\n", build)
	}

	for _, dir := range pkg.Directories() {
		ui.Printf("%s:\n", dir.Dir())
		for _, file := range dir.Files {
			switch {
			case file.IsSymlink():
				ui.Printf("  %s -> %s\n", file.DstName(), file.SrcPath())
			case file.IsReflink():
				ui.Printf("  %s => %s\n", file.DstName(), file.SrcPath())
			default:
				ui.Printf("  %s\n", file.DstName())
			}
		}
	}
	ui.Printf("files: %d, links: %d\n", len(pkg.Files()), len(pkg.Links()))
	return nil
}
