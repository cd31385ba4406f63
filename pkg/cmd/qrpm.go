// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"carvel.dev/qrpm/pkg/cmd/compile"
	"carvel.dev/qrpm/pkg/version"
	"github.com/cppforlife/cobrautil"
	"github.com/spf13/cobra"
)

type QrpmOptions struct {
	// ConfigDir holds .qrpm.yml, the home directory when empty
	ConfigDir string
}

func NewDefaultQrpmOptions() *QrpmOptions {
	return &QrpmOptions{}
}

func NewDefaultQrpmCmd() *cobra.Command {
	return NewQrpmCmd(NewDefaultQrpmOptions())
}

func NewQrpmCmd(o *QrpmOptions) *cobra.Command {
	cmd := compile.NewCmd(compile.NewOptions())

	cmd.Use = "qrpm"
	cmd.Aliases = nil
	cmd.Version = version.Version
	cmd.Short = "qrpm resolves RPM package descriptions"
	cmd.Long = `qrpm resolves RPM package descriptions.

Values of a description may reference other values ($name, ${pkg.home}) and
run shell commands ($(git describe)). Values given with --define override
values of the description. Defaults are read from $HOME/.qrpm.yml and QRPM_*
environment variables.`

	// Affects children as well
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	// Disable docs header
	cmd.DisableAutoGenTag = true

	cmd.AddCommand(NewVersionCmd(NewVersionOptions()))
	cmd.AddCommand(compile.NewCmd(compile.NewOptions()))
	cmd.AddCommand(NewDumpCmd(NewDumpOptions()))
	cmd.AddCommand(NewDepsCmd(NewDepsOptions()))
	cmd.AddCommand(NewInfoCmd(NewInfoOptions()))

	// Reconfigure Commands
	cobrautil.VisitCommands(cmd, cobrautil.ReconfigureCmdWithSubcmd,
		cobrautil.DisallowExtraArgs, cobrautil.WrapRunEForCmd(cobrautil.ResolveFlagsForCmd),
		cobrautil.WrapRunEForCmd(ConfigureFlagsFunc(o.ConfigDir)))

	return cmd
}
