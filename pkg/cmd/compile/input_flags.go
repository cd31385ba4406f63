// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package compile

import (
	"carvel.dev/qrpm/pkg/compiler"
	"carvel.dev/qrpm/pkg/loader"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const defaultFile = "qrpm.yml"

type InputFlags struct {
	File       string
	RelDirs    []string
	SearchDirs []string
}

func (s *InputFlags) Set(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.File, "file", "f", defaultFile, "Package description (ie local path, HTTP URL, -)")
	cmd.Flags().StringArrayVar(&s.RelDirs, "rel-dir", nil, "Directory searched for ./ and ../ includes after the directory of the description (can be specified multiple times)")
	cmd.Flags().StringArrayVarP(&s.SearchDirs, "search-dir", "I", []string{".", "/usr/share/qrpm"}, "Directory searched for other includes (can be specified multiple times)")
}

func (s *InputFlags) Load(fs afero.Fs, logger hclog.Logger) (*loader.Document, error) {
	l := loader.NewLoader(fs, loader.Opts{RelDirs: s.RelDirs, SearchDirs: s.SearchDirs, Logger: logger})
	return l.Load(s.File)
}

// CompilerFlags toggle the built-in definitions and evaluation behaviour.
type CompilerFlags struct {
	NoSystemDirs    bool
	NoDefaults      bool
	NoSourceDir     bool
	EvaluateAll     bool
	AllowDuplicates bool
	Shell           string

	NoCheckUndefined  bool
	NoCheckMandatory  bool
	NoCheckFieldTypes bool
}

func (s *CompilerFlags) Set(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&s.NoSystemDirs, "no-system-dirs", false, "Do not define standard and install directories")
	cmd.Flags().BoolVar(&s.NoDefaults, "no-defaults", false, "Do not define default values for undeclared fields")
	cmd.Flags().BoolVar(&s.NoSourceDir, "no-srcdir", false, "Do not prefix file sources with $srcdir")
	cmd.Flags().BoolVarP(&s.EvaluateAll, "all", "a", false, "Evaluate every definition, not just fields, directories and what they reference")
	cmd.Flags().BoolVar(&s.AllowDuplicates, "allow-duplicates", false, "Do not fail when an expression interpolates to a value it produced before")
	cmd.Flags().StringVar(&s.Shell, "shell", "bash", "Shell used to run $(...) commands")
	cmd.Flags().BoolVar(&s.NoCheckUndefined, "no-check-undefined", false, "Do not check references before evaluation")
	cmd.Flags().BoolVar(&s.NoCheckMandatory, "no-check-mandatory", false, "Do not require name, version and summary")
	cmd.Flags().BoolVar(&s.NoCheckFieldTypes, "no-check-field-types", false, "Do not check types of built-in fields")
}

func (s *CompilerFlags) Checks() compiler.Checks {
	return compiler.Checks{
		Undefined:  !s.NoCheckUndefined,
		Mandatory:  !s.NoCheckMandatory,
		FieldTypes: !s.NoCheckFieldTypes,
	}
}

func (s *CompilerFlags) Opts() compiler.Opts {
	return compiler.Opts{
		SystemDirs:      !s.NoSystemDirs,
		Defaults:        !s.NoDefaults,
		SourceDir:       !s.NoSourceDir,
		EvaluateAll:     s.EvaluateAll,
		AllowDuplicates: s.AllowDuplicates,
	}
}
