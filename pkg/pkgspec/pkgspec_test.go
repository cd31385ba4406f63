// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package pkgspec_test

import (
	"context"
	"testing"

	"carvel.dev/qrpm/pkg/compiler"
	"carvel.dev/qrpm/pkg/loader"
	"carvel.dev/qrpm/pkg/pkgspec"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoRunner struct{}

func (echoRunner) Run(_ context.Context, cmdLine string) (string, error) { return cmdLine, nil }

func compilePackage(t *testing.T, src string) *pkgspec.Package {
	doc, err := loader.ParseBytes([]byte(src), "qrpm.yml")
	require.NoError(t, err)

	opts := compiler.NewOpts()
	opts.Runner = echoRunner{}
	opts.Positions = doc.Positions

	res, err := compiler.New(nil, opts).Compile(context.Background(), doc.Values)
	require.NoError(t, err)

	pkg, err := pkgspec.New(res)
	require.NoError(t, err)
	return pkg
}

func TestFields(t *testing.T) {
	pkg := compilePackage(t, `
name: app
version: 1.4.2
summary: The $name tool
license: MIT
require: bash
make: make all
`)

	assert.Equal(t, "app", pkg.Name)
	assert.Equal(t, "1.4.2", pkg.Version)
	assert.Equal(t, "1", pkg.Release)
	assert.Equal(t, "The app tool", pkg.Summary)
	assert.Equal(t, "The app tool", pkg.Description)
	assert.Equal(t, "MIT", pkg.License)
	assert.Equal(t, "", pkg.Group)
	assert.Equal(t, []string{"bash"}, pkg.Require)
	assert.Equal(t, "make all", pkg.Make)
	assert.Equal(t, ".", pkg.SrcDir)

	ver, err := pkg.ParsedVersion()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 2}, ver.Segments())
}

func TestParsedVersionError(t *testing.T) {
	pkg := compilePackage(t, "name: app\nversion: not a version\nsummary: s\n")

	_, err := pkg.ParsedVersion()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Parsing version of package 'app'")
}

func TestFileViews(t *testing.T) {
	pkg := compilePackage(t, `
name: app
version: 1
summary: s
$bindir:
- app.sh
- symlink: app.sh
  name: app
/etc/$name:
- reflink: /usr/share/app/app.conf
`)

	require.Len(t, pkg.Directories(), 2)

	require.Len(t, pkg.Files(), 1)
	assert.Equal(t, "./app.sh", pkg.Files()[0].SrcPath())

	require.Len(t, pkg.Links(), 2)
	require.Len(t, pkg.Symlinks(), 1)
	assert.Equal(t, "app", pkg.Symlinks()[0].DstName())
	require.Len(t, pkg.Reflinks(), 1)
	assert.Equal(t, "/etc/app/app.conf", pkg.Reflinks()[0].DstPath())
}

func TestBuildFiles(t *testing.T) {
	pkg := compilePackage(t, "name: app\nversion: 1\nsummary: s\n")

	fs := afero.NewMemMapFs()
	assert.False(t, pkg.HasConfigure(fs))
	assert.False(t, pkg.HasMakefile(fs))

	require.NoError(t, afero.WriteFile(fs, "Makefile", []byte("all:\n"), 0644))
	assert.True(t, pkg.HasMakefile(fs))
}

func TestBuildCommand(t *testing.T) {
	fs := afero.NewMemMapFs()

	pkg := compilePackage(t, "name: app\nversion: 1\nsummary: s\n")
	cmd, err := pkg.BuildCommand(fs)
	require.NoError(t, err)
	assert.Equal(t, "", cmd)

	pkg = compilePackage(t, "name: app\nversion: 1\nsummary: s\nmake: make -j4\n")
	cmd, err = pkg.BuildCommand(fs)
	require.NoError(t, err)
	assert.Equal(t, "make -j4", cmd)

	pkg = compilePackage(t, "name: app\nversion: 1\nsummary: s\nmake: true\n")
	assert.Equal(t, "true", pkg.Make)

	_, err = pkg.BuildCommand(fs)
	require.EqualError(t, err, "Expected configure or Makefile in '.' to build package 'app'")

	require.NoError(t, afero.WriteFile(fs, "Makefile", []byte("all:\n"), 0644))
	cmd, err = pkg.BuildCommand(fs)
	require.NoError(t, err)
	assert.Equal(t, "make", cmd)

	require.NoError(t, afero.WriteFile(fs, "configure", []byte("#!/bin/sh\n"), 0755))
	cmd, err = pkg.BuildCommand(fs)
	require.NoError(t, err)
	assert.Equal(t, "./configure && make", cmd)
}

func TestBuildCommandInDeclaredSourceDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "sub/Makefile", []byte("all:\n"), 0644))

	pkg := compilePackage(t, "name: app\nversion: 1\nsummary: s\nsrcdir: sub\nmake: true\n")
	assert.Equal(t, "sub", pkg.SrcDir)
	assert.True(t, pkg.HasMakefile(fs))

	cmd, err := pkg.BuildCommand(fs)
	require.NoError(t, err)
	assert.Equal(t, "make", cmd)
}
