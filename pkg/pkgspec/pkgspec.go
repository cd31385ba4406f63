// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

// Package pkgspec is the package level view of a compiled description: the
// built-in fields and the files to install.
package pkgspec

import (
	"fmt"
	"path/filepath"

	"carvel.dev/qrpm/pkg/ast"
	"carvel.dev/qrpm/pkg/compiler"
	"carvel.dev/qrpm/pkg/orderedmap"
	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/go-version"
	"github.com/spf13/afero"
)

// Fields are the built-in fields of the package.
type Fields struct {
	Name        string   `field:"name"`
	Version     string   `field:"version"`
	Release     string   `field:"release"`
	Summary     string   `field:"summary"`
	Description string   `field:"description"`
	Packager    string   `field:"packager"`
	License     string   `field:"license"`
	Group       string   `field:"group"`
	Require     []string `field:"require"`
	// Make is the build command, empty when nothing is built
	Make string `field:"make"`
	// SrcDir is the directory source files are relative to
	SrcDir string `field:"srcdir"`
}

type Package struct {
	Fields

	result *compiler.Result
}

// New decodes the built-in fields of res.
func New(res *compiler.Result) (*Package, error) {
	pkg := &Package{result: res}

	values := map[string]interface{}{}
	for _, key := range res.Dict.Keys() {
		val, _ := res.Dict.Get(key)
		values[key] = orderedmap.Conversion{Object: val}.AsUnorderedStringMaps()
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		// single strings become lists (eg. "require: bash")
		WeaklyTypedInput: true,
		TagName:          "field",
		Result:           &pkg.Fields,
	})
	if err != nil {
		return nil, err
	}

	err = decoder.Decode(values)
	if err != nil {
		return nil, fmt.Errorf("Decoding package fields: %s", err)
	}

	return pkg, nil
}

// ParsedVersion parses the version field.
func (p *Package) ParsedVersion() (*version.Version, error) {
	ver, err := version.NewVersion(p.Version)
	if err != nil {
		return nil, fmt.Errorf("Parsing version of package '%s': %s", p.Name, err)
	}
	return ver, nil
}

// Files returns the regular files.
func (p *Package) Files() []*ast.File {
	return p.filter(func(f *ast.File) bool { return f.IsFile() })
}

// Links returns symbolic and reference links.
func (p *Package) Links() []*ast.File {
	return p.filter(func(f *ast.File) bool { return f.IsLink() })
}

func (p *Package) Symlinks() []*ast.File {
	return p.filter(func(f *ast.File) bool { return f.IsSymlink() })
}

func (p *Package) Reflinks() []*ast.File {
	return p.filter(func(f *ast.File) bool { return f.IsReflink() })
}

func (p *Package) Directories() []*ast.Directory { return p.result.Directories }

// Dict is the resolved dictionary the package was decoded from.
func (p *Package) Dict() *compiler.Dictionary { return p.result.Dict }

// HasConfigure reports whether the source directory has a configure script.
func (p *Package) HasConfigure(fs afero.Fs) bool { return p.hasSourceFile(fs, "configure") }

// HasMakefile reports whether the source directory has a Makefile.
func (p *Package) HasMakefile(fs afero.Fs) bool { return p.hasSourceFile(fs, "Makefile") }

// BuildCommand returns the command that builds the package sources or an
// empty string when nothing is built. With make set to true the source
// directory must have a configure script or a Makefile.
func (p *Package) BuildCommand(fs afero.Fs) (string, error) {
	switch p.Make {
	case "", "false":
		return "", nil
	case "true":
		switch {
		case p.HasConfigure(fs):
			return "./configure && make", nil
		case p.HasMakefile(fs):
			return "make", nil
		default:
			return "", fmt.Errorf("Expected configure or Makefile in '%s' to build package '%s'", p.srcDir(), p.Name)
		}
	default:
		return p.Make, nil
	}
}

func (p *Package) srcDir() string {
	if p.SrcDir == "" {
		return "."
	}
	return p.SrcDir
}

func (p *Package) hasSourceFile(fs afero.Fs, name string) bool {
	found, err := afero.Exists(fs, filepath.Join(p.srcDir(), name))
	return err == nil && found
}

func (p *Package) filter(keep func(*ast.File) bool) []*ast.File {
	var result []*ast.File
	for _, file := range p.result.Files {
		if keep(file) {
			result = append(result, file)
		}
	}
	return result
}
