// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package loader

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"carvel.dev/qrpm/pkg/filepos"
	"carvel.dev/qrpm/pkg/files"
	"carvel.dev/qrpm/pkg/orderedmap"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
)

const IncludeKey = "include"

// Document is a loaded description with includes merged in.
type Document struct {
	Values    *orderedmap.StringMap
	Positions *filepos.Index
	// Includes lists the files that were merged, in order
	Includes []string
}

type Opts struct {
	// RelDirs are searched for "./" and "../" includes after the directory
	// of the including file
	RelDirs []string
	// SearchDirs are searched for includes that are neither relative nor
	// absolute
	SearchDirs []string
	Logger     hclog.Logger
}

type Loader struct {
	fs     afero.Fs
	opts   Opts
	logger hclog.Logger
}

func NewLoader(fs afero.Fs, opts Opts) *Loader {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Loader{fs, opts, logger.Named("loader")}
}

// Load reads the description at path ("-" is standard input).
func (l *Loader) Load(path string) (*Document, error) {
	return l.LoadSource(files.NewSource(l.fs, path))
}

func (l *Loader) LoadSource(src files.Source) (*Document, error) {
	data, err := src.Bytes()
	if err != nil {
		return nil, fmt.Errorf("Reading %s: %s", src.Description(), err)
	}

	top, err := ParseBytes(data, src.Name())
	if err != nil {
		return nil, err
	}

	doc := &Document{Values: orderedmap.NewMap(), Positions: top.Positions}

	err = top.Values.IterateErr(func(key string, val interface{}) error {
		if key != IncludeKey {
			doc.Values.Set(key, val)
			return nil
		}
		names, err := includeNames(val)
		if err != nil {
			return fmt.Errorf("%s (%s)", err, top.Positions.Lookup(key).AsCompactString())
		}
		for _, name := range names {
			err := l.include(doc, name, src.Dir())
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

func (l *Loader) include(doc *Document, name, dir string) error {
	paths, err := l.search(name, dir)
	if err != nil {
		return err
	}

	for _, path := range paths {
		l.logger.Debug("including file", "name", name, "path", path)

		data, err := files.NewLocalSource(l.fs, path).Bytes()
		if err != nil {
			return fmt.Errorf("Reading include '%s': %s", path, err)
		}

		// included files are merged as is, nested includes are not followed
		p := parser{path, doc.Positions}
		values, err := p.parse(data)
		if err != nil {
			return err
		}
		values.Iterate(func(k string, v interface{}) { doc.Values.Set(k, v) })
		doc.Includes = append(doc.Includes, path)
	}
	return nil
}

func includeNames(val interface{}) ([]string, error) {
	switch typedVal := val.(type) {
	case string:
		return []string{typedVal}, nil
	case []interface{}:
		var result []string
		for _, item := range typedVal {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("Expected include to be a string but was %T", item)
			}
			result = append(result, str)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("Expected include to be a string or a list of strings but was %T", val)
	}
}

// search finds the file(s) an include name refers to. Names containing glob
// patterns may match several files, all of which are returned.
func (l *Loader) search(name, dir string) ([]string, error) {
	var candidates []string

	switch {
	case strings.HasPrefix(name, "../") || strings.HasPrefix(name, "./"):
		for _, d := range append([]string{dir}, l.opts.RelDirs...) {
			candidates = append(candidates, filepath.Join(d, name))
		}
	case strings.HasPrefix(name, "~"):
		expanded, err := homedir.Expand(name)
		if err != nil {
			return nil, fmt.Errorf("Expanding include '%s': %s", name, err)
		}
		candidates = append(candidates, expanded)
	case filepath.IsAbs(name):
		candidates = append(candidates, name)
	default:
		for _, d := range l.opts.SearchDirs {
			candidates = append(candidates, filepath.Join(d, name))
		}
	}

	for _, candidate := range candidates {
		matches, err := l.match(candidate)
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			return matches, nil
		}
	}
	return nil, fmt.Errorf("Can't find %s", name)
}

func (l *Loader) match(candidate string) ([]string, error) {
	candidate, err := filepath.Abs(candidate)
	if err != nil {
		return nil, err
	}

	if !hasMeta(candidate) {
		info, err := l.fs.Stat(candidate)
		if err != nil || info.IsDir() {
			return nil, nil
		}
		return []string{candidate}, nil
	}

	base, pattern := doublestar.SplitPattern(filepath.ToSlash(candidate))
	fsys := afero.NewIOFS(afero.NewBasePathFs(l.fs, base))

	matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("Expanding include pattern '%s': %s", candidate, err)
	}
	sort.Strings(matches)

	var result []string
	for _, m := range matches {
		result = append(result, filepath.Join(base, m))
	}
	return result, nil
}

func hasMeta(path string) bool { return strings.ContainsAny(path, "*?[{") }
