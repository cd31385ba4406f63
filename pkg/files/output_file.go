// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"path/filepath"

	"github.com/spf13/afero"
)

// OutputFile is compiled output destined for a file.
type OutputFile struct {
	path string
	data []byte
}

func NewOutputFile(path string, data []byte) OutputFile {
	return OutputFile{path, data}
}

func (f OutputFile) Path() string  { return f.path }
func (f OutputFile) Bytes() []byte { return f.data }

// Create writes the file, creating missing parent directories.
func (f OutputFile) Create(fs afero.Fs) error {
	err := fs.MkdirAll(filepath.Dir(f.path), 0755)
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, f.path, f.data, 0644)
}
