// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package files

import (
	"fmt"
	"io"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// Source is where a description file comes from.
type Source interface {
	Description() string
	// Name is used in positions of errors (eg. "qrpm.yml:3")
	Name() string
	// Dir is the directory relative includes are searched in
	Dir() string
	Bytes() ([]byte, error)
}

var _ []Source = []Source{BytesSource{}, StdinSource{}, LocalSource{}, HTTPSource{}}

// NewSource picks the source for a path given on the command line: "-" is
// standard input and http(s) URLs are fetched.
func NewSource(fs afero.Fs, path string) Source {
	switch {
	case path == "-":
		return NewStdinSource()
	case strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://"):
		return NewHTTPSource(path)
	default:
		return NewLocalSource(fs, path)
	}
}

type BytesSource struct {
	path string
	data []byte
}

func NewBytesSource(path string, data []byte) BytesSource { return BytesSource{path, data} }

func (s BytesSource) Description() string    { return s.path }
func (s BytesSource) Name() string           { return s.path }
func (s BytesSource) Dir() string            { return filepath.Dir(s.path) }
func (s BytesSource) Bytes() ([]byte, error) { return s.data, nil }

// StdinSource reads standard input when its bytes are first asked for.
type StdinSource struct{}

func NewStdinSource() StdinSource { return StdinSource{} }

func (s StdinSource) Description() string    { return "stdin" }
func (s StdinSource) Name() string           { return "stdin.yml" }
func (s StdinSource) Dir() string            { return "." }
func (s StdinSource) Bytes() ([]byte, error) { return ReadStdin() }

type LocalSource struct {
	fs   afero.Fs
	path string
}

func NewLocalSource(fs afero.Fs, path string) LocalSource { return LocalSource{fs, path} }

func (s LocalSource) Description() string { return fmt.Sprintf("file '%s'", s.path) }
func (s LocalSource) Name() string        { return s.path }
func (s LocalSource) Dir() string         { return filepath.Dir(s.path) }

func (s LocalSource) Bytes() ([]byte, error) { return afero.ReadFile(s.fs, s.path) }

type HTTPSource struct {
	url    string
	Client *http.Client
}

func NewHTTPSource(path string) HTTPSource { return HTTPSource{path, &http.Client{}} }

func (s HTTPSource) Description() string {
	return fmt.Sprintf("HTTP URL '%s'", s.url)
}

func (s HTTPSource) Name() string { return path.Base(s.url) }
func (s HTTPSource) Dir() string  { return "." }

func (s HTTPSource) Bytes() ([]byte, error) {
	resp, err := s.Client.Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("Requesting URL '%s': %s", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("Requesting URL '%s': %s", s.url, resp.Status)
	}

	result, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("Reading URL '%s': %s", s.url, err)
	}

	return result, nil
}
