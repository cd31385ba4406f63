// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package files provides primitives for loading package descriptions from
file or file-like Source's (local files, standard input, HTTP URLs) and for
writing compiled output to files.

Local access goes through an afero.Fs so that callers and tests can swap in
an in-memory filesystem.
*/
package files
