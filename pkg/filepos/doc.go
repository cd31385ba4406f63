// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package filepos provides the concept of Position: a source name (usually a file)
and line number within that source.

File positions are crucial when reporting errors to the user. Compiler errors
name the path of the offending entry (eg. "pkg.home"); an Index recorded while
loading the description file turns that path back into "qrpm.yml:12".

Not all Position point within a file (e.g. values given on the command line).
The zero-value of Position (can be created using NewUnknownPosition())
represents this case.
*/
package filepos
