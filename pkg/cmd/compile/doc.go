// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package compile implements the command that resolves a package description:
it loads the description, applies values given on the command line,
compiles it and prints the resolved values and files.
*/
package compile
