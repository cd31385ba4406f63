// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package pkg is the collection of packages that make up the implementation of qrpm.

Packages are layered; each depends on the packages below it only to the degree
required.

In the inventory, below, individual packages are named alongside their coupling
with the other packages in the codebase.

	(# of dependents) => <package name> => (# of dependencies)

# Entry Point

qrpm is built into a single command-line tool:

	./cmd/qrpm

# Commands

The root command compiles a description. The remaining commands show the
intermediate state of a compilation (the entry tree, dependencies) or the
package view of its result.

	(1) => pkg/cmd => (6)
	(1) => pkg/cmd/compile => (7)

# Loading

A description is a YAML mapping read from a file, possibly assembled from
several included files. Positions of keys are recorded so errors can point at
the line that caused them.

	(1) => pkg/loader => (4)
	(2) => pkg/files => (0)
	(2) => pkg/filepos => (0)

# Compiling

Compilation has three stages: assembly of an entry tree from the description,
analysis of the tree (standard directories, references, fields) and evaluation
of the entries in dependency order.

	(3) => pkg/compiler => (4)
	(5) => pkg/ast => (2)
	(3) => pkg/fragment => (1)

The result is consumed as a dictionary or through the package view:

	(1) => pkg/pkgspec => (3)

# Utilities

	(2) => pkg/cmd/ui => (0)
	(6) => pkg/orderedmap => (0)
	(1) => pkg/version => (0)

# Dependencies

Each package's dependencies on other packages within this module are as follows
(if a package is not listed, it has no dependencies on other packages within
this module):

	pkg/cmd:
	- pkg/cmd/compile
	- pkg/pkgspec
	- pkg/compiler
	- pkg/ast
	- pkg/cmd/ui
	- pkg/version
	pkg/cmd/compile:
	- pkg/loader
	- pkg/compiler
	- pkg/ast
	- pkg/fragment
	- pkg/files
	- pkg/cmd/ui
	- pkg/orderedmap
	pkg/pkgspec:
	- pkg/compiler
	- pkg/ast
	- pkg/orderedmap
	pkg/loader:
	- pkg/ast
	- pkg/files
	- pkg/filepos
	- pkg/orderedmap
	pkg/compiler:
	- pkg/ast
	- pkg/fragment
	- pkg/filepos
	- pkg/orderedmap
	pkg/ast:
	- pkg/fragment
	- pkg/orderedmap
	pkg/fragment:
	- pkg/orderedmap
*/
package pkg
