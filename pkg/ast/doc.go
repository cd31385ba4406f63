// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package ast holds the entry tree of a package description.

Every declared key becomes an Entry: Scalar, Map, List, Directory, File or
StandardDir. The set is closed (each type implements an unexported method)
so that type switches over entries can be exhaustive.

Entries are addressed by path. Map members append ".name" to the path of
their parent, list elements append "[index]", top-level entries use their
key. A Directory is addressed by the source text of its key (eg.
"$pcketcdir/conf.d") since the key itself is interpolated.

Paths are computed when an entry is created and never change. Values are
filled in exactly once during evaluation.
*/
package ast
