// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package loader reads package description files into ordered maps.

Besides decoding YAML it strips everything after an __END__ line, merges
files named by the top-level "include" key and records the position of every
key so that later errors can point back into the source.
*/
package loader
