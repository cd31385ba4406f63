// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package orderedmap provides a map implementation where the order of keys is
maintained (unlike the native Go map), and an ordered set built on top of it.

Key order is what makes qrpm deterministic: top-level entries are assembled,
analyzed and evaluated in declaration order, and dependency lists keep the
order in which references first appear.
*/
package orderedmap
