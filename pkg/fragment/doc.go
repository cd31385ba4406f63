// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package fragment lexes qrpm values into fragments and renders them.

A value such as

	$pckdir/${name}-$(git -C ${{srcdir}} describe)

is split into literal text, variable references ($NAME or ${NAME}) and
command substitutions ($(CMD)). Inside a command only ${{NAME}} references
are recognized; their values are pasted into the command line verbatim
before it is run by bash with "set -eo pipefail".

Backslashes before a reference come in pairs: each pair renders as one
backslash and an odd backslash left over turns the reference into literal
text. Inside commands backslashes belong to the shell and are kept as is.
*/
package fragment
