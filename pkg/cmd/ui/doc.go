// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

/*
Package ui is the terminal of the qrpm commands: plain output goes to stdout,
warnings and debug output (including the structured log) go to stderr.
*/
package ui
