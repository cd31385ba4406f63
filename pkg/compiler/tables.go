// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package compiler

import (
	"fmt"
	"os"
	"os/user"
	"strings"

	"carvel.dev/qrpm/pkg/fragment"
)

// StandardDirs are the install directories that resolve to either the
// system wide or the package private variant.
var StandardDirs = []string{
	"etcdir", "bindir", "sbindir", "libdir", "libexecdir", "sharedir", "docdir",
	"vardir", "spooldir", "rundir", "lockdir", "cachedir", "logdir", "tmpdir",
}

// Definition is a named default expression.
type Definition struct {
	Name   string
	Source interface{}
}

var RootDirs = []Definition{
	{"rootdir", "/"},
	{"rootconfdir", "$rootdir/etc"},
	{"rootexecdir", "$rootdir/usr"},
	{"rootlibdir", "$rootdir/usr"},
	{"rootconstdir", "$rootdir/usr/share"},
	{"rootdocdir", "$rootconstdir"},
	{"rootdatadir", "$rootdir/var"},
}

var SystemDirs = []Definition{
	{"sysetcdir", "$rootconfdir"},
	{"sysbindir", "$rootexecdir/bin"},
	{"syssbindir", "$rootexecdir/sbin"},
	{"syslibdir", "$rootlibdir/lib64"},
	{"syslibexecdir", "$rootexecdir/libexec"},
	{"syssharedir", "$rootconstdir"},
	{"sysdocdir", "$syssharedir/doc"},
	{"sysvardir", "$rootdatadir/lib"},
	{"sysspooldir", "$rootdatadir/spool"},
	{"sysrundir", "$rootdatadir/run"},
	{"syslockdir", "$rootdatadir/lock"},
	{"syscachedir", "$rootdatadir/cache"},
	{"syslogdir", "$rootdatadir/log"},
	{"systmpdir", "/tmp"},
}

var PackageDirs = []Definition{
	{"pcketcdir", "$sysetcdir/$pckdir"},
	{"pckbindir", "$sysbindir"},
	{"pcksbindir", "$syssbindir"},
	{"pcklibdir", "$syslibdir/$pckdir"},
	{"pcklibexecdir", "$syslibexecdir/$pckdir"},
	{"pcksharedir", "$syssharedir/$pckdir"},
	{"pckdocdir", "$sysdocdir/$pckdir"},
	{"pckvardir", "$sysvardir/$pckdir"},
	{"pckspooldir", "$sysspooldir/$pckdir"},
	{"pckrundir", "$sysrundir/$pckdir"},
	{"pcklockdir", "$syslockdir/$pckdir"},
	{"pckcachedir", "$syscachedir/$pckdir"},
	{"pcklogdir", "$syslogdir/$pckdir"},
	{"pcktmpdir", "$systmpdir/$pckdir"},
}

// InstallDirs are the root, system and package directories.
func InstallDirs() []Definition {
	var result []Definition
	result = append(result, RootDirs...)
	result = append(result, SystemDirs...)
	result = append(result, PackageDirs...)
	return result
}

const SourceDirField = "srcdir"

// Defaults are added for fields the description does not declare.
func Defaults() []Definition {
	return []Definition{
		{"name", "$(basename $PWD)"},
		{"summary", "The $name RPM package"},
		{"version", "$(cd ${{srcdir}} >/dev/null && git tag -l 2>/dev/null | sort -V | tail -1 | tr -dc '.0-9' || echo 0.0.0)"},
		{"description", "$summary"},
		{"release", "1"},
		{"license", "GPL"},
		{"packager", fragment.Escape(DefaultPackager())},
		{"currdir", "."},
		{"qrpmdir", "."},
		{SourceDirField, "."},
		{"pckdir", "$name"},
		{"make", nil},
	}
}

// DefaultPackager is the full name of the current user or USER@HOSTNAME
// when it is not known.
func DefaultPackager() string {
	if u, err := user.Current(); err == nil {
		if fullName := strings.TrimSpace(strings.Split(u.Name, ",")[0]); len(fullName) > 0 {
			return fullName
		}
	}
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s@%s", os.Getenv("USER"), hostname)
}

type FieldKind int

const (
	ScalarField FieldKind = iota
	ScalarOrListField
)

// Field is a built-in field of the package.
type Field struct {
	Name string
	Kind FieldKind
}

// Fields lists the built-in fields. Their order is the order in which they
// seed evaluation.
var Fields = []Field{
	{"name", ScalarField},
	{"version", ScalarField},
	{"summary", ScalarField},
	{"release", ScalarField},
	{"description", ScalarField},
	{"packager", ScalarField},
	{"license", ScalarField},
	{"group", ScalarField},
	{"include", ScalarOrListField},
	{"require", ScalarOrListField},
	{"make", ScalarField},
}

var MandatoryFields = []string{"name", "version", "summary"}

func lookupField(name string) (Field, bool) {
	for _, field := range Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

func isListField(name string) bool {
	field, found := lookupField(name)
	return found && field.Kind == ScalarOrListField
}
