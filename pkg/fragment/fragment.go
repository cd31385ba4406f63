// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package fragment

import (
	"fmt"
	"strings"

	"carvel.dev/qrpm/pkg/orderedmap"
)

// Fragment is one lexical piece of a value. The set of implementations is
// closed: Text, Nil, Variable, CommandVariable, Command and Expression.
type Fragment interface {
	// Source is the text the fragment was parsed from
	Source() string
	// Variables lists referenced names in first occurrence order
	Variables() []string
	// Signature is a compact description used by dumps and tests
	Signature() string

	sealed()
}

var _ = []Fragment{&Text{}, &Nil{}, &Variable{}, &CommandVariable{}, &Command{}, &Expression{}}

type Text struct {
	Literal string
}

type Nil struct{}

// Variable is $NAME or ${NAME}. Name may contain dots to refer to members
// of maps (eg. pkg.home).
type Variable struct {
	source string
	Name   string
}

// CommandVariable is ${{NAME}} inside a command.
type CommandVariable struct {
	source string
	Name   string
}

// Command is $(CMD). Children are the fragments of CMD.
type Command struct {
	source   string
	Children []Fragment
}

func (*Text) sealed()            {}
func (*Nil) sealed()             {}
func (*Variable) sealed()        {}
func (*CommandVariable) sealed() {}
func (*Command) sealed()         {}
func (*Expression) sealed()      {}

func (f *Text) Source() string      { return f.Literal }
func (f *Text) Variables() []string { return nil }
func (f *Text) Signature() string   { return fmt.Sprintf("Text(%s)", quote(f.Literal)) }

func (f *Nil) Source() string      { return "" }
func (f *Nil) Variables() []string { return nil }
func (f *Nil) Signature() string   { return "Nil" }

func (f *Variable) Source() string      { return f.source }
func (f *Variable) Variables() []string { return []string{f.Name} }
func (f *Variable) Signature() string   { return fmt.Sprintf("Variable(%s)", f.Name) }

func (f *CommandVariable) Source() string      { return f.source }
func (f *CommandVariable) Variables() []string { return []string{f.Name} }
func (f *CommandVariable) Signature() string   { return fmt.Sprintf("CommandVariable(%s)", f.Name) }

func (f *Command) Source() string { return f.source }

// Command returns the command line without the surrounding "$(" and ")".
func (f *Command) Command() string { return f.source[2 : len(f.source)-1] }

func (f *Command) Variables() []string { return variablesOf(f.Children) }

func (f *Command) Signature() string {
	return fmt.Sprintf("Command(%s){%s}", quote(f.source), signaturesOf(f.Children))
}

// Expression is the parsed form of one key or value. Its fragments never
// change after parsing. Every string it renders to is remembered so that a
// repeated rendering to the same string can be refused.
type Expression struct {
	source   string
	Children []Fragment

	seen map[string]struct{}
}

func (e *Expression) Source() string      { return e.source }
func (e *Expression) Variables() []string { return variablesOf(e.Children) }

func (e *Expression) Signature() string {
	return fmt.Sprintf("Expression(%s){%s}", quote(e.source), signaturesOf(e.Children))
}

// IsNil is true for expressions parsed from a YAML null.
func (e *Expression) IsNil() bool {
	if len(e.Children) != 1 {
		return false
	}
	_, ok := e.Children[0].(*Nil)
	return ok
}

// IsConstant is true when rendering does not depend on a dictionary and runs
// no command.
func (e *Expression) IsConstant() bool {
	for _, child := range e.Children {
		switch child.(type) {
		case *Text, *Nil:
		default:
			return false
		}
	}
	return true
}

func (e *Expression) remember(result string) bool {
	if e.seen == nil {
		e.seen = map[string]struct{}{}
	}
	if _, found := e.seen[result]; found {
		return false
	}
	e.seen[result] = struct{}{}
	return true
}

func variablesOf(frags []Fragment) []string {
	names := orderedmap.NewSet[string]()
	for _, frag := range frags {
		names.Add(frag.Variables()...)
	}
	return names.Items()
}

func signaturesOf(frags []Fragment) string {
	var sigs []string
	for _, frag := range frags {
		sigs = append(sigs, frag.Signature())
	}
	return strings.Join(sigs, ", ")
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
