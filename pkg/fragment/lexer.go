// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package fragment

import (
	"fmt"
	"strconv"
	"strings"
)

// Parse turns a YAML scalar into an Expression. Numbers and booleans are
// parsed from their textual form; nil becomes a Nil fragment.
func Parse(value interface{}) (*Expression, error) {
	switch typedVal := value.(type) {
	case nil:
		return &Expression{Children: []Fragment{&Nil{}}}, nil
	case string:
		return ParseString(typedVal), nil
	case int:
		return ParseString(strconv.Itoa(typedVal)), nil
	case int64:
		return ParseString(strconv.FormatInt(typedVal, 10)), nil
	case uint64:
		return ParseString(strconv.FormatUint(typedVal, 10)), nil
	case float64:
		return ParseString(formatFloat(typedVal)), nil
	case bool:
		return ParseString(strconv.FormatBool(typedVal)), nil
	default:
		return nil, fmt.Errorf("Expected value to be a string, number, boolean or null, but was %T", value)
	}
}

// MustParse is Parse for values known to be scalars (eg. built-in tables).
func MustParse(value interface{}) *Expression {
	expr, err := Parse(value)
	if err != nil {
		panic(err.Error())
	}
	return expr
}

// ParseString scans source left to right for "text, backslash run,
// reference" triples until the end of the string.
func ParseString(source string) *Expression {
	return &Expression{source: source, Children: newScanner(source, false).scan()}
}

// Escape returns a source that parses into the literal text s.
func Escape(s string) string {
	sc := newScanner(s, false)

	var result strings.Builder
	pos := 0
	for pos < len(s) {
		if s[pos] != '\\' && s[pos] != '$' {
			result.WriteByte(s[pos])
			pos++
			continue
		}

		runEnd := pos
		for runEnd < len(s) && s[runEnd] == '\\' {
			runEnd++
		}
		backslashes := runEnd - pos

		frag, tokenEnd := sc.token(runEnd)
		switch {
		case frag != nil:
			result.WriteString(strings.Repeat(`\`, 2*backslashes+1))
			result.WriteString(s[runEnd:tokenEnd])
			pos = tokenEnd

		case runEnd == len(s):
			result.WriteString(strings.Repeat(`\`, 2*backslashes))
			pos = runEnd

		case backslashes == 0:
			result.WriteByte('$')
			pos++

		default:
			result.WriteString(s[pos:runEnd])
			pos = runEnd
		}
	}
	return result.String()
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

type scanner struct {
	data    string
	command bool // only ${{NAME}} is a reference inside commands

	frags []Fragment
	text  strings.Builder
}

func newScanner(data string, command bool) *scanner {
	return &scanner{data: data, command: command}
}

func (s *scanner) scan() []Fragment {
	pos := 0
	for pos < len(s.data) {
		if s.data[pos] != '\\' && s.data[pos] != '$' {
			s.text.WriteByte(s.data[pos])
			pos++
			continue
		}

		runEnd := pos
		for runEnd < len(s.data) && s.data[runEnd] == '\\' {
			runEnd++
		}
		backslashes := runEnd - pos

		frag, tokenEnd := s.token(runEnd)
		switch {
		case frag != nil:
			s.writeBackslashes(backslashes, true)
			if backslashes%2 == 1 {
				s.text.WriteString(s.data[runEnd:tokenEnd])
			} else {
				s.flush()
				s.frags = append(s.frags, frag)
			}
			pos = tokenEnd

		case runEnd == len(s.data):
			// End of string behaves as an empty reference
			s.writeBackslashes(backslashes, true)
			pos = runEnd

		case backslashes == 0:
			// '$' without a reference
			s.text.WriteByte(s.data[pos])
			pos++

		default:
			s.writeBackslashes(backslashes, false)
			pos = runEnd
		}
	}
	s.flush()
	return s.frags
}

// writeBackslashes emits a backslash run. Before a reference each pair
// collapses into one backslash except in commands where the shell gets them.
func (s *scanner) writeBackslashes(n int, beforeRef bool) {
	if beforeRef && !s.command {
		n /= 2
	}
	s.text.WriteString(strings.Repeat(`\`, n))
}

func (s *scanner) flush() {
	if s.text.Len() > 0 {
		s.frags = append(s.frags, &Text{Literal: s.text.String()})
		s.text.Reset()
	}
}

// token matches a reference starting at pos. It returns nil when there is
// none.
func (s *scanner) token(pos int) (Fragment, int) {
	if s.command {
		return s.commandVariableToken(pos)
	}
	if !strings.HasPrefix(s.data[pos:], "$") {
		return nil, pos
	}

	switch {
	case strings.HasPrefix(s.data[pos:], "${"):
		nameEnd := scanPath(s.data, pos+2)
		if nameEnd > pos+2 && strings.HasPrefix(s.data[nameEnd:], "}") {
			return &Variable{source: s.data[pos : nameEnd+1], Name: s.data[pos+2 : nameEnd]}, nameEnd + 1
		}

	case strings.HasPrefix(s.data[pos:], "$("):
		// Greedy: the command extends to the last ')' and is not empty
		closing := strings.LastIndexByte(s.data, ')')
		if closing > pos+2 {
			cmd := &Command{source: s.data[pos : closing+1]}
			cmd.Children = newScanner(cmd.Command(), true).scan()
			return cmd, closing + 1
		}

	default:
		nameEnd := scanPath(s.data, pos+1)
		// Trailing dots end a sentence rather than a name
		for nameEnd > pos+1 && s.data[nameEnd-1] == '.' {
			nameEnd--
		}
		if nameEnd > pos+1 {
			return &Variable{source: s.data[pos:nameEnd], Name: s.data[pos+1 : nameEnd]}, nameEnd
		}
	}
	return nil, pos
}

func (s *scanner) commandVariableToken(pos int) (Fragment, int) {
	if !strings.HasPrefix(s.data[pos:], "${{") {
		return nil, pos
	}
	nameEnd := scanPath(s.data, pos+3)
	if nameEnd > pos+3 && strings.HasPrefix(s.data[nameEnd:], "}}") {
		return &CommandVariable{source: s.data[pos : nameEnd+2], Name: s.data[pos+3 : nameEnd]}, nameEnd + 2
	}
	return nil, pos
}

// scanPath returns the end of a path starting at pos: one identifier
// character followed by identifier characters or dots.
func scanPath(data string, pos int) int {
	if pos >= len(data) || !isIdentChar(data[pos]) {
		return pos
	}
	end := pos + 1
	for end < len(data) && (isIdentChar(data[end]) || data[end] == '.') {
		end++
	}
	return end
}

func isIdentChar(c byte) bool {
	return c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// IsPath reports whether s is a plain (possibly dotted) name such as
// "pkg.home".
func IsPath(s string) bool {
	return len(s) > 0 && scanPath(s, 0) == len(s)
}
