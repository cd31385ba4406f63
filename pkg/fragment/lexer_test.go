// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package fragment_test

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"carvel.dev/qrpm/pkg/fragment"
	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignatures(t *testing.T) {
	cases := []struct {
		source    string
		signature string
	}{
		{"hello world", `Expression('hello world'){Text('hello world')}`},
		{"", `Expression(''){}`},
		{"$a", `Expression('$a'){Variable(a)}`},
		{"${pkg.home}x", `Expression('${pkg.home}x'){Variable(pkg.home), Text('x')}`},
		{"$a.b.c/d", `Expression('$a.b.c/d'){Variable(a.b.c), Text('/d')}`},
		{"see $name.", `Expression('see $name.'){Text('see '), Variable(name), Text('.')}`},
		{"$name..x", `Expression('$name..x'){Variable(name..x)}`},
		{"$(echo hi)", `Expression('$(echo hi)'){Command('$(echo hi)'){Text('echo hi')}}`},
		{"$a $(echo ${{b}})", `Expression('$a $(echo ${{b}})'){Variable(a), Text(' '), Command('$(echo ${{b}})'){Text('echo '), CommandVariable(b)}}`},
		{"$(ls) and $(pwd)", `Expression('$(ls) and $(pwd)'){Command('$(ls) and $(pwd)'){Text('ls) and $(pwd')}}`},
		{"$()", `Expression('$()'){Text('$()')}`},
		{"$(", `Expression('$('){Text('$(')}`},
		{"cost: $ 5", `Expression('cost: $ 5'){Text('cost: $ 5')}`},
		{"${{x}}", `Expression('${{x}}'){Text('${{x}}')}`},
		{"${x", `Expression('${x'){Text('${x')}`},
		{"$$a", `Expression('$$a'){Text('$'), Variable(a)}`},
		{`\$a`, `Expression('\$a'){Text('$a')}`},
		{`\\$a`, `Expression('\\$a'){Text('\'), Variable(a)}`},
		{`\\\$a`, `Expression('\\\$a'){Text('\$a')}`},
		{`a\b`, `Expression('a\b'){Text('a\b')}`},
		{`a\\b`, `Expression('a\\b'){Text('a\\b')}`},
		{`a\`, `Expression('a\'){Text('a')}`},
		{`a\\`, `Expression('a\\'){Text('a\')}`},
		{`\$(echo $a)`, `Expression('\$(echo $a)'){Text('$(echo $a)')}`},
		{`$(echo \${{x}})`, `Expression('$(echo \${{x}})'){Command('$(echo \${{x}})'){Text('echo \${{x}}')}}`},
		{`$(echo \\${{x}})`, `Expression('$(echo \\${{x}})'){Command('$(echo \\${{x}})'){Text('echo \\'), CommandVariable(x)}}`},
		{`$(printf 'a\n')`, `Expression('$(printf \'a\n\')'){Command('$(printf \'a\n\')'){Text('printf \'a\n\'')}}`},
		{"$(echo $a)", `Expression('$(echo $a)'){Command('$(echo $a)'){Text('echo $a')}}`},
		{"line1\n$a\nline3", "Expression('line1\n$a\nline3'){Text('line1\n'), Variable(a), Text('\nline3')}"},
	}

	for _, tc := range cases {
		t.Run(tc.source, func(t *testing.T) {
			expr := fragment.ParseString(tc.source)
			assert.Equal(t, tc.signature, expr.Signature())
			assert.Equal(t, tc.source, expr.Source())
		})
	}
}

func TestParseScalars(t *testing.T) {
	cases := []struct {
		value  interface{}
		source string
	}{
		{"str", "str"},
		{8, "8"},
		{int64(-3), "-3"},
		{1.5, "1.5"},
		{2.0, "2.0"},
		{true, "true"},
	}
	for _, tc := range cases {
		expr, err := fragment.Parse(tc.value)
		require.NoError(t, err)
		require.Equal(t, tc.source, expr.Source())
		require.False(t, expr.IsNil())
	}

	expr, err := fragment.Parse(nil)
	require.NoError(t, err)
	require.True(t, expr.IsNil())
	require.Equal(t, "", expr.Source())
	require.Equal(t, "Expression(''){Nil}", expr.Signature())

	_, err = fragment.Parse(map[string]interface{}{})
	require.EqualError(t, err, "Expected value to be a string, number, boolean or null, but was map[string]interface {}")
}

func TestVariables(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, fragment.ParseString("$a $(echo ${{b}})").Variables())
	require.Equal(t, []string{"b", "a"}, fragment.ParseString("$b/${a}/$b $(cat ${{a}} ${{b}})").Variables())
	require.Empty(t, fragment.ParseString(`\$a and \\\${b}`).Variables())
	require.Empty(t, fragment.ParseString(`plain`).Variables())
}

func TestIsPath(t *testing.T) {
	for _, valid := range []string{"name", "pkg.home", "_x", "9lives", "a..b", "a."} {
		assert.True(t, fragment.IsPath(valid), valid)
	}
	for _, invalid := range []string{"", ".a", "a/b", "$a", "a-b", "a b"} {
		assert.False(t, fragment.IsPath(invalid), invalid)
	}
}

func TestBackslashParityWithFuzzedInputs(t *testing.T) {
	randSource := getQrpmRandSource(t)
	fuzzName := fuzz.New().RandSource(randSource).Funcs(func(s *string, c fuzz.Continue) {
		const identChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_"
		n := 1 + c.Intn(8)
		var name strings.Builder
		for i := 0; i < n; i++ {
			name.WriteByte(identChars[c.Intn(len(identChars))])
		}
		*s = name.String()
	})
	rnd := rand.New(randSource)
	renderer := fragment.NewRenderer(&recordingRunner{}, fragment.RendererOpts{})

	for i := 0; i < 200; i++ {
		var name string
		fuzzName.Fuzz(&name)
		n := rnd.Intn(9)
		braces := rnd.Intn(2) == 1

		ref := "$" + name
		if braces {
			ref = "${" + name + "}"
		}
		source := "<" + strings.Repeat(`\`, n) + ref + ">"

		expected := "<" + strings.Repeat(`\`, n/2)
		if n%2 == 1 {
			expected += ref
		} else {
			expected += "value"
		}
		expected += ">"

		t.Run(fmt.Sprintf("%d backslashes before %s", n, ref), func(t *testing.T) {
			expr := fragment.ParseString(source)
			require.Equal(t, source, expr.Source())

			result, err := renderer.Render(context.Background(), expr, fragment.MapDictionary{name: "value"})
			require.NoError(t, err)
			require.Equal(t, expected, result)
		})
	}
}

func TestPlainTextIdentityWithFuzzedInputs(t *testing.T) {
	fuzzText := fuzz.New().RandSource(getQrpmRandSource(t)).Funcs(func(s *string, c fuzz.Continue) {
		*s = c.RandString()
		*s = strings.ReplaceAll(*s, "$", "S")
		*s = strings.ReplaceAll(*s, `\`, "/")
	})
	renderer := fragment.NewRenderer(&recordingRunner{}, fragment.RendererOpts{})

	for i := 0; i < 200; i++ {
		var text string
		fuzzText.Fuzz(&text)

		expr := fragment.ParseString(text)
		require.Equal(t, text, expr.Source())
		require.Empty(t, expr.Variables())

		result, err := renderer.Render(context.Background(), expr, fragment.MapDictionary{})
		require.NoError(t, err)
		require.Equal(t, text, result)
	}
}

func TestEscape(t *testing.T) {
	cases := map[string]string{
		"plain":        "plain",
		"$name":        `\$name`,
		`\$name`:       `\\\$name`,
		"${a} $(ls)":   `\${a} \$(ls)`,
		"cost: 5$":     "cost: 5$",
		`C:\dir\`:      `C:\dir\\`,
		`a\b $ \c`:     `a\b $ \c`,
		"Jane $mith":   `Jane \$mith`,
		"trailing\\\\": `trailing\\\\`,
	}
	for text, escaped := range cases {
		require.Equal(t, escaped, fragment.Escape(text), text)
	}
}

func TestEscapeRendersLiterallyWithFuzzedInputs(t *testing.T) {
	fuzzText := fuzz.New().RandSource(getQrpmRandSource(t)).Funcs(func(s *string, c fuzz.Continue) {
		const chars = `ab.$\{}() `
		n := c.Intn(16)
		var text strings.Builder
		for i := 0; i < n; i++ {
			text.WriteByte(chars[c.Intn(len(chars))])
		}
		*s = text.String()
	})
	renderer := fragment.NewRenderer(&recordingRunner{}, fragment.RendererOpts{})

	for i := 0; i < 500; i++ {
		var text string
		fuzzText.Fuzz(&text)

		expr := fragment.ParseString(fragment.Escape(text))
		require.Empty(t, expr.Variables(), "escaped %q", text)

		result, err := renderer.Render(context.Background(), expr, fragment.MapDictionary{})
		require.NoError(t, err)
		require.Equal(t, text, result, "escaped %q", text)
	}
}

func getQrpmRandSource(t *testing.T) rand.Source {
	var seed int64
	if os.Getenv("QRPM_SEED") == "" {
		seed = time.Now().UnixNano()
	} else {
		envSeed, err := strconv.Atoi(os.Getenv("QRPM_SEED"))
		require.NoError(t, err)
		seed = int64(envSeed)
	}

	t.Logf("QRPM Seed used was: [%v]. To reproduce this test failure, re-run the test with `export QRPM_SEED=%v`", seed, seed)

	return rand.NewSource(seed)
}
