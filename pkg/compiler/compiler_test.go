// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package compiler_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"carvel.dev/qrpm/pkg/ast"
	"carvel.dev/qrpm/pkg/compiler"
	"carvel.dev/qrpm/pkg/fragment"
	"carvel.dev/qrpm/pkg/loader"
	"carvel.dev/qrpm/pkg/orderedmap"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	commands []string
	outputs  map[string]string
	failures map[string]error
}

func (r *fakeRunner) Run(_ context.Context, cmdLine string) (string, error) {
	r.commands = append(r.commands, cmdLine)
	if err, found := r.failures[cmdLine]; found {
		return "", &fragment.CommandFailedError{Command: cmdLine, Err: err, ExitCode: 1}
	}
	return r.outputs[cmdLine], nil
}

func newCompiler(t *testing.T, src string, dict *orderedmap.StringMap, opts compiler.Opts) (*compiler.Compiler, *orderedmap.StringMap) {
	doc, err := loader.ParseBytes([]byte(src), "qrpm.yml")
	require.NoError(t, err)

	if opts.Runner == nil {
		opts.Runner = &fakeRunner{}
	}
	opts.Positions = doc.Positions
	return compiler.New(dict, opts), doc.Values
}

func compile(t *testing.T, src string, opts compiler.Opts) (*compiler.Result, error) {
	c, doc := newCompiler(t, src, nil, opts)
	return c.Compile(context.Background(), doc)
}

const header = "name: app\nversion: 1.0\nsummary: s\n"

func TestUndefinedVariableInMap(t *testing.T) {
	_, err := compile(t, header+"a:\n  b: $c\n", compiler.NewOpts())
	require.EqualError(t, err, "Undefined variable 'c' in definition of 'a.b' (qrpm.yml:5)")

	var undefErr *compiler.UndefinedVariableError
	require.True(t, errors.As(err, &undefErr))
	require.Equal(t, "a.b", undefErr.Path)
	require.Equal(t, "c", undefErr.Name)
}

func TestUndefinedVariablesAreCollected(t *testing.T) {
	_, err := compile(t, header+"a: $x\nb: $y\n", compiler.NewOpts())
	require.EqualError(t, err, `2 errors occurred:
- Undefined variable 'x' in definition of 'a' (qrpm.yml:4)
- Undefined variable 'y' in definition of 'b' (qrpm.yml:5)`)
}

func TestIllegalReference(t *testing.T) {
	_, err := compile(t, header+"require: [a, b]\nx: $require\n", compiler.NewOpts())
	require.EqualError(t, err, "Can't reference non-variable 'require' in definition of 'x' (qrpm.yml:5)")

	_, err = compile(t, header+"pkg:\n  home: /h\nx: $pkg\n", compiler.NewOpts())
	require.EqualError(t, err, "Can't reference non-variable 'pkg' in definition of 'x' (qrpm.yml:6)")

	var refErr *compiler.IllegalReferenceError
	require.True(t, errors.As(err, &refErr))
}

func TestIllegalKey(t *testing.T) {
	_, err := compile(t, header+"bad key!: x\n", compiler.NewOpts())
	require.EqualError(t, err, "Illegal key 'bad key!' (qrpm.yml:4)")
}

func TestIllegalFileSpecs(t *testing.T) {
	testCases := []struct {
		Description string
		Src         string
		ExpectedErr string
	}{
		{
			Description: "symlink with perm",
			Src:         "/usr/bin: [{symlink: /bin/true, perm: 0755}]\n",
			ExpectedErr: "Illegal file '/usr/bin[0]': can't use 'perm' together with 'symlink' or 'reflink' (qrpm.yml:4)",
		},
		{
			Description: "reflink with perm",
			Src:         "/usr/bin: [{reflink: /bin/true, perm: 0755}]\n",
			ExpectedErr: "Illegal file '/usr/bin[0]': can't use 'perm' together with 'symlink' or 'reflink' (qrpm.yml:4)",
		},
		{
			Description: "no source",
			Src:         "/usr/bin: [{name: x}]\n",
			ExpectedErr: "Illegal file '/usr/bin[0]': exactly one of 'file', 'symlink', or 'reflink' should be defined (qrpm.yml:4)",
		},
		{
			Description: "two sources",
			Src:         "/usr/bin: [{file: a, symlink: b}]\n",
			ExpectedErr: "Illegal file '/usr/bin[0]': exactly one of 'file', 'symlink', or 'reflink' should be defined (qrpm.yml:4)",
		},
		{
			Description: "unknown attributes",
			Src:         "/usr/bin: [{file: a, mode: x, owner: y}]\n",
			ExpectedErr: "Illegal file attribute(s) in '/usr/bin[0]': mode, owner (qrpm.yml:4)",
		},
		{
			Description: "nested list",
			Src:         "/usr/bin: [[a]]\n",
			ExpectedErr: "Illegal file '/usr/bin[0]': expected a file name or a file but was list (qrpm.yml:4)",
		},
		{
			Description: "number directory",
			Src:         "/usr/bin: 1\n",
			ExpectedErr: "Illegal file '/usr/bin': expected a file name, a file or a list of files but was number (qrpm.yml:4)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.Description, func(t *testing.T) {
			_, err := compile(t, header+tc.Src, compiler.NewOpts())
			require.EqualError(t, err, tc.ExpectedErr)
		})
	}
}

func TestFieldTypes(t *testing.T) {
	_, err := compile(t, "name: app\nsummary: s\nversion:\n  major: 1\n", compiler.NewOpts())
	require.EqualError(t, err, "Illegal type of field 'version' (expected scalar but was map) (qrpm.yml:3)")

	// a list under a scalar field is a directory
	_, err = compile(t, header+"license: [a, b]\n", compiler.NewOpts())
	require.EqualError(t, err, "Illegal type of field 'license' (expected scalar but was directory) (qrpm.yml:4)")

	res, err := compile(t, header+"require: bash\n", compiler.NewOpts())
	require.NoError(t, err)
	require.Equal(t, []string{"bash"}, res.Dict.Strings("require"))
}

func TestMissingMandatoryFields(t *testing.T) {
	_, err := compile(t, "name: app\nsummary: \"\"\n", compiler.Opts{})
	require.EqualError(t, err, "Missing mandatory fields 'version', 'summary'")
}

func TestStandardDirectoryAssignment(t *testing.T) {
	t.Run("package directory when used by one directory", func(t *testing.T) {
		res, err := compile(t, header+"$etcdir: app.conf\n", compiler.NewOpts())
		require.NoError(t, err)

		require.Len(t, res.Directories, 1)
		assert.Equal(t, "//etc/app", res.Directories[0].Dir())
		assert.Equal(t, "//etc/app", res.Dict.String("etcdir"))

		require.Len(t, res.Files, 1)
		assert.Equal(t, "./app.conf", res.Files[0].SrcPath())
		assert.Equal(t, "//etc/app/app.conf", res.Files[0].DstPath())
	})

	t.Run("system directory when used by several directories", func(t *testing.T) {
		res, err := compile(t, header+"$etcdir: a.conf\n$etcdir/sub: b.conf\n", compiler.NewOpts())
		require.NoError(t, err)

		assert.Equal(t, "//etc", res.Dict.String("etcdir"))
		assert.Equal(t, []string{"//etc/a.conf", "//etc/sub/b.conf"},
			[]string{res.Files[0].DstPath(), res.Files[1].DstPath()})
	})

	t.Run("declared standard directory is kept", func(t *testing.T) {
		res, err := compile(t, header+"etcdir: /opt/etc\n$etcdir: app.conf\n", compiler.NewOpts())
		require.NoError(t, err)
		assert.Equal(t, "/opt/etc/app.conf", res.Files[0].DstPath())
	})

	t.Run("unused standard directories are system directories", func(t *testing.T) {
		c, doc := newCompiler(t, header, nil, compiler.NewOpts())
		_, err := c.Assemble(doc)
		require.NoError(t, err)
		require.NoError(t, c.Analyze(compiler.AllChecks()))

		entry, _ := c.Definitions().Get("bindir")
		assert.Equal(t, "StandardDir(bindir,$sysbindir)", entry.Signature())
		deps, _ := c.Dependencies().Get("bindir")
		assert.Equal(t, []string{"sysbindir"}, deps)
	})
}

func TestFiles(t *testing.T) {
	res, err := compile(t, header+`
/usr/bin:
- app.sh
- file: build/tool
  name: ${name}-tool
  perm: 0755
/etc/$name: [{symlink: /usr/bin/app.sh, name: app}]
`, compiler.NewOpts())
	require.NoError(t, err)

	require.Len(t, res.Files, 3)

	assert.True(t, res.Files[0].IsFile())
	assert.Equal(t, "./app.sh", res.Files[0].SrcPath())
	assert.Equal(t, "/usr/bin/app.sh", res.Files[0].DstPath())

	assert.Equal(t, "./build/tool", res.Files[1].SrcPath())
	assert.Equal(t, "/usr/bin/app-tool", res.Files[1].DstPath())
	assert.Equal(t, "0755", res.Files[1].Perm())

	assert.True(t, res.Files[2].IsSymlink())
	assert.Equal(t, "/usr/bin/app.sh", res.Files[2].Symlink())
	assert.Equal(t, "/etc/app/app", res.Files[2].DstPath())
}

func TestCommandSubstitution(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{"echo hi": "hi", "git -C . describe": "v2"}}
	opts := compiler.NewOpts()
	opts.Runner = runner

	res, err := compile(t, "name: app\nsummary: s\nversion: $(git -C ${{srcdir}} describe)\nmake: $(echo hi)\n", opts)
	require.NoError(t, err)

	assert.Equal(t, "v2", res.Dict.String("version"))
	assert.Equal(t, "hi", res.Dict.String("make"))
	assert.ElementsMatch(t, []string{"echo hi", "git -C . describe"}, runner.commands)
}

func TestCommandFailureDiscardsResult(t *testing.T) {
	opts := compiler.NewOpts()
	opts.Runner = &fakeRunner{failures: map[string]error{"false": fmt.Errorf("exit status 1")}}

	res, err := compile(t, "name: app\nsummary: s\nversion: $(false)\n", opts)
	require.Nil(t, res)
	require.EqualError(t, err, "Evaluating 'version': Failed expanding '$(false)': exit status 1 (qrpm.yml:3)")

	var evalErr *compiler.EvaluationError
	require.True(t, errors.As(err, &evalErr))
	require.Equal(t, "version", evalErr.Path)

	var cmdErr *fragment.CommandFailedError
	require.True(t, errors.As(err, &cmdErr))
	require.Equal(t, "false", cmdErr.Command)
}

func TestCyclicDefinition(t *testing.T) {
	opts := compiler.NewOpts()
	opts.EvaluateAll = true

	_, err := compile(t, header+"a: $b\nb: $c\nc: $a\n", opts)
	require.EqualError(t, err, "Cyclic definition: a -> b -> c -> a")

	var cycleErr *compiler.CyclicDefinitionError
	require.True(t, errors.As(err, &cycleErr))
	require.Equal(t, []string{"a", "b", "c", "a"}, cycleErr.Cycle)
}

func TestUnreferencedDefinitionsAreNotEvaluated(t *testing.T) {
	runner := &fakeRunner{}
	opts := compiler.NewOpts()
	opts.Runner = runner

	res, err := compile(t, header+"unused: $(rm -rf /)\n", opts)
	require.NoError(t, err)
	assert.False(t, res.Dict.Has("unused"))
	assert.Empty(t, runner.commands)

	opts.EvaluateAll = true
	res, err = compile(t, header+"unused: $(echo)\n", opts)
	require.NoError(t, err)
	assert.True(t, res.Dict.Has("unused"))
}

func TestEvaluationOrder(t *testing.T) {
	opts := compiler.NewOpts()
	opts.EvaluateAll = true

	c, doc := newCompiler(t, header+"a: $b-$c\nb: ${pkg.home}\nc: x\npkg:\n  home: /home/$name\n/opt/$a: [f]\n", nil, opts)
	_, err := c.Assemble(doc)
	require.NoError(t, err)
	require.NoError(t, c.Analyze(compiler.AllChecks()))

	order, err := c.Order()
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, path := range order {
		deps, _ := c.Dependencies().Get(path)
		for _, dep := range deps {
			assert.True(t, seen[dep], "expected '%s' to come before '%s'", dep, path)
		}
		seen[path] = true
	}
	assert.True(t, seen["/opt/$a"])
	assert.False(t, seen["pkg"], "maps are not evaluated on their own")
}

func TestEvaluationOrderFromSeeds(t *testing.T) {
	c, doc := newCompiler(t, `name: app
version: $(echo ${{a}})
summary: ${pkg.home} and $b
a: x
b: $a-y
pkg:
  home: /home/$name
/opt/$b: [f]
unused: z
`, nil, compiler.Opts{})
	_, err := c.Assemble(doc)
	require.NoError(t, err)
	require.NoError(t, c.Analyze(compiler.AllChecks()))

	order, err := c.Order()
	require.NoError(t, err)

	expected := []string{"name", "a", "version", "pkg.home", "b", "summary", "/opt/$b"}
	if diff := cmp.Diff(expected, order); diff != "" {
		t.Fatalf("evaluation order mismatch (-expected +actual):\n%s", diff)
	}
}

func TestSourceDirIsAlwaysEvaluated(t *testing.T) {
	runner := &fakeRunner{outputs: map[string]string{"pwd": "/build"}}
	res, err := compile(t, header+"srcdir: $(pwd)/sub\n", compiler.Opts{Runner: runner})
	require.NoError(t, err)
	assert.Equal(t, "/build/sub", res.Dict.String("srcdir"))
	assert.Equal(t, []string{"pwd"}, runner.commands)
}

func TestDictionaryOverrides(t *testing.T) {
	opts := compiler.NewOpts()
	opts.EvaluateAll = true

	dict := orderedmap.NewMap()
	dict.Set("name", "other")
	dict.Set("pkg.home", "/srv/$name")
	dict.Set("extra", 42)

	c, doc := newCompiler(t, header+"pkg:\n  home: /home/$name\n  data: ${pkg.home}/data\n", dict, opts)
	res, err := c.Compile(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "other", res.Dict.String("name"))
	assert.Equal(t, "/srv/other", res.Dict.String("pkg.home"))
	assert.Equal(t, "/srv/other/data", res.Dict.String("pkg.data"))
	assert.Equal(t, "42", res.Dict.String("extra"))

	nested, err := res.Dict.Nested()
	require.NoError(t, err)
	pkg, _ := nested.Get("pkg")
	assert.Equal(t, []string{"home", "data"}, pkg.(*orderedmap.StringMap).Keys())
}

func TestListsResolveNestedEntries(t *testing.T) {
	res, err := compile(t, header+"require:\n- bash\n- lib$name\n- [nested-$version]\n", compiler.NewOpts())
	require.NoError(t, err)

	val, found := res.Dict.Get("require")
	require.True(t, found)
	assert.Equal(t, []interface{}{"bash", "libapp", []interface{}{"nested-1.0"}}, val)
	assert.Equal(t, []string{"bash", "libapp"}, res.Dict.Strings("require"))
}

func TestDefaults(t *testing.T) {
	opts := compiler.NewOpts()
	opts.Runner = &fakeRunner{outputs: map[string]string{"basename $PWD": "dir"}}

	res, err := compile(t, "version: 1\n", opts)
	require.NoError(t, err)

	assert.Equal(t, "dir", res.Dict.String("name"))
	assert.Equal(t, "The dir RPM package", res.Dict.String("summary"))
	assert.Equal(t, "The dir RPM package", res.Dict.String("description"))
	assert.Equal(t, "1", res.Dict.String("release"))
	assert.Equal(t, "GPL", res.Dict.String("license"))
	assert.Equal(t, compiler.DefaultPackager(), res.Dict.String("packager"))
	assert.Equal(t, "", res.Dict.String("make"))
}

func TestStagesRunInOrder(t *testing.T) {
	c, doc := newCompiler(t, header, nil, compiler.NewOpts())

	require.Panics(t, func() { _ = c.Analyze(compiler.AllChecks()) })
	require.Panics(t, func() { _, _ = c.Evaluate(context.Background()) })

	root, err := c.Assemble(doc)
	require.NoError(t, err)
	require.Same(t, root, c.Root())

	require.Panics(t, func() { _, _ = c.Assemble(doc) })
	require.Panics(t, func() { _, _ = c.Evaluate(context.Background()) })
}

func TestAssembledTree(t *testing.T) {
	c, doc := newCompiler(t, header+"/usr/bin: app.sh\n", nil, compiler.Opts{})
	root, err := c.Assemble(doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "version", "summary", "/usr/bin"}, root.Members.Keys())

	entry, _ := root.Get("/usr/bin")
	dir, ok := entry.(*ast.Directory)
	require.True(t, ok)
	assert.Equal(t, "Directory(/usr/bin,File(/usr/bin[0],app.sh))", dir.Signature())
}
