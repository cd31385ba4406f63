// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package fragment_test

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"carvel.dev/qrpm/pkg/fragment"
	"github.com/stretchr/testify/require"
)

func requireBash(t *testing.T) {
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash is not available")
	}
}

func TestShellRunner(t *testing.T) {
	requireBash(t)

	runner := fragment.NewShellRunner(fragment.ShellRunnerOpts{})
	renderer := fragment.NewRenderer(runner, fragment.RendererOpts{})

	result, err := renderer.Render(context.Background(), fragment.ParseString("$(echo hi)"), nil)
	require.NoError(t, err)
	require.Equal(t, "hi", result)

	// Only one trailing newline is removed
	result, err = renderer.Render(context.Background(), fragment.ParseString(`$(printf 'a\n\n')`), nil)
	require.NoError(t, err)
	require.Equal(t, "a\n", result)
}

func TestShellRunnerPipefail(t *testing.T) {
	requireBash(t)

	runner := fragment.NewShellRunner(fragment.ShellRunnerOpts{})

	_, err := runner.Run(context.Background(), "echo oops >&2; false | cat")
	require.Error(t, err)

	var cmdErr *fragment.CommandFailedError
	require.True(t, errors.As(err, &cmdErr))
	require.Equal(t, 1, cmdErr.ExitCode)
	require.Equal(t, "oops\n", cmdErr.Stderr)
	require.Equal(t, "Failed expanding '$(echo oops >&2; false | cat)': exit status 1\noops", err.Error())
}

func TestShellRunnerKeepsStderrTail(t *testing.T) {
	requireBash(t)

	runner := fragment.NewShellRunner(fragment.ShellRunnerOpts{MaxStderr: 4})

	_, err := runner.Run(context.Background(), "printf 'abcdefgh' >&2; exit 3")

	var cmdErr *fragment.CommandFailedError
	require.True(t, errors.As(err, &cmdErr))
	require.Equal(t, 3, cmdErr.ExitCode)
	require.Equal(t, "efgh", cmdErr.Stderr)
}

func TestShellRunnerEnvAndDir(t *testing.T) {
	requireBash(t)

	dir := t.TempDir()
	runner := fragment.NewShellRunner(fragment.ShellRunnerOpts{Dir: dir, Env: []string{"QRPM_TEST_VAR=set"}})

	out, err := runner.Run(context.Background(), "echo $QRPM_TEST_VAR; pwd")
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.Equal(t, "set", lines[0])
	require.Contains(t, lines[1], strings.TrimPrefix(dir, "/private"))
}

func TestShellRunnerCancelled(t *testing.T) {
	requireBash(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fragment.NewShellRunner(fragment.ShellRunnerOpts{}).Run(ctx, "sleep 5")
	require.Error(t, err)
}
