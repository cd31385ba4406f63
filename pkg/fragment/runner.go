// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package fragment

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/apparentlymart/go-shquot/shquot"
	"github.com/armon/circbuf"
	"github.com/hashicorp/go-hclog"
)

// Runner runs the rendered command line of a $(...) fragment and returns its
// standard output.
type Runner interface {
	Run(ctx context.Context, cmdLine string) (string, error)
}

const (
	shellPreamble = "set -eo pipefail; "

	defaultShell     = "bash"
	defaultMaxStderr = 64 * 1024
)

type ShellRunnerOpts struct {
	Shell     string   // defaults to bash
	Dir       string   // working directory, current directory when empty
	Env       []string // appended to the inherited environment
	MaxStderr int64    // tail of stderr kept for errors

	Logger hclog.Logger
}

// ShellRunner runs commands with "<shell> -c" in strict mode so that any
// failing command of a pipeline fails the whole substitution.
type ShellRunner struct {
	opts ShellRunnerOpts
}

var _ Runner = &ShellRunner{}

func NewShellRunner(opts ShellRunnerOpts) *ShellRunner {
	if opts.Shell == "" {
		opts.Shell = defaultShell
	}
	if opts.MaxStderr <= 0 {
		opts.MaxStderr = defaultMaxStderr
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	return &ShellRunner{opts}
}

func (r *ShellRunner) Run(ctx context.Context, cmdLine string) (string, error) {
	argv := []string{r.opts.Shell, "-c", shellPreamble + cmdLine}

	stderr, err := circbuf.NewBuffer(r.opts.MaxStderr)
	if err != nil {
		return "", err
	}
	var stdout bytes.Buffer

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.opts.Dir
	if len(r.opts.Env) > 0 {
		cmd.Env = append(cmd.Environ(), r.opts.Env...)
	}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	t1 := time.Now()
	err = cmd.Run()

	r.opts.Logger.Debug("ran command", "command", shquot.POSIXShell(argv),
		"duration", time.Since(t1), "stderr_bytes", stderr.TotalWritten())

	if err != nil {
		cmdErr := &CommandFailedError{Command: cmdLine, Stderr: stderr.String(), ExitCode: -1, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		return "", cmdErr
	}
	return chomp(stdout.String()), nil
}

// chomp removes one trailing line ending.
func chomp(s string) string {
	for _, suffix := range []string{"\r\n", "\n", "\r"} {
		if strings.HasSuffix(s, suffix) {
			return strings.TrimSuffix(s, suffix)
		}
	}
	return s
}
