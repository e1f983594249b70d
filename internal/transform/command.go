package transform

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// Variables exposed to external commands, both for $VAR expansion in the
// command line and in the child environment.
const (
	EnvSource = "XSLPREP_SOURCE"
	EnvDest   = "XSLPREP_DEST"
	EnvRel    = "XSLPREP_REL"
)

// ErrEmptyCommand is returned for a command line with no words.
var ErrEmptyCommand = errors.New("empty command")

// File identifies the module a command is working on.
type File struct {
	Source  string
	Dest    string
	RelPath string
}

func (f File) vars() map[string]string {
	return map[string]string{
		EnvSource: f.Source,
		EnvDest:   f.Dest,
		EnvRel:    f.RelPath,
	}
}

// SplitCommand splits a command line with POSIX shell word rules, expanding
// $VAR from vars first and the process environment second.
func SplitCommand(cmdline string, vars map[string]string) ([]string, error) {
	args, err := shell.Fields(cmdline, func(name string) string {
		if v, ok := vars[name]; ok {
			return v
		}
		return os.Getenv(name)
	})
	if err != nil {
		return nil, fmt.Errorf("parse command %q: %w", cmdline, err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrEmptyCommand, cmdline)
	}
	return args, nil
}

// CommandRunner runs one external command. Injected in tests.
type CommandRunner interface {
	Run(ctx context.Context, args []string, env []string, stdin []byte) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	WorkDir string // Working directory for commands (empty = current dir)
}

// Run starts args[0], feeds stdin and returns stdout. Stderr is folded into the
// error when the command fails.
func (r ExecRunner) Run(ctx context.Context, args []string, env []string, stdin []byte) ([]byte, error) {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if r.WorkDir != "" {
		cmd.Dir = r.WorkDir
	}
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("%s: %w", args[0], err)
		}
		return nil, fmt.Errorf("%s: %w: %s", args[0], err, msg)
	}
	return stdout.Bytes(), nil
}

// RunCommand expands cmdline for file and runs it with runner.
func RunCommand(ctx context.Context, runner CommandRunner, cmdline string, file File, stdin []byte) ([]byte, error) {
	vars := file.vars()
	args, err := SplitCommand(cmdline, vars)
	if err != nil {
		return nil, err
	}
	env := make([]string, 0, len(vars))
	for _, k := range []string{EnvSource, EnvDest, EnvRel} {
		env = append(env, k+"="+vars[k])
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return runner.Run(ctx, args, env, stdin)
}
