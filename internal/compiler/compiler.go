// Package compiler hands rewritten modules to whatever produces the final
// artifact. The build only depends on the Compiler interface.
package compiler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/xslprep/internal/filelock"
	"github.com/harrison/xslprep/internal/transform"
)

// Logger is the subset of the logger used here. Nil is silent.
type Logger interface {
	LogDebug(message string)
}

// Compiler receives the final text of one module.
type Compiler interface {
	Name() string
	Compile(ctx context.Context, text []byte, file transform.File) error
}

// WriteCompiler writes the text to file.Dest, creating parent directories.
type WriteCompiler struct{}

func (WriteCompiler) Name() string { return "write" }

func (WriteCompiler) Compile(ctx context.Context, text []byte, file transform.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(file.Dest), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	if err := filelock.AtomicWrite(file.Dest, text); err != nil {
		return fmt.Errorf("write %s: %w", file.Dest, err)
	}
	return nil
}

// CommandCompiler writes the text to file.Dest and then runs Command with the
// text on stdin. $XSLPREP_SOURCE, $XSLPREP_DEST and $XSLPREP_REL are expanded
// in the command line and exported to the child.
type CommandCompiler struct {
	Command string
	Runner  transform.CommandRunner
	Log     Logger
}

// NewCommandCompiler validates cmdline.
func NewCommandCompiler(cmdline string, runner transform.CommandRunner, log Logger) (*CommandCompiler, error) {
	if _, err := transform.SplitCommand(cmdline, nil); err != nil {
		return nil, err
	}
	return &CommandCompiler{Command: cmdline, Runner: runner, Log: log}, nil
}

func (c *CommandCompiler) Name() string { return c.Command }

func (c *CommandCompiler) Compile(ctx context.Context, text []byte, file transform.File) error {
	if err := (WriteCompiler{}).Compile(ctx, text, file); err != nil {
		return err
	}
	out, err := transform.RunCommand(ctx, c.Runner, c.Command, file, text)
	if err != nil {
		return fmt.Errorf("compile %s: %w", file.RelPath, err)
	}
	if c.Log != nil && len(out) > 0 {
		c.Log.LogDebug(fmt.Sprintf("compiler output for %s: %s", file.RelPath, strings.TrimSpace(string(out))))
	}
	return nil
}

// New returns a CommandCompiler for a non-empty cmdline and a WriteCompiler otherwise.
func New(cmdline string, runner transform.CommandRunner, log Logger) (Compiler, error) {
	if strings.TrimSpace(cmdline) == "" {
		return WriteCompiler{}, nil
	}
	return NewCommandCompiler(cmdline, runner, log)
}
