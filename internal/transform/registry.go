// Package transform holds the post-processing stages that sit between a
// rewritten module and its destination.
//
// Stages are looked up per source file. The rewriter never knows what a stage
// does, only that its output feeds the next stage and the last output goes to
// the compiler.
package transform

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
)

// Transform is one post-processing stage.
type Transform interface {
	Name() string
	Apply(ctx context.Context, in []byte, file File) ([]byte, error)
}

// Chain applies transforms in order.
type Chain []Transform

// Apply runs every stage, feeding each one the previous output.
func (c Chain) Apply(ctx context.Context, in []byte, file File) ([]byte, error) {
	out := in
	for i, t := range c {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := t.Apply(ctx, out, file)
		if err != nil {
			return nil, fmt.Errorf("post-processor %d (%s): %w", i+1, t.Name(), err)
		}
		out = next
	}
	return out, nil
}

// Registry maps source files to their chains. Keys are absolute, cleaned paths.
type Registry struct {
	mu     sync.RWMutex
	chains map[string]Chain
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{chains: make(map[string]Chain)}
}

// Register appends transforms to the chain of source.
func (r *Registry) Register(source string, transforms ...Transform) error {
	k, err := registryKey(source)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chains[k] = append(r.chains[k], transforms...)
	return nil
}

// Lookup returns the chain registered for source, or nil.
func (r *Registry) Lookup(source string) Chain {
	if r == nil {
		return nil
	}
	k, err := registryKey(source)
	if err != nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.chains[k]
}

// Len returns the number of sources with a chain.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.chains)
}

func registryKey(source string) (string, error) {
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", source, err)
	}
	return filepath.Clean(abs), nil
}

// CommandTransform pipes the text through an external command.
type CommandTransform struct {
	Command string
	Runner  CommandRunner
}

// NewCommandTransform validates cmdline and returns a stage for it.
func NewCommandTransform(cmdline string, runner CommandRunner) (*CommandTransform, error) {
	if _, err := SplitCommand(cmdline, File{}.vars()); err != nil {
		return nil, err
	}
	return &CommandTransform{Command: cmdline, Runner: runner}, nil
}

func (c *CommandTransform) Name() string { return c.Command }

func (c *CommandTransform) Apply(ctx context.Context, in []byte, file File) ([]byte, error) {
	return RunCommand(ctx, c.Runner, c.Command, file, in)
}

// Func adapts a function into a Transform.
type Func struct {
	Label string
	Fn    func(ctx context.Context, in []byte, file File) ([]byte, error)
}

func (f Func) Name() string { return f.Label }

func (f Func) Apply(ctx context.Context, in []byte, file File) ([]byte, error) {
	return f.Fn(ctx, in, file)
}
