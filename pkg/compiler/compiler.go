// Package compiler turns command-definition format strings into nodes of
// the shared command graph.
//
// Each definition is parsed completely before the graph is touched, so a
// syntax error or malformed range leaves the graph exactly as it was. The
// only error that can happen while linking is a duplicate command, and that
// one is detected at the terminal position where every node on the path
// already existed.
package compiler

import (
	"log/slog"

	"github.com/psaab/cmdgraph/pkg/graph"
	"github.com/psaab/cmdgraph/pkg/lexer"
)

// Observer is notified after every compilation attempt.
type Observer interface {
	Compiled(command string, err error)
}

// Options configures a Compiler.
type Options struct {
	Logger   *slog.Logger // nil = slog.Default()
	Observer Observer     // nil = none
}

// Compiler merges command definitions into a Store. Any number of
// Compilers may share one Store; compilations are serialized by the Store.
type Compiler struct {
	store    *graph.Store
	logger   *slog.Logger
	observer Observer
}

// New creates a Compiler that grows store.
func New(store *graph.Store, opts Options) *Compiler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{
		store:    store,
		logger:   logger,
		observer: opts.Observer,
	}
}

// Store returns the graph this compiler grows.
func (c *Compiler) Store() *graph.Store {
	return c.store
}

// Compile lexes format and merges it into the graph with payload attached
// to its End node. It returns the node of the command's first word.
func (c *Compiler) Compile(format string, payload any) (*graph.Node, error) {
	return c.compile(format, lexer.New(format), payload)
}

// CompileTokens is Compile for an already tokenized definition.
func (c *Compiler) CompileTokens(src lexer.TokenSource, payload any) (*graph.Node, error) {
	return c.compile("", src, payload)
}

func (c *Compiler) compile(format string, src lexer.TokenSource, payload any) (*graph.Node, error) {
	var (
		root *graph.Node
		cmd  *command
	)
	err := c.store.Update(func() error {
		var err error
		root, cmd, err = c.link(src, payload)
		return err
	})
	label := format
	if cmd != nil && label == "" {
		label = cmd.String()
	}
	if err != nil {
		c.logger.Warn("command rejected", "command", label, "err", err)
	} else {
		c.logger.Debug("command compiled", "command", label, "nodes", c.store.Len())
	}
	if c.observer != nil {
		c.observer.Compiled(label, err)
	}
	return root, err
}

func (c *Compiler) link(src lexer.TokenSource, payload any) (*graph.Node, *command, error) {
	cmd, err := parse(src)
	if err != nil {
		return nil, nil, err
	}

	b := &buildContext{store: c.store, cursor: c.store.Root()}
	if err := b.add(cmd.root); err != nil {
		return nil, cmd, err
	}
	root := b.cursor
	if err := b.sequence(cmd.elems); err != nil {
		return nil, cmd, err
	}

	end := c.store.Create(graph.End{Payload: payload})
	if got := c.store.InsertChild(b.cursor, end); got != end {
		return nil, cmd, &DuplicateError{Command: cmd.String(), Existing: got.Payload()}
	}
	return root, cmd, nil
}
