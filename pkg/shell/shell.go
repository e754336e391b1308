// Package shell implements the interactive sandbox for compiling command
// definitions and inspecting the resulting graph.
package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"github.com/psaab/cmdgraph/pkg/cmdtree"
	"github.com/psaab/cmdgraph/pkg/graph"
	"github.com/psaab/cmdgraph/pkg/lexer"
	"github.com/psaab/cmdgraph/pkg/logging"
)

// Options configures a Shell.
type Options struct {
	HistoryFile string               // "" = no history
	Events      *logging.EventBuffer // nil = "show events" unavailable
	Out         io.Writer            // nil = os.Stdout; replaced by readline's stdout in Run
	Err         io.Writer            // nil = os.Stderr
}

// Shell is the interactive sandbox.
type Shell struct {
	rl       *readline.Instance
	registry *cmdtree.Registry
	events   *logging.EventBuffer
	history  string
	out      io.Writer
	errOut   io.Writer
}

// New creates a Shell compiling into registry.
func New(registry *cmdtree.Registry, opts Options) *Shell {
	s := &Shell{
		registry: registry,
		events:   opts.Events,
		history:  opts.HistoryFile,
		out:      opts.Out,
		errOut:   opts.Err,
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.errOut == nil {
		s.errOut = os.Stderr
	}
	return s
}

// Run starts the interactive loop and returns on exit, quit or EOF.
func (s *Shell) Run() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "cmdgraph> ",
		HistoryFile:     s.history,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    &completer{shell: s},
		Listener:        readline.FuncListener(s.helpListener),
	})
	if err != nil {
		return fmt.Errorf("readline init: %w", err)
	}
	defer rl.Close()
	s.rl = rl
	s.out = rl.Stdout()
	s.errOut = rl.Stderr()

	fmt.Fprintln(s.out, "cmdgraph sandbox - command definition compiler")
	fmt.Fprintln(s.out, "Type '?' for help")
	fmt.Fprintln(s.out)

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				return nil
			}
			return err
		}

		if err := s.Execute(line); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			fmt.Fprintf(s.errOut, "error: %v\n", err)
		}
	}
}

var errExit = errors.New("exit")

// Execute runs one sandbox command line.
func (s *Shell) Execute(line string) error {
	line = strings.TrimSpace(line)
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	switch parts[0] {
	case "define":
		return s.handleDefine(strings.TrimSpace(strings.TrimPrefix(line, "define")))

	case "show":
		if len(parts) > 1 && parts[1] == "tokens" {
			rest := strings.TrimSpace(strings.TrimPrefix(line, "show"))
			return s.showTokens(strings.TrimSpace(strings.TrimPrefix(rest, "tokens")))
		}
		return s.handleShow(parts[1:])

	case "load":
		if len(parts) != 2 {
			return fmt.Errorf("usage: load <file>")
		}
		defs, err := cmdtree.Load(parts[1])
		if err != nil {
			return err
		}
		cmdtree.WriteReport(s.out, s.registry.Register(defs))
		return nil

	case "builtin":
		cmdtree.WriteReport(s.out, s.registry.Register(cmdtree.Builtin()))
		return nil

	case "reset":
		s.registry.Reset()
		fmt.Fprintln(s.out, "command graph cleared")
		return nil

	case "quit", "exit":
		return errExit

	case "?", "help":
		cmdtree.WriteHelp(s.out, cmdtree.HelpCandidates(cmdtree.SandboxTree))
		return nil

	default:
		return fmt.Errorf("unknown command: %s", parts[0])
	}
}

func (s *Shell) handleDefine(format string) error {
	if format == "" {
		return fmt.Errorf("usage: define <format>")
	}
	before := s.registry.Compiler().Store().Len()
	d := &cmdtree.Definition{Format: format}
	if err := s.registry.Define(d); err != nil {
		return err
	}
	after := s.registry.Compiler().Store().Len()
	fmt.Fprintf(s.out, "compiled %q (%d new nodes, %d total)\n", format, after-before, after)
	return nil
}

func (s *Shell) handleShow(args []string) error {
	if len(args) == 0 {
		cmdtree.WriteHelp(s.out, cmdtree.HelpCandidates(cmdtree.SandboxTree["show"].Children))
		return nil
	}

	store := s.registry.Compiler().Store()
	switch args[0] {
	case "graph":
		return store.Dump(s.out)

	case "dot":
		return store.WriteDOT(s.out)

	case "stats":
		s.showStats(store.Stats())
		return nil

	case "commands":
		defs := s.registry.Definitions()
		if len(defs) == 0 {
			fmt.Fprintln(s.out, "no definitions compiled")
			return nil
		}
		cmdtree.WriteHelp(s.out, cmdtree.DefinitionCandidates(defs))
		return nil

	case "command":
		if len(args) < 2 {
			return fmt.Errorf("usage: show command <name>")
		}
		name := strings.Join(args[1:], " ")
		d, ok := s.registry.Lookup(name)
		if !ok {
			return fmt.Errorf("no such definition: %s", name)
		}
		cmdtree.WriteDefinition(s.out, d)
		return nil

	case "events":
		return s.showEvents()

	default:
		return fmt.Errorf("unknown show target: %s (expected %s)", args[0],
			strings.Join(cmdtree.KeysFromTree(cmdtree.SandboxTree["show"].Children), ", "))
	}
}

func (s *Shell) showStats(st graph.Stats) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%-14s %d\n", "nodes", st.Total)
	fmt.Fprintf(&sb, "%-14s %d\n", "commands", st.Commands())
	kinds := make([]graph.Kind, 0, len(st.ByKind))
	for k := range st.ByKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		fmt.Fprintf(&sb, "  %-12s %d\n", k, st.ByKind[k])
	}
	io.WriteString(s.out, sb.String())
}

// showTokens prints the token stream of format, stopping at the first
// lexical error.
func (s *Shell) showTokens(format string) error {
	if format == "" {
		return fmt.Errorf("usage: show tokens <format>")
	}
	var sb strings.Builder
	for _, tok := range lexer.New(format).All() {
		fmt.Fprintf(&sb, "%4d  %s\n", tok.Column, tok)
	}
	io.WriteString(s.out, sb.String())
	return nil
}

func (s *Shell) showEvents() error {
	if s.events == nil {
		return fmt.Errorf("event history not available")
	}
	recs := s.events.Latest(20)
	if len(recs) == 0 {
		fmt.Fprintln(s.out, "no compile events")
		return nil
	}
	var sb strings.Builder
	for _, r := range recs {
		fmt.Fprintf(&sb, "%5d %s %-16s %s\n", r.Seq, r.Time.Format("15:04:05"), r.Outcome, r.Command)
		if r.Error != "" {
			fmt.Fprintf(&sb, "      %s\n", r.Error)
		}
	}
	io.WriteString(s.out, sb.String())
	return nil
}
