// Package daemon wires the command graph, its registry, the HTTP API and
// the interactive sandbox into one process.
package daemon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/psaab/cmdgraph/pkg/api"
	"github.com/psaab/cmdgraph/pkg/cmdtree"
	"github.com/psaab/cmdgraph/pkg/compiler"
	"github.com/psaab/cmdgraph/pkg/graph"
	"github.com/psaab/cmdgraph/pkg/logging"
	"github.com/psaab/cmdgraph/pkg/shell"
)

// Options configures the daemon.
type Options struct {
	DefsFiles   []string  // YAML definition files compiled at startup
	Builtin     bool      // also compile the built-in definitions
	APIAddr     string    // HTTP API listen address (empty = no API)
	APIKeys     []string  // keys accepted for API mutations (empty = no auth)
	Interactive bool      // run the readline sandbox
	HistoryFile string    // sandbox history file
	DOT         bool      // write the graph in dot syntax to Out and exit
	EventBuffer int       // compile events kept for the API and sandbox
	Out         io.Writer // nil = os.Stdout
}

// Daemon owns the command graph and everything serving it.
type Daemon struct {
	opts     Options
	events   *logging.EventBuffer
	registry *cmdtree.Registry
}

// New creates a new Daemon with an empty graph.
func New(opts Options) *Daemon {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 1000
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	events := logging.NewEventBuffer(opts.EventBuffer)
	c := compiler.New(graph.NewStore(), compiler.Options{
		Logger:   slog.Default().With("component", "compiler"),
		Observer: events,
	})
	return &Daemon{
		opts:     opts,
		events:   events,
		registry: cmdtree.NewRegistry(c),
	}
}

// Registry returns the daemon's definition registry.
func (d *Daemon) Registry() *cmdtree.Registry {
	return d.registry
}

// Load compiles the configured definitions. Rejected definitions are
// reported and skipped; an unreadable file is an error.
func (d *Daemon) Load() error {
	if d.opts.Builtin {
		report := d.registry.Register(cmdtree.Builtin())
		slog.Info("built-in definitions compiled",
			"compiled", len(report.Compiled()), "rejected", report.Failed())
		if report.Failed() > 0 {
			cmdtree.WriteReport(d.opts.Out, report)
		}
	}

	for _, path := range d.opts.DefsFiles {
		defs, err := cmdtree.Load(path)
		if err != nil {
			return err
		}
		report := d.registry.Register(defs)
		slog.Info("definitions compiled", "file", path,
			"compiled", len(report.Compiled()), "rejected", report.Failed())
		if report.Failed() > 0 {
			cmdtree.WriteReport(d.opts.Out, report)
		}
	}
	return nil
}

// Run loads the definitions and serves them until ctx is cancelled, a
// signal arrives or the sandbox exits.
func (d *Daemon) Run(ctx context.Context) error {
	slog.Info("starting cmdgraph", "pid", os.Getpid())

	if err := d.Load(); err != nil {
		return err
	}
	store := d.registry.Compiler().Store()
	if d.opts.DOT {
		return store.WriteDOT(d.opts.Out)
	}
	if d.opts.APIAddr == "" && !d.opts.Interactive {
		st := store.Stats()
		slog.Info("nothing to serve", "nodes", st.Total, "commands", st.Commands())
		return nil
	}

	// Handle signals for clean shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	if d.opts.APIAddr != "" {
		srv := api.NewServer(api.Config{
			Addr:     d.opts.APIAddr,
			Auth:     d.authConfig(),
			Registry: d.registry,
			Events:   d.events,
		})
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.Run(ctx); err != nil {
				errCh <- fmt.Errorf("API: %w", err)
			}
		}()
	}

	if d.opts.Interactive {
		sh := shell.New(d.registry, shell.Options{
			HistoryFile: d.opts.HistoryFile,
			Events:      d.events,
		})
		// The sandbox is not tracked by wg: readline may stay blocked on
		// stdin after a signal.
		go func() {
			if err := sh.Run(); err != nil {
				errCh <- fmt.Errorf("sandbox: %w", err)
				return
			}
			errCh <- nil
		}()
	}

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
		slog.Info("signal received, shutting down")
	}

	stop()
	wg.Wait()

	st := store.Stats()
	slog.Info("shutdown complete", "nodes", st.Total, "commands", st.Commands())
	return runErr
}

func (d *Daemon) authConfig() *api.AuthConfig {
	if len(d.opts.APIKeys) == 0 {
		return nil
	}
	keys := make(map[string]bool, len(d.opts.APIKeys))
	for _, k := range d.opts.APIKeys {
		keys[k] = true
	}
	return &api.AuthConfig{APIKeys: keys}
}
