// cmdgraph compiles command-definition format strings into a shared
// command graph.
//
// It loads definitions from YAML files and the built-in table, then either
// prints the graph, serves it over HTTP, or opens an interactive sandbox.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/psaab/cmdgraph/pkg/daemon"
)

func main() {
	defs := flag.String("defs", "", "comma-separated YAML definition files")
	builtin := flag.Bool("builtin", false, "compile the built-in definitions")
	apiAddr := flag.String("api-addr", "", "HTTP API listen address (empty to disable)")
	apiKeys := flag.String("api-keys", "", "comma-separated API keys required for mutations")
	interactive := flag.Bool("interactive", false, "start the interactive sandbox")
	dot := flag.Bool("dot", false, "write the compiled graph in dot syntax to stdout and exit")
	history := flag.String("history", "/tmp/cmdgraph_history", "sandbox history file")
	events := flag.Int("events", 1000, "compile events kept for the API and sandbox")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	// Set up structured logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))

	d := daemon.New(daemon.Options{
		DefsFiles:   splitList(*defs),
		Builtin:     *builtin,
		APIAddr:     *apiAddr,
		APIKeys:     splitList(*apiKeys),
		Interactive: *interactive,
		HistoryFile: *history,
		DOT:         *dot,
		EventBuffer: *events,
	})

	if err := d.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "cmdgraph: %v\n", err)
		os.Exit(1)
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
