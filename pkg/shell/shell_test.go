package shell

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/psaab/cmdgraph/pkg/cmdtree"
	"github.com/psaab/cmdgraph/pkg/compiler"
	"github.com/psaab/cmdgraph/pkg/graph"
	"github.com/psaab/cmdgraph/pkg/logging"
)

func newTestShell() (*Shell, *bytes.Buffer) {
	events := logging.NewEventBuffer(32)
	c := compiler.New(graph.NewStore(), compiler.Options{Observer: events})
	var out bytes.Buffer
	s := New(cmdtree.NewRegistry(c), Options{Events: events, Out: &out})
	return s, &out
}

func TestExecuteDefine(t *testing.T) {
	s, out := newTestShell()

	if err := s.Execute("define show ip route [A.B.C.D|A.B.C.D/M]"); err != nil {
		t.Fatalf("define: %v", err)
	}
	// start, show, ip, route, option, two placeholders, null, end
	if !strings.Contains(out.String(), "(8 new nodes, 9 total)") {
		t.Errorf("unexpected define output: %q", out.String())
	}

	out.Reset()
	if err := s.Execute("define show ip bgp"); err != nil {
		t.Fatalf("define: %v", err)
	}
	if !strings.Contains(out.String(), "(2 new nodes, 11 total)") {
		t.Errorf("shared prefix should add only bgp and end: %q", out.String())
	}

	err := s.Execute("define show ip bgp")
	if !errors.Is(err, cmdtree.ErrNameInUse) {
		t.Errorf("redefining the same format should collide on its name, got %v", err)
	}
	if err := s.Execute("define"); err == nil || !strings.Contains(err.Error(), "usage") {
		t.Errorf("bare define should print usage, got %v", err)
	}
	if err := s.Execute("define show <a|"); !errors.Is(err, compiler.ErrSyntax) {
		t.Errorf("expected syntax error, got %v", err)
	}
}

func TestExecuteShow(t *testing.T) {
	s, out := newTestShell()
	s.Execute("define ping <A.B.C.D|X:X::X:X>")
	s.Execute("define ping (1-)")

	tests := []struct {
		line     string
		contains []string
	}{
		{"show graph", []string{"#1 start", "  #2 word ping", "selector <A.B.C.D|X:X::X:X> -> #"}},
		{"show dot", []string{"digraph cmdgraph {", "style=dashed"}},
		{"show stats", []string{"nodes          7", "commands       1", "  selector     1"}},
		{"show commands", []string{"Possible completions:", "ping <A.B.C.D|X:X::X:X>"}},
		{"show command ping <A.B.C.D|X:X::X:X>", []string{"Format:    ping <A.B.C.D|X:X::X:X>", "Privilege: 0"}},
		{"show events", []string{"compiled", "malformed_range", "ping (1-)"}},
		{"show", []string{"graph", "Show the command graph"}},
		{"show tokens ip  <A.B.C.D|(1-)>", []string{"   1  word(\"ip\")\n", "   5  '<'\n", "   6  ipv4(\"A.B.C.D\")\n", "  13  '|'\n", "  14  range(\"(1-)\")\n", "  18  '>'\n", "EOF\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			out.Reset()
			if err := s.Execute(tt.line); err != nil {
				t.Fatalf("Execute(%q): %v", tt.line, err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(out.String(), want) {
					t.Errorf("output missing %q:\n%s", want, out.String())
				}
			}
		})
	}

	if err := s.Execute("show command nope"); err == nil {
		t.Error("expected error for unknown definition")
	}
	if err := s.Execute("show bogus"); err == nil || !strings.Contains(err.Error(), "graph, stats, tokens") {
		t.Errorf("unknown show target should list the valid ones, got %v", err)
	}
	if err := s.Execute("show tokens"); err == nil || !strings.Contains(err.Error(), "usage") {
		t.Errorf("show tokens without a format should print usage, got %v", err)
	}
}

func TestExecuteLoadBuiltinReset(t *testing.T) {
	s, out := newTestShell()
	path := filepath.Join(t.TempDir(), "defs.yaml")
	data := "commands:\n  - name: a\n    format: show a\n  - name: b\n    format: show a\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	if err := s.Execute("load " + path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if !strings.Contains(out.String(), "1 definitions compiled, 1 rejected") {
		t.Errorf("unexpected load report: %q", out.String())
	}
	if err := s.Execute("load"); err == nil {
		t.Error("load without a file should fail")
	}

	out.Reset()
	if err := s.Execute("builtin"); err != nil {
		t.Fatalf("builtin: %v", err)
	}
	if !strings.Contains(out.String(), "0 rejected") {
		t.Errorf("builtin definitions should all compile: %q", out.String())
	}

	out.Reset()
	if err := s.Execute("reset"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n := s.registry.Compiler().Store().Len(); n != 1 {
		t.Errorf("reset should leave only the root, have %d nodes", n)
	}
	if len(s.registry.Definitions()) != 0 {
		t.Error("reset should forget definitions")
	}
}

func TestExecuteMisc(t *testing.T) {
	s, out := newTestShell()
	if err := s.Execute("   "); err != nil {
		t.Errorf("blank line: %v", err)
	}
	if err := s.Execute("help"); err != nil || !strings.Contains(out.String(), "define") {
		t.Errorf("help: %v %q", err, out.String())
	}
	if err := s.Execute("exit"); !errors.Is(err, errExit) {
		t.Errorf("exit should stop the loop, got %v", err)
	}
	if err := s.Execute("quit"); !errors.Is(err, errExit) {
		t.Errorf("quit should stop the loop, got %v", err)
	}
	if err := s.Execute("frobnicate"); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("unknown command: %v", err)
	}
}

func TestComplete(t *testing.T) {
	s, _ := newTestShell()
	s.Execute("define show version")

	tests := []struct {
		text        string
		wantNames   string
		wantPartial string
	}{
		{"", "builtin,define,exit,help,load,quit,reset,show", ""},
		{"sh", "show", "sh"},
		{"show ", "command,commands,dot,events,graph,stats,tokens", ""},
		{"show g", "graph", "g"},
		{"show command ", "show version", ""},
		{"define sh", "", "sh"},
		{"show tokens sh", "", "sh"},
		{"bogus ", "", ""},
	}
	for _, tt := range tests {
		cands, partial := s.complete(tt.text)
		if got := strings.Join(cmdtree.CandidateNames(cands), ","); got != tt.wantNames {
			t.Errorf("complete(%q) names = %q, want %q", tt.text, got, tt.wantNames)
		}
		if partial != tt.wantPartial {
			t.Errorf("complete(%q) partial = %q, want %q", tt.text, partial, tt.wantPartial)
		}
	}
}

func TestCompleterDo(t *testing.T) {
	s, out := newTestShell()
	c := &completer{shell: s}

	line := []rune("show gr")
	got, n := c.Do(line, len(line))
	if n != 2 || len(got) != 1 || string(got[0]) != "aph " {
		t.Errorf("single match: got %q, %d", got, n)
	}

	line = []rune("show co")
	got, n = c.Do(line, len(line))
	if n != 2 || len(got) != 1 || string(got[0]) != "mmand" {
		t.Errorf("common prefix: got %q, %d", got, n)
	}
	if !strings.Contains(out.String(), "Possible completions:") {
		t.Errorf("multiple matches should print help, got %q", out.String())
	}

	line = []rune("zz")
	if got, _ := c.Do(line, len(line)); got != nil {
		t.Errorf("no match: got %q", got)
	}
}

func TestHelpListener(t *testing.T) {
	s, out := newTestShell()

	line := []rune("show ?")
	newLine, pos, ok := s.helpListener(line, len(line), '?')
	if !ok || string(newLine) != "show " || pos != 5 {
		t.Errorf("listener returned %q %d %v", string(newLine), pos, ok)
	}
	if !strings.Contains(out.String(), "stats") {
		t.Errorf("help output missing candidates: %q", out.String())
	}

	for _, text := range []string{"define show ?", "show tokens a ?"} {
		line = []rune(text)
		if _, _, ok := s.helpListener(line, len(line), '?'); ok {
			t.Errorf("'?' inside a format string should be left alone: %q", text)
		}
	}
	if _, _, ok := s.helpListener([]rune("x"), 1, 'x'); ok {
		t.Error("other keys should pass through")
	}
}
