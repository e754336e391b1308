package cmdtree

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/psaab/cmdgraph/pkg/compiler"
	"github.com/psaab/cmdgraph/pkg/graph"
)

func TestParse(t *testing.T) {
	data := []byte(`commands:
  - name: show-ip-route
    format: "show ip route [A.B.C.D|A.B.C.D/M]"
    help: Show IP routing table
    privilege: 1
  - format: "  show version  "
`)
	defs, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Name != "show-ip-route" || defs[0].Privilege != 1 || defs[0].Help != "Show IP routing table" {
		t.Errorf("unexpected first definition: %+v", defs[0])
	}
	if defs[1].Format != "show version" || defs[1].Name != "show version" {
		t.Errorf("unnamed definition should be trimmed and named after its format: %+v", defs[1])
	}
	if defs[0].String() != "show-ip-route" {
		t.Errorf("String() = %q", defs[0].String())
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"empty format", "commands:\n  - name: x\n", "empty format"},
		{"duplicate name", "commands:\n  - {name: a, format: show a}\n  - {name: a, format: show b}\n", "already used"},
		{"privilege", "commands:\n  - {format: show a, privilege: 16}\n", "privilege 16"},
		{"bad yaml", "commands: [", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should contain %q", err, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.yaml")
	if err := os.WriteFile(path, []byte("commands:\n  - format: show clock\n"), 0644); err != nil {
		t.Fatal(err)
	}
	defs, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(defs) != 1 || defs[0].Format != "show clock" {
		t.Errorf("unexpected definitions: %+v", defs)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func newRegistry() *Registry {
	return NewRegistry(compiler.New(graph.NewStore(), compiler.Options{}))
}

func TestBuiltinCompiles(t *testing.T) {
	r := newRegistry()
	report := r.Register(Builtin())
	for _, res := range report.Results {
		if res.Err != nil {
			t.Errorf("%s: %v", res.Def.Name, res.Err)
		}
	}
	if got := r.Compiler().Store().Stats().Commands(); got != len(builtin) {
		t.Errorf("expected %d commands in graph, got %d", len(builtin), got)
	}

	again := Builtin()
	for _, d := range again {
		d.Name += "-again"
	}
	second := r.Register(again)
	if second.Failed() != len(builtin) {
		t.Errorf("recompiling builtins should reject all of them, rejected %d", second.Failed())
	}
	for _, res := range second.Results {
		if !errors.Is(res.Err, compiler.ErrDuplicateCommand) {
			t.Errorf("%s: expected duplicate, got %v", res.Def.Name, res.Err)
		}
	}
	if len(r.Definitions()) != len(builtin) {
		t.Errorf("rejected definitions should not be recorded, have %d", len(r.Definitions()))
	}
}

func TestBuiltinReturnsCopies(t *testing.T) {
	defs := Builtin()
	defs[0].Name = "changed"
	if Builtin()[0].Name == "changed" {
		t.Error("Builtin should not expose the shared table")
	}
}

func TestRegisterIndependence(t *testing.T) {
	r := newRegistry()
	defs := []*Definition{
		{Name: "a", Format: "show a"},
		{Name: "bad", Format: "show vlan (1-)"},
		{Name: "dup", Format: "show a"},
		{Name: "b", Format: "show b"},
		{Name: "a", Format: "show c"},
	}
	report := r.Register(defs)
	if report.Failed() != 3 {
		t.Fatalf("expected 3 failures, got %d", report.Failed())
	}
	if !errors.Is(report.Results[1].Err, compiler.ErrMalformedRange) {
		t.Errorf("expected malformed range, got %v", report.Results[1].Err)
	}
	var dup *compiler.DuplicateError
	if !errors.As(report.Results[2].Err, &dup) || dup.Existing != defs[0] {
		t.Errorf("duplicate should report the existing definition, got %v", report.Results[2].Err)
	}
	if !errors.Is(report.Results[4].Err, ErrNameInUse) {
		t.Errorf("expected name in use, got %v", report.Results[4].Err)
	}
	compiled := report.Compiled()
	if len(compiled) != 2 || compiled[0].Name != "a" || compiled[1].Name != "b" {
		t.Errorf("unexpected compiled set: %v", compiled)
	}

	var sb strings.Builder
	WriteReport(&sb, report)
	out := sb.String()
	if !strings.Contains(out, "2 definitions compiled, 3 rejected") {
		t.Errorf("missing summary in report:\n%s", out)
	}
	if !strings.Contains(out, "already defined by a") {
		t.Errorf("report should name the conflicting definition:\n%s", out)
	}
}

func TestRegistryLookupAndReset(t *testing.T) {
	r := newRegistry()
	if err := r.Define(&Definition{Format: "show clock", Help: "Show time"}); err != nil {
		t.Fatalf("Define: %v", err)
	}
	d, ok := r.Lookup("show clock")
	if !ok || d.Help != "Show time" {
		t.Fatalf("Lookup by defaulted name failed: %v %v", d, ok)
	}

	var sb strings.Builder
	WriteDefinition(&sb, d)
	if !strings.Contains(sb.String(), "Format:    show clock\n") {
		t.Errorf("unexpected detail output:\n%s", sb.String())
	}

	r.Reset()
	if _, ok := r.Lookup("show clock"); ok {
		t.Error("Reset should forget definitions")
	}
	if n := r.Compiler().Store().Len(); n != 1 {
		t.Errorf("Reset should leave only the root, have %d nodes", n)
	}
	if err := r.Define(&Definition{Format: "show clock"}); err != nil {
		t.Errorf("redefining after Reset: %v", err)
	}
}

func TestCompleteFromTreeWithDesc(t *testing.T) {
	defs := []*Definition{{Name: "show-version"}, {Name: "ping"}}

	got := CandidateNames(CompleteFromTreeWithDesc(SandboxTree, nil, "s", defs))
	if strings.Join(got, ",") != "show" {
		t.Errorf("top-level s: got %v", got)
	}
	got = CandidateNames(CompleteFromTreeWithDesc(SandboxTree, []string{"show"}, "co", defs))
	if strings.Join(got, ",") != "command,commands" {
		t.Errorf("show co: got %v", got)
	}
	cands := CompleteFromTreeWithDesc(SandboxTree, []string{"show", "command"}, "p", defs)
	if len(cands) != 1 || cands[0].Name != "ping" || cands[0].Desc != "(compiled)" {
		t.Errorf("show command p: got %v", cands)
	}
	if got := CompleteFromTreeWithDesc(SandboxTree, []string{"bogus"}, "", defs); got != nil {
		t.Errorf("unknown word should yield nothing, got %v", got)
	}
}

func TestCommonPrefix(t *testing.T) {
	tests := []struct {
		items []string
		want  string
	}{
		{nil, ""},
		{[]string{"command", "commands"}, "command"},
		{[]string{"graph", "dot"}, ""},
		{[]string{"stats"}, "stats"},
	}
	for _, tt := range tests {
		if got := CommonPrefix(tt.items); got != tt.want {
			t.Errorf("CommonPrefix(%v) = %q, want %q", tt.items, got, tt.want)
		}
	}
}

func TestWriteHelp(t *testing.T) {
	var sb strings.Builder
	WriteHelp(&sb, []Candidate{{Name: "show", Desc: "Show information"}, {Name: "exit"}})
	want := "Possible completions:\n  exit\n  show                 Show information\n"
	if sb.String() != want {
		t.Errorf("WriteHelp:\n%q\nwant:\n%q", sb.String(), want)
	}
}

func TestKeysFromTree(t *testing.T) {
	keys := KeysFromTree(SandboxTree["show"].Children)
	if strings.Join(keys, ",") != "command,commands,dot,events,graph,stats,tokens" {
		t.Errorf("unexpected keys: %v", keys)
	}
}

func TestExampleDefinitions(t *testing.T) {
	defs, err := Load(filepath.Join("..", "..", "examples", "commands.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	r := newRegistry()
	r.Register(Builtin())
	report := r.Register(defs)
	for _, res := range report.Results {
		if res.Err != nil {
			t.Errorf("%s: %v", res.Def.Name, res.Err)
		}
	}
}
