package cmdtree

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/psaab/cmdgraph/pkg/compiler"
)

// ErrNameInUse is returned by Define when another compiled definition
// already carries the same name.
var ErrNameInUse = errors.New("definition name in use")

// Result is the outcome of compiling one definition.
type Result struct {
	Def *Definition
	Err error
}

// Report collects the results of a bulk registration.
type Report struct {
	Results []Result
}

// Compiled returns the definitions that made it into the graph.
func (r Report) Compiled() []*Definition {
	var defs []*Definition
	for _, res := range r.Results {
		if res.Err == nil {
			defs = append(defs, res.Def)
		}
	}
	return defs
}

// Failed returns the number of rejected definitions.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

// Registry tracks the definitions compiled into one command graph.
type Registry struct {
	mu       sync.RWMutex
	compiler *compiler.Compiler
	defs     []*Definition
	byName   map[string]*Definition
}

// NewRegistry creates a Registry compiling through c.
func NewRegistry(c *compiler.Compiler) *Registry {
	return &Registry{
		compiler: c,
		byName:   make(map[string]*Definition),
	}
}

// Compiler returns the compiler the registry feeds.
func (r *Registry) Compiler() *compiler.Compiler {
	return r.compiler
}

// Define compiles d into the graph and records it.
func (r *Registry) Define(d *Definition) error {
	if d.Name == "" {
		d.Name = d.Format
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[d.Name]; ok {
		return fmt.Errorf("%w: %s", ErrNameInUse, d.Name)
	}
	if _, err := r.compiler.Compile(d.Format, d); err != nil {
		return err
	}
	r.defs = append(r.defs, d)
	r.byName[d.Name] = d
	return nil
}

// Register compiles each definition independently; a rejected definition
// does not stop the ones after it.
func (r *Registry) Register(defs []*Definition) Report {
	report := Report{Results: make([]Result, 0, len(defs))}
	for _, d := range defs {
		report.Results = append(report.Results, Result{Def: d, Err: r.Define(d)})
	}
	return report
}

// Definitions returns the compiled definitions in compile order.
func (r *Registry) Definitions() []*Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Lookup returns the compiled definition with the given name.
func (r *Registry) Lookup(name string) (*Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	return d, ok
}

// Reset discards the graph and every recorded definition.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.compiler.Store().Reset()
	r.defs = nil
	r.byName = make(map[string]*Definition)
}

// WriteReport prints one line per rejected definition and a summary.
func WriteReport(w io.Writer, r Report) {
	var sb strings.Builder
	for _, res := range r.Results {
		if res.Err != nil {
			fmt.Fprintf(&sb, "  %-24s %v\n", res.Def.Name, res.Err)
		}
	}
	fmt.Fprintf(&sb, "%d definitions compiled, %d rejected\n", len(r.Results)-r.Failed(), r.Failed())
	io.WriteString(w, sb.String())
}

// WriteDefinition prints one definition in detail.
func WriteDefinition(w io.Writer, d *Definition) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Name:      %s\n", d.Name)
	fmt.Fprintf(&sb, "Format:    %s\n", d.Format)
	if d.Help != "" {
		fmt.Fprintf(&sb, "Help:      %s\n", d.Help)
	}
	fmt.Fprintf(&sb, "Privilege: %d\n", d.Privilege)
	io.WriteString(w, sb.String())
}

// DefinitionCandidates returns help candidates for a set of definitions.
func DefinitionCandidates(defs []*Definition) []Candidate {
	candidates := make([]Candidate, 0, len(defs))
	for _, d := range defs {
		candidates = append(candidates, Candidate{Name: d.Format, Desc: d.Help})
	}
	return candidates
}
