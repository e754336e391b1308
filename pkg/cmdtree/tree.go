// Package cmdtree holds command definitions and the sandbox command tree.
//
// Definitions are the unit of compilation: a format string plus the
// metadata attached to its terminal in the command graph. They come from
// YAML files or from the built-in table, and Register compiles them in
// bulk. SandboxTree drives tab completion and ? help in the interactive
// sandbox.
package cmdtree

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Node defines a completion tree node with description, children, and optional dynamic values.
type Node struct {
	Desc      string
	Children  map[string]*Node
	DynamicFn func(defs []*Definition) []string
}

// Candidate holds a command name and its description for display.
type Candidate struct {
	Name string
	Desc string
}

func definitionNames(defs []*Definition) []string {
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	return names
}

// SandboxTree defines tab completion for the interactive sandbox.
var SandboxTree = map[string]*Node{
	"define":  {Desc: "Compile a command definition"},
	"builtin": {Desc: "Compile the built-in definitions"},
	"load":    {Desc: "Compile definitions from a YAML file"},
	"reset":   {Desc: "Discard the command graph"},
	"show": {Desc: "Show information", Children: map[string]*Node{
		"graph":    {Desc: "Show the command graph"},
		"dot":      {Desc: "Show the command graph in dot syntax"},
		"stats":    {Desc: "Show node counts by kind"},
		"commands": {Desc: "Show compiled definitions"},
		"command":  {Desc: "Show one compiled definition", DynamicFn: definitionNames},
		"events":   {Desc: "Show recent compile events"},
		"tokens":   {Desc: "Show how a format string is tokenized"},
	}},
	"help": {Desc: "Show help"},
	"exit": {Desc: "Exit the sandbox"},
	"quit": {Desc: "Exit the sandbox"},
}

// --- Helper functions ---

// KeysFromTree returns a sorted list of keys from a Node map.
func KeysFromTree(tree map[string]*Node) []string {
	keys := make([]string, 0, len(tree))
	for k := range tree {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// HelpCandidates returns Candidates from a tree's children for help display.
func HelpCandidates(tree map[string]*Node) []Candidate {
	candidates := make([]Candidate, 0, len(tree))
	for name, node := range tree {
		candidates = append(candidates, Candidate{Name: name, Desc: node.Desc})
	}
	return candidates
}

// CompleteFromTreeWithDesc walks the tree returning name+description pairs
// that extend partial after the given words.
func CompleteFromTreeWithDesc(tree map[string]*Node, words []string, partial string, defs []*Definition) []Candidate {
	current := tree
	var currentNode *Node
	for _, w := range words {
		node, ok := current[w]
		if !ok {
			return nil
		}
		currentNode = node
		if node.Children == nil {
			if node.DynamicFn != nil {
				var candidates []Candidate
				for _, name := range FilterPrefix(node.DynamicFn(defs), partial) {
					candidates = append(candidates, Candidate{Name: name, Desc: "(compiled)"})
				}
				return candidates
			}
			return nil
		}
		current = node.Children
	}

	var candidates []Candidate
	for name, node := range current {
		if strings.HasPrefix(name, partial) {
			candidates = append(candidates, Candidate{Name: name, Desc: node.Desc})
		}
	}
	if currentNode != nil && currentNode.DynamicFn != nil {
		for _, name := range FilterPrefix(currentNode.DynamicFn(defs), partial) {
			candidates = append(candidates, Candidate{Name: name, Desc: "(compiled)"})
		}
	}
	return candidates
}

// CandidateNames returns the names of candidates, sorted.
func CandidateNames(candidates []Candidate) []string {
	names := make([]string, len(candidates))
	for i, c := range candidates {
		names[i] = c.Name
	}
	sort.Strings(names)
	return names
}

// WriteHelp prints aligned completion candidates to w.
// The entire output is built as a single string and written in one call
// so that readline's wrapWriter triggers only one Refresh cycle.
func WriteHelp(w io.Writer, candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Name < candidates[j].Name })
	maxWidth := 20
	for _, c := range candidates {
		if len(c.Name)+2 > maxWidth {
			maxWidth = len(c.Name) + 2
		}
	}
	var sb strings.Builder
	sb.WriteString("Possible completions:\n")
	for _, c := range candidates {
		if c.Desc != "" {
			fmt.Fprintf(&sb, "  %-*s %s\n", maxWidth, c.Name, c.Desc)
		} else {
			fmt.Fprintf(&sb, "  %s\n", c.Name)
		}
	}
	io.WriteString(w, sb.String())
}

// CommonPrefix returns the longest shared prefix among the given strings.
func CommonPrefix(items []string) string {
	if len(items) == 0 {
		return ""
	}
	prefix := items[0]
	for _, s := range items[1:] {
		for !strings.HasPrefix(s, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}

// FilterPrefix returns only items that start with the given prefix.
func FilterPrefix(items []string, prefix string) []string {
	if prefix == "" {
		return items
	}
	var result []string
	for _, item := range items {
		if strings.HasPrefix(item, prefix) {
			result = append(result, item)
		}
	}
	return result
}
