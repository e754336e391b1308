package graph

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented rendering of the graph. A node reached a second
// time is printed once more with a trailing "^" and not descended into.
// Selector and option nodes show their converging node as "-> #id".
func (s *Store) Dump(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sb strings.Builder
	seen := make(map[NodeID]bool, len(s.nodes))
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		sb.WriteString(strings.Repeat("  ", depth))
		fmt.Fprintf(&sb, "#%d %s", n.id, n)
		if c := convergeID(n); c != 0 {
			fmt.Fprintf(&sb, " -> #%d", c)
		}
		if seen[n.id] {
			sb.WriteString(" ^\n")
			return
		}
		sb.WriteByte('\n')
		seen[n.id] = true
		for _, child := range n.children {
			visit(child, depth+1)
		}
	}
	visit(s.root, 0)
	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteDOT writes the graph in graphviz dot syntax. Converge references
// are drawn as dashed edges that do not affect layout.
func (s *Store) WriteDOT(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sb strings.Builder
	sb.WriteString("digraph cmdgraph {\n")
	sb.WriteString("  node [fontname=\"monospace\"];\n")
	seen := make(map[NodeID]bool, len(s.nodes))
	var visit func(n *Node)
	visit = func(n *Node) {
		if seen[n.id] {
			return
		}
		seen[n.id] = true
		fmt.Fprintf(&sb, "  n%d [label=%q shape=%s];\n", n.id, n.String(), dotShape(n.Kind()))
		if c := convergeID(n); c != 0 {
			fmt.Fprintf(&sb, "  n%d -> n%d [style=dashed constraint=false];\n", n.id, c)
		}
		for _, child := range n.children {
			fmt.Fprintf(&sb, "  n%d -> n%d;\n", n.id, child.id)
		}
		for _, child := range n.children {
			visit(child)
		}
	}
	visit(s.root)
	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func convergeID(n *Node) NodeID {
	switch v := n.value.(type) {
	case Selector:
		return v.Converge
	case Option:
		return v.Converge
	}
	return 0
}

func dotShape(k Kind) string {
	switch k {
	case KindSelector, KindOption:
		return "diamond"
	case KindNull:
		return "point"
	case KindEnd:
		return "doublecircle"
	case KindStart:
		return "house"
	default:
		return "box"
	}
}
