// Package graph implements the shared command graph built by the compiler.
//
// Every command definition ever compiled lives in one Store. Nodes are
// linked parent to child starting at a single root; equal siblings are
// folded together on insert, so the result is a rooted DAG in which
// commands with a common prefix share nodes.
package graph

import (
	"fmt"
	"strconv"
)

// Kind identifies the variant carried by a node.
type Kind int

const (
	KindStart Kind = iota
	KindWord
	KindIPv4
	KindIPv4Prefix
	KindIPv6
	KindIPv6Prefix
	KindVariable
	KindRange
	KindNumber
	KindSelector
	KindOption
	KindNull
	KindEnd
)

// Kinds lists every node kind in declaration order.
var Kinds = []Kind{
	KindStart, KindWord, KindIPv4, KindIPv4Prefix, KindIPv6, KindIPv6Prefix,
	KindVariable, KindRange, KindNumber, KindSelector, KindOption, KindNull, KindEnd,
}

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindWord:
		return "word"
	case KindIPv4:
		return "ipv4"
	case KindIPv4Prefix:
		return "ipv4-prefix"
	case KindIPv6:
		return "ipv6"
	case KindIPv6Prefix:
		return "ipv6-prefix"
	case KindVariable:
		return "variable"
	case KindRange:
		return "range"
	case KindNumber:
		return "number"
	case KindSelector:
		return "selector"
	case KindOption:
		return "option"
	case KindNull:
		return "null"
	case KindEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Value is the kind-specific content of a node. The concrete types below
// are the only implementations.
type Value interface {
	Kind() Kind
	String() string
	isValue()
}

// Start is the value of the store root.
type Start struct{}

// Word is a literal keyword.
type Word struct{ Text string }

// IPv4 is an A.B.C.D placeholder.
type IPv4 struct{ Text string }

// IPv4Prefix is an A.B.C.D/M placeholder.
type IPv4Prefix struct{ Text string }

// IPv6 is an X:X::X:X placeholder.
type IPv6 struct{ Text string }

// IPv6Prefix is an X:X::X:X/M placeholder.
type IPv6Prefix struct{ Text string }

// Variable is a free-form placeholder such as WORD or IFNAME.
type Variable struct{ Text string }

// Range is a bounded integer placeholder, inclusive on both ends.
type Range struct {
	Text     string
	Min, Max int64
}

// Number is a literal integer.
type Number struct{ Value int64 }

// Selector diverges into mutually exclusive alternatives.
// Key identifies the alternatives by kind and content and decides folding;
// Text is how they read in a definition. Converge is the paired Null node,
// resolved through Store.Lookup.
type Selector struct {
	Key      string
	Text     string
	Converge NodeID
}

// Option diverges into optional alternatives plus a bypass edge.
type Option struct {
	Key      string
	Text     string
	Converge NodeID
}

// Null is a converging node. It matches no input.
type Null struct{}

// End terminates a complete command and carries its payload.
type End struct{ Payload any }

func (Start) Kind() Kind      { return KindStart }
func (Word) Kind() Kind       { return KindWord }
func (IPv4) Kind() Kind       { return KindIPv4 }
func (IPv4Prefix) Kind() Kind { return KindIPv4Prefix }
func (IPv6) Kind() Kind       { return KindIPv6 }
func (IPv6Prefix) Kind() Kind { return KindIPv6Prefix }
func (Variable) Kind() Kind   { return KindVariable }
func (Range) Kind() Kind      { return KindRange }
func (Number) Kind() Kind     { return KindNumber }
func (Selector) Kind() Kind   { return KindSelector }
func (Option) Kind() Kind     { return KindOption }
func (Null) Kind() Kind       { return KindNull }
func (End) Kind() Kind        { return KindEnd }

func (Start) String() string        { return "" }
func (v Word) String() string       { return v.Text }
func (v IPv4) String() string       { return v.Text }
func (v IPv4Prefix) String() string { return v.Text }
func (v IPv6) String() string       { return v.Text }
func (v IPv6Prefix) String() string { return v.Text }
func (v Variable) String() string   { return v.Text }
func (v Number) String() string     { return strconv.FormatInt(v.Value, 10) }
func (v Selector) String() string   { return groupText(v.Text, v.Key) }
func (v Option) String() string     { return groupText(v.Text, v.Key) }
func (Null) String() string         { return "" }

func (v Range) String() string {
	if v.Text != "" {
		return v.Text
	}
	return fmt.Sprintf("(%d-%d)", v.Min, v.Max)
}

func groupText(text, key string) string {
	if text != "" {
		return text
	}
	return key
}

func (v End) String() string {
	if s, ok := v.Payload.(fmt.Stringer); ok {
		return s.String()
	}
	return ""
}

func (Start) isValue()      {}
func (Word) isValue()       {}
func (IPv4) isValue()       {}
func (IPv4Prefix) isValue() {}
func (IPv6) isValue()       {}
func (IPv6Prefix) isValue() {}
func (Variable) isValue()   {}
func (Range) isValue()      {}
func (Number) isValue()     {}
func (Selector) isValue()   {}
func (Option) isValue()     {}
func (Null) isValue()       {}
func (End) isValue()        {}

// sameSignature reports whether two sibling candidates fold together.
// Null and Start never compare equal by content; End nodes always do, since
// a position holds at most one terminal.
func sameSignature(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Word:
		return av.Text == b.(Word).Text
	case IPv4:
		return av.Text == b.(IPv4).Text
	case IPv4Prefix:
		return av.Text == b.(IPv4Prefix).Text
	case IPv6:
		return av.Text == b.(IPv6).Text
	case IPv6Prefix:
		return av.Text == b.(IPv6Prefix).Text
	case Variable:
		return av.Text == b.(Variable).Text
	case Range:
		bv := b.(Range)
		return av.Min == bv.Min && av.Max == bv.Max
	case Number:
		return av.Value == b.(Number).Value
	case Selector:
		return av.Key == b.(Selector).Key
	case Option:
		return av.Key == b.(Option).Key
	case End:
		return true
	default:
		return false
	}
}

// NodeID identifies a node linked into a Store. Unlinked nodes have ID 0.
type NodeID int

// Node is a vertex of the command graph.
type Node struct {
	id       NodeID
	value    Value
	children []*Node
}

// ID returns the node's store identifier, or 0 if it was never linked.
func (n *Node) ID() NodeID { return n.id }

// Value returns the node's kind-specific content.
func (n *Node) Value() Value { return n.value }

// Kind returns the node's kind.
func (n *Node) Kind() Kind { return n.value.Kind() }

// Children returns a copy of the node's children in insertion order.
// It must not race with compilation; use Store.Walk for concurrent reads.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Payload returns the payload of an End node, or nil for any other kind.
func (n *Node) Payload() any {
	if e, ok := n.value.(End); ok {
		return e.Payload
	}
	return nil
}

func (n *Node) String() string {
	s := n.value.String()
	if s == "" {
		return n.Kind().String()
	}
	return n.Kind().String() + " " + s
}
