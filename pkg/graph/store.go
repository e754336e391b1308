package graph

import (
	"fmt"
	"sync"
)

// Store owns every node of the command graph.
type Store struct {
	// writeMu serializes Update and Reset, so a multi-step insertion never
	// interleaves with another one on the same store.
	writeMu sync.Mutex

	mu    sync.RWMutex
	root  *Node
	nodes map[NodeID]*Node
	next  NodeID
}

// Stats summarizes the reachable graph.
type Stats struct {
	Total  int
	ByKind map[Kind]int
}

// Commands returns the number of terminated commands.
func (st Stats) Commands() int {
	return st.ByKind[KindEnd]
}

// NewStore creates a store holding only the root node.
func NewStore() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.nodes = make(map[NodeID]*Node)
	s.next = 0
	s.root = &Node{value: Start{}}
	s.register(s.root)
}

func (s *Store) register(n *Node) {
	s.next++
	n.id = s.next
	s.nodes[n.id] = n
}

// Reset discards the whole graph and starts over with a fresh root.
func (s *Store) Reset() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Update runs fn while holding the store's writer lock. Every caller that
// links more than one node must go through Update; readers are not blocked
// between the individual InsertChild calls fn makes.
func (s *Store) Update(fn func() error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return fn()
}

// Root returns the process root every command hangs off.
func (s *Store) Root() *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.root
}

// Create allocates a new unlinked node. It has no effect on the store
// until the node is passed to InsertChild.
func (s *Store) Create(v Value) *Node {
	return &Node{value: v}
}

// InsertChild links candidate under parent unless parent already has it or
// an equal child, in which case that existing child is returned and the
// candidate is dropped. Calling it twice with equal candidates returns the
// same node both times.
func (s *Store) InsertChild(parent, candidate *Node) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, child := range parent.children {
		if child == candidate {
			return child
		}
	}
	for _, child := range parent.children {
		if sameSignature(child.value, candidate.value) {
			return child
		}
	}
	if candidate.id == 0 {
		s.register(candidate)
	}
	parent.children = append(parent.children, candidate)
	return candidate
}

// Lookup returns the linked node with the given id, or nil.
func (s *Store) Lookup(id NodeID) *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[id]
}

// SetConverge records converge as the converging node of a selector or
// option node. The converging node must already be linked.
func (s *Store) SetConverge(group, converge *Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if converge.id == 0 {
		return fmt.Errorf("converging node is not linked")
	}
	switch v := group.value.(type) {
	case Selector:
		v.Converge = converge.id
		group.value = v
	case Option:
		v.Converge = converge.id
		group.value = v
	default:
		return fmt.Errorf("%s node has no converging node", group.Kind())
	}
	return nil
}

// ConvergeOf resolves the converging node of a selector or option node.
// It returns nil for any other kind.
func (s *Store) ConvergeOf(group *Node) *Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch v := group.value.(type) {
	case Selector:
		return s.nodes[v.Converge]
	case Option:
		return s.nodes[v.Converge]
	}
	return nil
}

// Len returns the number of linked nodes, root included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Walk visits every reachable node once, depth first in insertion order.
// Returning false from fn skips that node's children.
func (s *Store) Walk(fn func(n *Node) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[NodeID]bool, len(s.nodes))
	var visit func(n *Node)
	visit = func(n *Node) {
		if seen[n.id] {
			return
		}
		seen[n.id] = true
		if !fn(n) {
			return
		}
		for _, child := range n.children {
			visit(child)
		}
	}
	visit(s.root)
}

// Stats counts reachable nodes by kind.
func (s *Store) Stats() Stats {
	st := Stats{ByKind: make(map[Kind]int)}
	s.Walk(func(n *Node) bool {
		st.Total++
		st.ByKind[n.Kind()]++
		return true
	})
	return st
}
