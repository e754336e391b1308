package compiler

import (
	"fmt"

	"github.com/psaab/cmdgraph/pkg/graph"
)

// buildContext is the insertion state of one compilation. Group builders
// run on their own context rooted at the diverging node, so nothing here
// is shared between compilations.
type buildContext struct {
	store  *graph.Store
	cursor *graph.Node
}

// add links one element after the cursor and advances it. For groups the
// cursor moves to the converging node, so whatever follows attaches after
// the group no matter which alternative matched.
func (b *buildContext) add(el element) error {
	if el.group == nil {
		b.cursor = b.store.InsertChild(b.cursor, b.store.Create(el.value))
		return nil
	}
	converge, err := b.buildGroup(el.group)
	if err != nil {
		return err
	}
	b.cursor = converge
	return nil
}

func (b *buildContext) sequence(elems []element) error {
	for _, el := range elems {
		if err := b.add(el); err != nil {
			return err
		}
	}
	return nil
}

// buildGroup links a selector or option group under the cursor and
// returns its converging node. When the cursor already holds an equal
// group, that group is reused as is.
func (b *buildContext) buildGroup(g *group) (*graph.Node, error) {
	var v graph.Value
	if g.kind == graph.KindOption {
		v = graph.Option{Key: g.key, Text: g.text}
	} else {
		v = graph.Selector{Key: g.key, Text: g.text}
	}
	candidate := b.store.Create(v)
	entry := b.store.InsertChild(b.cursor, candidate)
	if entry != candidate {
		converge := b.store.ConvergeOf(entry)
		if converge == nil {
			return nil, fmt.Errorf("group %s has no converging node", g.text)
		}
		return converge, nil
	}

	converge := b.store.Create(graph.Null{})
	for _, alt := range g.alts {
		sub := &buildContext{store: b.store, cursor: entry}
		if err := sub.sequence(alt); err != nil {
			return nil, err
		}
		converge = b.store.InsertChild(sub.cursor, converge)
	}
	if g.kind == graph.KindOption {
		// bypass: the whole group may be omitted
		b.store.InsertChild(entry, converge)
	}
	if err := b.store.SetConverge(entry, converge); err != nil {
		return nil, fmt.Errorf("group %s: %w", g.text, err)
	}
	return converge, nil
}
