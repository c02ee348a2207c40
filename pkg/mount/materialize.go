package mount

import (
	"github.com/vango-dev/tide/pkg/dom"
	"github.com/vango-dev/tide/pkg/reactive"
)

// Materialize returns the node to insert for c. A Group yields a fragment
// whose children move into the tree on insertion. A Reactive yields the
// node for its current value and keeps that position patched.
func Materialize(c Content) *dom.Node {
	node, _ := materialize(c)
	return node
}

// materialize returns the insertable node plus the live nodes that end up
// in the tree for it, which differ only for groups.
func materialize(c Content) (*dom.Node, dom.Nodes) {
	switch c.kind {
	case KindNode:
		return c.node, dom.Nodes{c.node}
	case KindReactive:
		p := newPatcher(c.dyn)
		return p.node, p.nodes
	case KindGroup:
		return materializeGroup(c.group)
	case KindText:
		t := dom.NewText(c.text)
		return t, dom.Nodes{t}
	case KindStringer:
		t := dom.NewText(c.stringer.String())
		return t, dom.Nodes{t}
	case KindOwned:
		return materialize(From(c.owned.Contents()))
	default:
		marker := dom.NewText("")
		return marker, dom.Nodes{marker}
	}
}

// materializeGroup builds a fragment. An empty group becomes the empty
// marker so the position stays addressable.
func materializeGroup(group dom.Nodes) (*dom.Node, dom.Nodes) {
	nodes := make(dom.Nodes, 0, len(group))
	for _, n := range group {
		if n == nil {
			continue
		}
		if n.Kind() == dom.KindFragment {
			nodes = append(nodes, n.Children()...)
			continue
		}
		nodes = append(nodes, n)
	}
	if len(nodes) == 0 {
		marker := dom.NewText("")
		return marker, dom.Nodes{marker}
	}
	if len(nodes) == 1 {
		return nodes[0], nodes
	}
	return dom.NewFragment(nodes...), nodes
}

// patcher keeps one reactive position of the tree in sync with its source.
type patcher struct {
	src reactive.Dynamic

	// node is what was handed out for insertion; nodes are the live nodes
	// standing for the current value.
	node  *dom.Node
	nodes dom.Nodes
	value any

	sub *reactive.Subscription
}

func newPatcher(src reactive.Dynamic) *patcher {
	p := &patcher{src: src}
	p.value = src.ReadAny()
	p.node, p.nodes = materialize(From(p.value))

	p.sub = reactive.Listen(p.patch, src)
	reactive.OnScopeCleanup(p.sub.Cancel)
	return p
}

// patch swaps the previous nodes for the source's current value.
func (p *patcher) patch() {
	value := p.src.ReadAny()
	if sameValue(value, p.value) {
		return
	}
	fresh, nodes := materialize(From(value))

	first := p.nodes[0]
	if first.Parent() == nil {
		reactive.Current().Logger().Debug("patch skipped, node detached",
			"source", p.src.ID())
	} else {
		dom.Replace(first, fresh)
		for _, n := range p.nodes[1:] {
			n.Remove()
		}
	}

	prev := p.value
	p.node, p.nodes, p.value = fresh, nodes, value
	if d, ok := prev.(reactive.Disposable); ok {
		d.Dispose()
	}
}

// sameValue reports whether a and b are the same value. Re-materializing
// an unchanged value would move its live nodes out of the tree.
func sameValue(a, b any) (same bool) {
	defer func() {
		if recover() != nil {
			same = false
		}
	}()
	return a == b
}
