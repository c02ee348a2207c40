// Package mount turns component output into live dom nodes and keeps
// reactive positions of the tree current.
//
// Content is a closed variant: a live node, a reactive source, a group of
// nodes, text, the empty marker, or an owned component result. From
// classifies arbitrary values; Materialize produces the node to insert.
//
//	count := reactive.NewCell(0)
//	label := mount.Materialize(mount.Reactive(count))
//	parent.AppendChild(label)
//	count.Write(1) // label is replaced on the next flush
package mount

import (
	"fmt"

	"github.com/vango-dev/tide/pkg/dom"
	"github.com/vango-dev/tide/pkg/reactive"
)

// Kind discriminates Content variants.
type Kind uint8

const (
	KindEmpty    Kind = iota // Absent value, renders as an empty text node
	KindNode                 // Live node
	KindReactive             // Cell or derived value
	KindGroup                // Multi-node collection
	KindText                 // Text
	KindStringer             // Text produced by String() at materialization
	KindOwned                // Component result
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindNode:
		return "Node"
	case KindReactive:
		return "Reactive"
	case KindGroup:
		return "Group"
	case KindText:
		return "Text"
	case KindStringer:
		return "Stringer"
	case KindOwned:
		return "Owned"
	default:
		return "Unknown"
	}
}

// Content is something that can be placed in the tree. The zero value is
// the empty marker.
type Content struct {
	kind     Kind
	node     *dom.Node
	dyn      reactive.Dynamic
	group    dom.Nodes
	text     string
	stringer fmt.Stringer
	owned    reactive.Owned
}

// Node wraps a live node. A nil node is Empty.
func Node(n *dom.Node) Content {
	if n == nil {
		return Empty()
	}
	return Content{kind: KindNode, node: n}
}

// Reactive wraps a cell or derived value. The position is patched whenever
// it notifies.
func Reactive(d reactive.Dynamic) Content {
	if d == nil {
		return Empty()
	}
	return Content{kind: KindReactive, dyn: d}
}

// Group wraps a collection of nodes placed side by side.
func Group(nodes dom.Nodes) Content {
	return Content{kind: KindGroup, group: nodes}
}

// Text wraps a string.
func Text(s string) Content {
	return Content{kind: KindText, text: s}
}

// Stringer wraps a value rendered with its String method.
func Stringer(s fmt.Stringer) Content {
	if s == nil {
		return Empty()
	}
	return Content{kind: KindStringer, stringer: s}
}

// Empty returns the empty marker.
func Empty() Content {
	return Content{}
}

// Owned wraps a component result. Its contents are materialized; the
// material itself is disposed by whoever holds it, normally a patcher
// replacing it.
func Owned(m reactive.Owned) Content {
	if m == nil {
		return Empty()
	}
	return Content{kind: KindOwned, owned: m}
}

// Kind returns the variant.
func (c Content) Kind() Kind {
	return c.kind
}

// From classifies a dynamic value.
func From(v any) Content {
	switch x := v.(type) {
	case nil:
		return Empty()
	case Content:
		return x
	case *dom.Node:
		return Node(x)
	case dom.Nodes:
		return Group(x)
	case []*dom.Node:
		return Group(x)
	case []any:
		return Group(materializeAll(x))
	case reactive.Owned:
		return Owned(x)
	case reactive.Dynamic:
		return Reactive(x)
	case error:
		return Text(x.Error())
	case fmt.Stringer:
		return Stringer(x)
	case string:
		return Text(x)
	case bool, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, float32, float64:
		return Text(fmt.Sprint(x))
	default:
		return Text(fmt.Sprintf("%v", x))
	}
}

// materializeAll materializes each item and flattens fragments.
func materializeAll(items []any) dom.Nodes {
	out := make(dom.Nodes, 0, len(items))
	for _, item := range items {
		_, nodes := materialize(From(item))
		out = append(out, nodes...)
	}
	return out
}
