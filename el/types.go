package el

import "github.com/vango-dev/tide/pkg/dom"

// Node is the live node produced by every builder.
type Node = dom.Node

// Nodes is an ordered collection of nodes.
type Nodes = dom.Nodes

// Attr is a single attribute. Value may be a string, bool, number,
// fmt.Stringer or a reactive source, in which case the attribute follows
// the source.
type Attr struct {
	Key   string
	Value any
}

// IsEmpty returns true if this is an empty/nil attribute.
func (a Attr) IsEmpty() bool {
	return a.Key == ""
}

// EventHandler binds a callback to an event name. Handler may be a
// func(), func(string) receiving the event value, func(dom.Event) or a
// dom.Handler.
type EventHandler struct {
	Event   string // "click", "input", etc.
	Handler any
}
