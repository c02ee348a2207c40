package dom

import (
	"errors"
	"sort"
	"strings"
)

// Kind is the node type discriminator.
type Kind uint8

const (
	KindElement  Kind = iota // <div>, <button>, etc.
	KindText                 // Plain text node
	KindFragment             // Grouping without wrapper, never attached
	KindDocument             // Document root
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindElement:
		return "Element"
	case KindText:
		return "Text"
	case KindFragment:
		return "Fragment"
	case KindDocument:
		return "Document"
	default:
		return "Unknown"
	}
}

var (
	// ErrHierarchy is returned when an insertion would produce an invalid
	// tree: children under a text node, a node under itself or one of its
	// descendants, or a document root anywhere but the top.
	ErrHierarchy = errors.New("dom: invalid hierarchy")

	// ErrNotChild is returned when a reference node is not a child of the
	// node being modified.
	ErrNotChild = errors.New("dom: node is not a child")
)

// Event is delivered to a Handler.
type Event struct {
	Type   string // "click", "input", ...
	Value  string // Current value for input events
	Target *Node
}

// Handler is an event callback attached to an element.
type Handler func(ev Event)

// Attribute is a single key/value pair.
type Attribute struct {
	Key   string
	Value string
}

// Node is a live document node.
type Node struct {
	kind Kind
	tag  string
	text string
	hid  string

	attrs    map[string]string
	handlers map[string]Handler

	parent   *Node
	children []*Node

	// doc is set only on a document root.
	doc *Document
}

// Nodes is an ordered collection of nodes.
type Nodes []*Node

// NewElement creates a detached element.
func NewElement(tag string) *Node {
	return &Node{kind: KindElement, tag: strings.ToLower(tag)}
}

// NewText creates a detached text node.
func NewText(s string) *Node {
	return &Node{kind: KindText, text: s}
}

// NewFragment creates a fragment holding children. Inserting a fragment
// moves its children into the target and leaves the fragment empty.
func NewFragment(children ...*Node) *Node {
	f := &Node{kind: KindFragment}
	for _, c := range children {
		if c != nil {
			_ = f.AppendChild(c)
		}
	}
	return f
}

// Kind returns the node kind.
func (n *Node) Kind() Kind {
	return n.kind
}

// Tag returns the element tag name, or "" for other kinds.
func (n *Node) Tag() string {
	return n.tag
}

// HID returns the hydration ID, or "" if the element was never attached to
// a document. Non-elements never have one.
func (n *Node) HID() string {
	return n.hid
}

// Parent returns the parent node, or nil when detached.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns a copy of the child list.
func (n *Node) Children() Nodes {
	out := make(Nodes, len(n.children))
	copy(out, n.children)
	return out
}

// ChildCount returns the number of children.
func (n *Node) ChildCount() int {
	return len(n.children)
}

// FirstChild returns the first child or nil.
func (n *Node) FirstChild() *Node {
	if len(n.children) == 0 {
		return nil
	}
	return n.children[0]
}

// NextSibling returns the following sibling or nil.
func (n *Node) NextSibling() *Node {
	if n.parent == nil {
		return nil
	}
	i := n.parent.indexOf(n)
	if i < 0 || i+1 >= len(n.parent.children) {
		return nil
	}
	return n.parent.children[i+1]
}

// Index returns the node's position among its siblings, or -1.
func (n *Node) Index() int {
	if n.parent == nil {
		return -1
	}
	return n.parent.indexOf(n)
}

// Document returns the document the node is attached to, or nil.
func (n *Node) Document() *Document {
	root := n
	for root.parent != nil {
		root = root.parent
	}
	return root.doc
}

// IsConnected reports whether the node is attached to a document.
func (n *Node) IsConnected() bool {
	return n.Document() != nil
}

// Contains reports whether other is n or a descendant of n.
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Text returns the text of a text node, or the concatenated text of all
// descendant text nodes otherwise.
func (n *Node) Text() string {
	if n.kind == KindText {
		return n.text
	}
	var sb strings.Builder
	n.collectText(&sb)
	return sb.String()
}

func (n *Node) collectText(sb *strings.Builder) {
	for _, c := range n.children {
		if c.kind == KindText {
			sb.WriteString(c.text)
			continue
		}
		c.collectText(sb)
	}
}

// SetText sets the content of a text node. On any other node it replaces
// all children with a single text node.
func (n *Node) SetText(s string) {
	if n.kind == KindText {
		if n.text == s {
			return
		}
		n.text = s
		n.emit(Mutation{Op: PatchSetText, Target: n, Value: s})
		return
	}

	for len(n.children) > 0 {
		_ = n.RemoveChild(n.children[len(n.children)-1])
	}
	_ = n.AppendChild(NewText(s))
}

// SetAttr sets an attribute on an element. No-op on other kinds or when
// the value is unchanged.
func (n *Node) SetAttr(key, value string) {
	if n.kind != KindElement {
		return
	}
	if old, ok := n.attrs[key]; ok && old == value {
		return
	}
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[key] = value
	n.emit(Mutation{Op: PatchSetAttr, Target: n, Key: key, Value: value})
}

// Attr returns an attribute value and whether it is set.
func (n *Node) Attr(key string) (string, bool) {
	v, ok := n.attrs[key]
	return v, ok
}

// RemoveAttr removes an attribute. Removing an absent attribute is a no-op.
func (n *Node) RemoveAttr(key string) {
	if _, ok := n.attrs[key]; !ok {
		return
	}
	delete(n.attrs, key)
	n.emit(Mutation{Op: PatchRemoveAttr, Target: n, Key: key})
}

// Attrs returns all attributes sorted by key.
func (n *Node) Attrs() []Attribute {
	out := make([]Attribute, 0, len(n.attrs))
	for k, v := range n.attrs {
		out = append(out, Attribute{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// On attaches h as the handler for event, replacing any previous one.
// A nil handler removes it. Only elements take handlers.
func (n *Node) On(event string, h Handler) {
	if n.kind != KindElement {
		return
	}
	event = strings.TrimPrefix(strings.ToLower(event), "on")
	if h == nil {
		delete(n.handlers, event)
		return
	}
	if n.handlers == nil {
		n.handlers = make(map[string]Handler)
	}
	n.handlers[event] = h
}

// Handler returns the handler for event, or nil.
func (n *Node) Handler(event string) Handler {
	return n.handlers[strings.TrimPrefix(strings.ToLower(event), "on")]
}

// Events returns the names of events with handlers, sorted.
func (n *Node) Events() []string {
	out := make([]string, 0, len(n.handlers))
	for k := range n.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// IsInteractive returns true if this element has event handlers.
func (n *Node) IsInteractive() bool {
	return n.kind == KindElement && len(n.handlers) > 0
}

// Walk calls fn for n and every descendant in document order. Returning
// false from fn skips the node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children() {
		c.Walk(fn)
	}
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c == child {
			return i
		}
	}
	return -1
}

// emit forwards m to the owning document, if any.
func (n *Node) emit(m Mutation) {
	if d := n.Document(); d != nil {
		d.record(m)
	}
}
