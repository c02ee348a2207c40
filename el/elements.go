package el

import (
	"fmt"

	"github.com/vango-dev/tide/pkg/dom"
	"github.com/vango-dev/tide/pkg/mount"
	"github.com/vango-dev/tide/pkg/reactive"
)

// Element creates an element with the given tag.
// Arguments can be: nil, Attr, []Attr, EventHandler, []EventHandler, or
// any child accepted by mount.From.
func Element(tag string, args ...any) *Node {
	node := dom.NewElement(tag)

	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Ignore nil (allows conditional attributes)
			continue

		case Attr:
			applyAttr(node, v)

		case []Attr:
			for _, a := range v {
				applyAttr(node, a)
			}

		case EventHandler:
			node.On(v.Event, toHandler(v.Handler))

		case []EventHandler:
			for _, h := range v {
				node.On(h.Event, toHandler(h.Handler))
			}

		default:
			_ = node.AppendChild(mount.Materialize(mount.From(v)))
		}
	}

	return node
}

// applyAttr sets a static attribute or binds a reactive one.
func applyAttr(node *Node, a Attr) {
	if a.IsEmpty() {
		return
	}

	src, ok := a.Value.(reactive.Dynamic)
	if !ok {
		setAttr(node, a.Key, a.Value)
		return
	}

	setAttr(node, a.Key, src.ReadAny())
	sub := reactive.Listen(func() { setAttr(node, a.Key, src.ReadAny()) }, src)
	reactive.OnScopeCleanup(sub.Cancel)
}

// setAttr applies HTML attribute conventions: false and nil remove the
// attribute, true sets it empty.
func setAttr(node *Node, key string, value any) {
	switch v := value.(type) {
	case nil:
		node.RemoveAttr(key)
	case bool:
		if v {
			node.SetAttr(key, "")
		} else {
			node.RemoveAttr(key)
		}
	case string:
		node.SetAttr(key, v)
	case fmt.Stringer:
		node.SetAttr(key, v.String())
	default:
		node.SetAttr(key, fmt.Sprint(v))
	}
}

// toHandler adapts the accepted callback shapes to dom.Handler.
func toHandler(h any) dom.Handler {
	switch fn := h.(type) {
	case nil:
		return nil
	case dom.Handler:
		return fn
	case func(dom.Event):
		return fn
	case func():
		return func(dom.Event) { fn() }
	case func(string):
		return func(ev dom.Event) { fn(ev.Value) }
	default:
		panic(fmt.Sprintf("[TIDE E010] unsupported event handler type %T", h))
	}
}

func Div(args ...any) *Node     { return Element("div", args...) }
func Span(args ...any) *Node    { return Element("span", args...) }
func P(args ...any) *Node       { return Element("p", args...) }
func A(args ...any) *Node       { return Element("a", args...) }
func Button(args ...any) *Node  { return Element("button", args...) }
func H1(args ...any) *Node      { return Element("h1", args...) }
func H2(args ...any) *Node      { return Element("h2", args...) }
func H3(args ...any) *Node      { return Element("h3", args...) }
func Ul(args ...any) *Node      { return Element("ul", args...) }
func Ol(args ...any) *Node      { return Element("ol", args...) }
func Li(args ...any) *Node      { return Element("li", args...) }
func Section(args ...any) *Node { return Element("section", args...) }
func Article(args ...any) *Node { return Element("article", args...) }
func Nav(args ...any) *Node     { return Element("nav", args...) }
func Main(args ...any) *Node    { return Element("main", args...) }
func Header(args ...any) *Node  { return Element("header", args...) }
func Footer(args ...any) *Node  { return Element("footer", args...) }
func Form(args ...any) *Node    { return Element("form", args...) }
func Input(args ...any) *Node   { return Element("input", args...) }
func Label(args ...any) *Node   { return Element("label", args...) }
func Strong(args ...any) *Node  { return Element("strong", args...) }
func Em(args ...any) *Node      { return Element("em", args...) }
func Small(args ...any) *Node   { return Element("small", args...) }
func Pre(args ...any) *Node     { return Element("pre", args...) }
func Code(args ...any) *Node    { return Element("code", args...) }
func Br(args ...any) *Node      { return Element("br", args...) }
