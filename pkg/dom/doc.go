// Package dom provides the live document tree that tide components render
// into.
//
// Unlike a virtual DOM, nodes here are long-lived and mutated in place: the
// tree patcher in package mount swaps whole subtrees when a reactive value
// changes, and nothing is diffed. A Document records every mutation under
// its root so a session can forward changes to the browser.
//
// # Core Types
//
// Node is an element, text node, fragment or document root. Nodes is an
// ordered collection of nodes that is not itself part of the tree.
//
//	div := dom.NewElement("div")
//	div.SetAttr("class", "card")
//	div.AppendChild(dom.NewText("hello"))
//
// # Hydration IDs
//
// Elements receive a hydration ID ("h1", "h2", ...) when they are first
// attached to a Document. HIDs are stable for the lifetime of the node and
// link server nodes to client DOM for event dispatch.
//
// # Thread Safety
//
// A tree is owned by a single goroutine, normally the one running the
// session's reactive runtime. Only Document.Observe and the observer list
// are synchronized.
package dom
