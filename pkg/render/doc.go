// Package render serializes live dom trees to HTML.
//
// It handles text and attribute escaping, void elements, boolean
// attributes, and hydration markers: interactive elements that are
// attached to a document carry data-hid plus one data-on-<event> marker per
// handler, which the browser client uses to route events back.
//
//	html, err := render.HTML(node)
//
// RenderPage wraps a tree in a full document with the live root container
// and the client script. StreamingRenderer does the same with incremental
// flushing.
package render
