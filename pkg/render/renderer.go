package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/vango-dev/tide/pkg/dom"
)

// RendererConfig configures the HTML renderer.
type RendererConfig struct {
	// Pretty enables pretty-printed HTML output with indentation.
	// Should only be used in development as it increases output size.
	Pretty bool

	// Indent is the string used for each indentation level in pretty mode.
	// Defaults to two spaces if not specified.
	Indent string
}

// Renderer serializes live dom trees to HTML.
type Renderer struct {
	config RendererConfig
}

// NewRenderer creates a new Renderer with the given configuration.
func NewRenderer(config RendererConfig) *Renderer {
	if config.Indent == "" {
		config.Indent = "  "
	}
	return &Renderer{config: config}
}

// RenderToString renders a node to an HTML string.
func (r *Renderer) RenderToString(node *dom.Node) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToWriter(&buf, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToWriter streams a node to the given writer. A document root
// renders its children.
func (r *Renderer) RenderToWriter(w io.Writer, node *dom.Node) error {
	return r.renderNode(w, node, 0)
}

// HTML renders node with the default configuration.
func HTML(node *dom.Node) (string, error) {
	return NewRenderer(RendererConfig{}).RenderToString(node)
}

// renderNode dispatches rendering based on node kind.
func (r *Renderer) renderNode(w io.Writer, node *dom.Node, depth int) error {
	if node == nil {
		return nil
	}

	switch node.Kind() {
	case dom.KindElement:
		return r.renderElement(w, node, depth)
	case dom.KindText:
		_, err := io.WriteString(w, escapeHTML(node.Text()))
		return err
	case dom.KindFragment, dom.KindDocument:
		for _, child := range node.Children() {
			if err := r.renderNode(w, child, depth); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("render: unknown node kind %d", node.Kind())
	}
}

// renderElement renders an HTML element with its attributes and children.
func (r *Renderer) renderElement(w io.Writer, node *dom.Node, depth int) error {
	tag := node.Tag()

	if r.config.Pretty && depth > 0 {
		r.writeIndent(w, depth)
	}

	if _, err := fmt.Fprintf(w, "<%s", tag); err != nil {
		return err
	}
	if err := r.renderAttributes(w, node); err != nil {
		return err
	}
	if _, err := io.WriteString(w, ">"); err != nil {
		return err
	}

	if isVoidElement(tag) {
		r.newline(w)
		return nil
	}

	children := node.Children()
	block := r.config.Pretty && len(children) > 0 && !isInlineElement(tag)
	if block {
		r.newline(w)
	}
	for _, child := range children {
		if block && child.Kind() == dom.KindText {
			r.writeIndent(w, depth+1)
		}
		if err := r.renderNode(w, child, depth+1); err != nil {
			return err
		}
		if block && child.Kind() == dom.KindText {
			r.newline(w)
		}
	}
	if block {
		r.writeIndent(w, depth)
	}

	if _, err := fmt.Fprintf(w, "</%s>", tag); err != nil {
		return err
	}
	r.newline(w)
	return nil
}

// renderAttributes renders attributes in key order, then the hydration ID
// and event markers of interactive elements.
func (r *Renderer) renderAttributes(w io.Writer, node *dom.Node) error {
	for _, a := range node.Attrs() {
		if strings.HasPrefix(a.Key, "data-hid") {
			continue
		}
		if isBooleanAttr(a.Key) {
			if _, err := fmt.Fprintf(w, " %s", a.Key); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, ` %s="%s"`, a.Key, escapeAttr(a.Value)); err != nil {
			return err
		}
	}

	if !node.IsInteractive() || node.HID() == "" {
		return nil
	}

	if _, err := fmt.Fprintf(w, ` data-hid="%s"`, node.HID()); err != nil {
		return err
	}
	for _, ev := range node.Events() {
		if _, err := fmt.Fprintf(w, ` data-on-%s="true"`, ev); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) newline(w io.Writer) {
	if r.config.Pretty {
		io.WriteString(w, "\n")
	}
}

// writeIndent writes indentation for pretty printing.
func (r *Renderer) writeIndent(w io.Writer, depth int) {
	io.WriteString(w, strings.Repeat(r.config.Indent, depth))
}
