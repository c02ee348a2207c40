package vtest

import (
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/tide/pkg/dom"
	"github.com/vango-dev/tide/pkg/mount"
	"github.com/vango-dev/tide/pkg/reactive"
	"github.com/vango-dev/tide/pkg/render"
)

// Harness runs components against a runtime and a document.
type Harness struct {
	t        testing.TB
	rt       *reactive.Runtime
	doc      *dom.Document
	roots    []*reactive.Material[*dom.Node]
	flushes  []reactive.FlushStats
	mutation []dom.Mutation
}

// New creates a harness. opts configure its runtime.
func New(t testing.TB, opts ...reactive.Option) *Harness {
	t.Helper()
	h := &Harness{t: t, doc: dom.NewDocument()}
	opts = append(opts, reactive.WithFlushHook(func(st reactive.FlushStats) {
		h.flushes = append(h.flushes, st)
	}))
	h.rt = reactive.New(opts...)
	h.doc.Observe(func(m dom.Mutation) {
		h.mutation = append(h.mutation, m)
	})
	t.Cleanup(h.Close)
	return h
}

// Runtime returns the harness runtime.
func (h *Harness) Runtime() *reactive.Runtime { return h.rt }

// Document returns the harness document.
func (h *Harness) Document() *dom.Document { return h.doc }

// Mount renders fn's content in its own scope and appends it to the
// document root. It returns the mounted material. Cells must be created
// inside fn or Run so that they bind to the harness runtime.
func (h *Harness) Mount(fn func() any) *reactive.Material[*dom.Node] {
	h.t.Helper()
	var (
		m      *reactive.Material[*dom.Node]
		addErr error
	)
	h.Run(func() {
		m = mount.Root(fn)
		addErr = h.doc.AppendChild(m.Value())
	})
	if addErr != nil {
		h.t.Fatalf("vtest: mount: %v", addErr)
	}
	h.roots = append(h.roots, m)
	return m
}

// Run executes fn as one unit on the runtime and flushes. A panic or flush
// error fails the test.
func (h *Harness) Run(fn func()) {
	h.t.Helper()
	if err := h.rt.Run(fn); err != nil {
		h.t.Fatalf("vtest: run: %v", err)
	}
}

// TryRun is Run without failing the test.
func (h *Harness) TryRun(fn func()) error {
	return h.rt.Run(fn)
}

// Flush delivers pending notifications and returns the error, if any.
func (h *Harness) Flush() error {
	return h.rt.Flush()
}

// RunPending runs tasks posted to the runtime, such as interval ticks,
// and returns how many ran.
func (h *Harness) RunPending() int {
	return h.rt.RunPending()
}

// WaitFor runs posted tasks until cond holds, failing the test after
// timeout.
func (h *Harness) WaitFor(timeout time.Duration, cond func() bool) {
	h.t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		h.rt.RunPending()
		if cond() {
			return
		}
		if time.Now().After(deadline) {
			h.t.Fatalf("vtest: condition not met within %v; document:\n%s", timeout, truncate(h.HTML(), 500))
		}
		time.Sleep(time.Millisecond)
	}
}

// Flushes returns the stats of every flush that delivered notifications.
func (h *Harness) Flushes() []reactive.FlushStats {
	return h.flushes
}

// Mutations returns and clears the document mutations recorded so far.
func (h *Harness) Mutations() []dom.Mutation {
	out := h.mutation
	h.mutation = nil
	return out
}

// Fire invokes the handler for event on node as one unit of work.
func (h *Harness) Fire(node *dom.Node, event, value string) {
	h.t.Helper()
	if node == nil {
		h.t.Fatalf("vtest: fire %s on nil node", event)
	}
	handler := node.Handler(event)
	if handler == nil {
		h.t.Fatalf("vtest: <%s> has no %s handler", node.Tag(), event)
	}
	h.Run(func() {
		handler(dom.Event{Type: event, Value: value, Target: node})
	})
}

// Click fires a click on node.
func (h *Harness) Click(node *dom.Node) {
	h.t.Helper()
	h.Fire(node, "click", "")
}

// Input fires an input event carrying value.
func (h *Harness) Input(node *dom.Node, value string) {
	h.t.Helper()
	h.Fire(node, "input", value)
}

// FindByHID returns the connected node with hid.
func (h *Harness) FindByHID(hid string) *dom.Node {
	return h.doc.FindByHID(hid)
}

// FindByText returns the first element with tag whose text contains text,
// or nil.
func (h *Harness) FindByText(tag, text string) *dom.Node {
	var found *dom.Node
	h.doc.Root().Walk(func(n *dom.Node) bool {
		if found != nil {
			return false
		}
		if n.Kind() == dom.KindElement && n.Tag() == tag && strings.Contains(n.Text(), text) {
			found = n
			return false
		}
		return true
	})
	return found
}

// HTML renders the document's children.
func (h *Harness) HTML() string {
	var sb strings.Builder
	for _, child := range h.doc.Root().Children() {
		sb.WriteString(RenderToString(child))
	}
	return sb.String()
}

// ExpectContains fails the test unless the document HTML contains s.
func (h *Harness) ExpectContains(s string) {
	h.t.Helper()
	if html := h.HTML(); !strings.Contains(html, s) {
		h.t.Errorf("expected document to contain %q, got:\n%s", s, truncate(html, 500))
	}
}

// ExpectNotContains fails the test if the document HTML contains s.
func (h *Harness) ExpectNotContains(s string) {
	h.t.Helper()
	if html := h.HTML(); strings.Contains(html, s) {
		h.t.Errorf("expected document not to contain %q, got:\n%s", s, truncate(html, 500))
	}
}

// Close disposes everything mounted and closes the runtime. Idempotent.
func (h *Harness) Close() {
	for i := len(h.roots) - 1; i >= 0; i-- {
		reactive.WithRuntime(h.rt, h.roots[i].Dispose)
	}
	h.roots = nil
	h.rt.Close()
}

// RenderToString renders node, or returns "" when it cannot be rendered.
func RenderToString(node *dom.Node) string {
	html, err := render.HTML(node)
	if err != nil {
		return ""
	}
	return html
}

// ExpectContains asserts that node renders to HTML containing expected.
func ExpectContains(t testing.TB, node *dom.Node, expected string) {
	t.Helper()
	html := RenderToString(node)
	if !strings.Contains(html, expected) {
		t.Errorf("expected rendered output to contain %q, got:\n%s", expected, truncate(html, 500))
	}
}

// ExpectNotContains asserts that node's HTML does not contain unexpected.
func ExpectNotContains(t testing.TB, node *dom.Node, unexpected string) {
	t.Helper()
	html := RenderToString(node)
	if strings.Contains(html, unexpected) {
		t.Errorf("expected rendered output to NOT contain %q, got:\n%s", unexpected, truncate(html, 500))
	}
}

// ExpectAttribute asserts that node's HTML carries attr="value".
func ExpectAttribute(t testing.TB, node *dom.Node, attr, value string) {
	t.Helper()
	html := RenderToString(node)
	needle := attr + `="` + value + `"`
	if !strings.Contains(html, needle) {
		t.Errorf("expected attribute %s=%q not found, got:\n%s", attr, value, truncate(html, 500))
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
