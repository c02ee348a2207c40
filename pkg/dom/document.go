package dom

import (
	"fmt"
	"sync"
)

// HIDGenerator generates hydration IDs for elements.
type HIDGenerator struct {
	counter uint32
	mu      sync.Mutex
}

// Next returns the next hydration ID (e.g., "h1", "h2", ...).
func (g *HIDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("h%d", g.counter)
}

// Current returns the current counter value without incrementing.
func (g *HIDGenerator) Current() uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.counter
}

// Document is the root of a live tree. It assigns hydration IDs to
// attached elements and reports mutations to observers.
type Document struct {
	root *Node
	hids HIDGenerator

	byHID map[string]*Node

	mu        sync.Mutex
	observers []observer
	nextObs   uint64
	recorded  uint64
}

type observer struct {
	id uint64
	fn func(Mutation)
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	d := &Document{byHID: make(map[string]*Node)}
	d.root = &Node{kind: KindDocument, doc: d}
	return d
}

// Root returns the document root node.
func (d *Document) Root() *Node {
	return d.root
}

// AppendChild appends n to the document root.
func (d *Document) AppendChild(n *Node) error {
	return d.root.AppendChild(n)
}

// FindByHID returns the attached element with the given hydration ID.
func (d *Document) FindByHID(hid string) *Node {
	return d.byHID[hid]
}

// Observe registers fn for every mutation under the document. The returned
// function unregisters it.
func (d *Document) Observe(fn func(Mutation)) (cancel func()) {
	d.mu.Lock()
	d.nextObs++
	id := d.nextObs
	d.observers = append(d.observers, observer{id: id, fn: fn})
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		for i, o := range d.observers {
			if o.id == id {
				d.observers = append(d.observers[:i], d.observers[i+1:]...)
				return
			}
		}
	}
}

// Recorded returns the number of mutations recorded since creation.
func (d *Document) Recorded() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recorded
}

func (d *Document) record(m Mutation) {
	d.mu.Lock()
	d.recorded++
	obs := make([]observer, len(d.observers))
	copy(obs, d.observers)
	d.mu.Unlock()

	for _, o := range obs {
		o.fn(m)
	}
}

// attach assigns HIDs to newly connected elements and indexes them.
func (d *Document) attach(n *Node) {
	n.Walk(func(c *Node) bool {
		if c.kind == KindElement {
			if c.hid == "" {
				c.hid = d.hids.Next()
			}
			d.byHID[c.hid] = c
		}
		return true
	})
}

// detach drops a disconnected subtree from the index. HIDs are kept so a
// re-attached node is addressed the same way.
func (d *Document) detach(n *Node) {
	n.Walk(func(c *Node) bool {
		if c.hid != "" && d.byHID[c.hid] == c {
			delete(d.byHID, c.hid)
		}
		return true
	})
}
