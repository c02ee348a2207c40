package el

import (
	"fmt"

	"github.com/vango-dev/tide/pkg/dom"
	"github.com/vango-dev/tide/pkg/mount"
)

// Text creates a text node.
func Text(content string) *Node {
	return dom.NewText(content)
}

// Textf creates a formatted text node.
func Textf(format string, args ...any) *Node {
	return Text(fmt.Sprintf(format, args...))
}

// Group materializes children into a collection that is inserted side by
// side, without a wrapper element.
func Group(children ...any) Nodes {
	out := make(Nodes, 0, len(children))
	for _, child := range children {
		if child == nil {
			continue
		}
		n := mount.Materialize(mount.From(child))
		if n.Kind() == dom.KindFragment {
			out = append(out, n.Children()...)
			continue
		}
		out = append(out, n)
	}
	return out
}

// Mount materializes content and appends it to parent. It returns the
// inserted node, or a fragment that is now empty when content was a group.
func Mount(parent *Node, content any) (*Node, error) {
	n := mount.Materialize(mount.From(content))
	if err := parent.AppendChild(n); err != nil {
		return nil, err
	}
	return n, nil
}
