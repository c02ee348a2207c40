package dom

// AppendChild inserts child as the last child of n.
func (n *Node) AppendChild(child *Node) error {
	return n.InsertBefore(child, nil)
}

// InsertBefore inserts child before ref, or at the end when ref is nil.
// An attached child is detached from its current parent first. A fragment
// child has its children moved in order and is left empty.
func (n *Node) InsertBefore(child, ref *Node) error {
	if child == nil {
		return nil
	}
	if err := n.checkInsert(child); err != nil {
		return err
	}
	if ref != nil && ref.parent != n {
		return ErrNotChild
	}

	if child.kind == KindFragment {
		for _, c := range child.Children() {
			if err := n.InsertBefore(c, ref); err != nil {
				return err
			}
		}
		return nil
	}
	if child == ref {
		return nil
	}

	if child.parent != nil {
		_ = child.parent.RemoveChild(child)
	}

	i := len(n.children)
	if ref != nil {
		i = n.indexOf(ref)
	}
	n.children = append(n.children, nil)
	copy(n.children[i+1:], n.children[i:])
	n.children[i] = child
	child.parent = n

	if d := n.Document(); d != nil {
		d.attach(child)
		d.record(Mutation{Op: PatchInsertNode, Target: n, Node: child, Index: i})
	}
	return nil
}

// RemoveChild detaches child from n.
func (n *Node) RemoveChild(child *Node) error {
	if child == nil || child.parent != n {
		return ErrNotChild
	}

	i := n.indexOf(child)
	n.children = append(n.children[:i], n.children[i+1:]...)
	child.parent = nil

	if d := n.Document(); d != nil {
		d.record(Mutation{Op: PatchRemoveNode, Target: n, Old: child, Index: i})
		d.detach(child)
	}
	return nil
}

// ReplaceChild puts newChild in oldChild's position and detaches oldChild.
// A fragment newChild is expanded in place.
func (n *Node) ReplaceChild(newChild, oldChild *Node) error {
	if oldChild == nil || oldChild.parent != n {
		return ErrNotChild
	}
	if newChild == oldChild {
		return nil
	}
	if newChild == nil {
		return n.RemoveChild(oldChild)
	}
	if err := n.checkInsert(newChild); err != nil {
		return err
	}

	if newChild.kind == KindFragment {
		if err := n.InsertBefore(newChild, oldChild); err != nil {
			return err
		}
		return n.RemoveChild(oldChild)
	}

	if newChild.parent != nil {
		_ = newChild.parent.RemoveChild(newChild)
	}

	i := n.indexOf(oldChild)
	n.children[i] = newChild
	newChild.parent = n
	oldChild.parent = nil

	if d := n.Document(); d != nil {
		d.attach(newChild)
		d.record(Mutation{Op: PatchReplaceNode, Target: n, Node: newChild, Old: oldChild, Index: i})
		d.detach(oldChild)
	}
	return nil
}

// Remove detaches n from its parent. No-op when already detached.
func (n *Node) Remove() {
	if n.parent != nil {
		_ = n.parent.RemoveChild(n)
	}
}

// Replace puts next in old's place in the tree. It returns false and
// changes nothing when old has no parent.
func Replace(old, next *Node) bool {
	if old == nil || old.parent == nil {
		return false
	}
	return old.parent.ReplaceChild(next, old) == nil
}

func (n *Node) checkInsert(child *Node) error {
	if n.kind == KindText || child.kind == KindDocument {
		return ErrHierarchy
	}
	if child.Contains(n) {
		return ErrHierarchy
	}
	return nil
}
