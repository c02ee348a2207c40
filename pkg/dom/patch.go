package dom

// PatchOp is the type of a recorded tree mutation.
type PatchOp uint8

const (
	PatchSetText     PatchOp = 0x01 // Update text content
	PatchSetAttr     PatchOp = 0x02 // Set/update attribute
	PatchRemoveAttr  PatchOp = 0x03 // Remove attribute
	PatchInsertNode  PatchOp = 0x04 // Insert new node
	PatchRemoveNode  PatchOp = 0x05 // Remove node
	PatchReplaceNode PatchOp = 0x07 // Replace node entirely
)

// String returns the string representation of the PatchOp.
func (op PatchOp) String() string {
	switch op {
	case PatchSetText:
		return "SetText"
	case PatchSetAttr:
		return "SetAttr"
	case PatchRemoveAttr:
		return "RemoveAttr"
	case PatchInsertNode:
		return "InsertNode"
	case PatchRemoveNode:
		return "RemoveNode"
	case PatchReplaceNode:
		return "ReplaceNode"
	default:
		return "Unknown"
	}
}

// Mutation describes a single change under a Document.
type Mutation struct {
	Op     PatchOp // Operation type
	Target *Node   // Parent for Insert/Remove/Replace, the node itself otherwise
	Node   *Node   // Inserted or replacement node
	Old    *Node   // Removed or replaced node
	Key    string  // Attribute key (for SetAttr/RemoveAttr)
	Value  string  // New text or attribute value
	Index  int     // Child position for Insert/Replace
}

// HID returns the hydration ID of the mutation target, or "" for text nodes
// and the document root.
func (m Mutation) HID() string {
	if m.Target == nil {
		return ""
	}
	return m.Target.HID()
}
