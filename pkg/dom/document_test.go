package dom

import (
	"reflect"
	"testing"
)

func recordOps(d *Document) *[]string {
	var ops []string
	d.Observe(func(m Mutation) { ops = append(ops, m.Op.String()) })
	return &ops
}

func TestDocumentAssignsHIDs(t *testing.T) {
	d := NewDocument()
	main := NewElement("main")
	btn := NewElement("button")
	_ = main.AppendChild(btn)
	_ = main.AppendChild(NewText("label"))

	if btn.HID() != "" {
		t.Fatal("detached element should have no HID")
	}

	if err := d.AppendChild(main); err != nil {
		t.Fatal(err)
	}
	if main.HID() != "h1" || btn.HID() != "h2" {
		t.Errorf("HIDs = %q, %q; want h1, h2", main.HID(), btn.HID())
	}
	if d.FindByHID("h2") != btn {
		t.Error("FindByHID(h2) should return the button")
	}
	if !btn.IsConnected() || btn.Document() != d {
		t.Error("button should be connected to the document")
	}

	btn.Remove()
	if d.FindByHID("h2") != nil {
		t.Error("detached element should not be indexed")
	}
	if btn.HID() != "h2" {
		t.Error("HID should survive detachment")
	}

	_ = main.AppendChild(btn)
	if d.FindByHID("h2") != btn {
		t.Error("re-attached element should keep its HID")
	}
}

func TestDocumentRecordsMutations(t *testing.T) {
	d := NewDocument()
	ops := recordOps(d)

	div := NewElement("div")
	// Mutations on detached nodes are not recorded.
	div.SetAttr("class", "x")
	_ = div.AppendChild(NewText("hi"))
	if len(*ops) != 0 {
		t.Fatalf("detached mutations recorded: %v", *ops)
	}

	_ = d.AppendChild(div)
	text := div.FirstChild()
	text.SetText("hello")
	text.SetText("hello")
	div.SetAttr("class", "y")
	div.RemoveAttr("class")
	Replace(text, NewText("bye"))
	div.FirstChild().Remove()

	want := []string{"InsertNode", "SetText", "SetAttr", "RemoveAttr", "ReplaceNode", "RemoveNode"}
	if !reflect.DeepEqual(*ops, want) {
		t.Errorf("ops = %v, want %v", *ops, want)
	}
	if d.Recorded() != uint64(len(want)) {
		t.Errorf("Recorded() = %d, want %d", d.Recorded(), len(want))
	}
}

func TestMutationCarriesTarget(t *testing.T) {
	d := NewDocument()
	div := NewElement("div")
	_ = d.AppendChild(div)

	var got Mutation
	d.Observe(func(m Mutation) { got = m })

	child := NewElement("span")
	_ = div.AppendChild(child)

	if got.Op != PatchInsertNode || got.Target != div || got.Node != child || got.Index != 0 {
		t.Errorf("unexpected mutation %+v", got)
	}
	if got.HID() != div.HID() {
		t.Errorf("HID() = %q, want %q", got.HID(), div.HID())
	}
	if child.HID() == "" {
		t.Error("inserted element should have a HID before observers run")
	}
}

func TestObserveCancel(t *testing.T) {
	d := NewDocument()
	calls := 0
	cancel := d.Observe(func(Mutation) { calls++ })

	_ = d.AppendChild(NewText("a"))
	cancel()
	cancel()
	_ = d.AppendChild(NewText("b"))

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPatchOpString(t *testing.T) {
	if PatchOp(0).String() != "Unknown" {
		t.Error("zero PatchOp should be Unknown")
	}
	if PatchReplaceNode.String() != "ReplaceNode" {
		t.Error("PatchReplaceNode.String() mismatch")
	}
}
