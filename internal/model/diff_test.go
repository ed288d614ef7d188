package model

import "testing"

func TestDiffNodes_NoChanges(t *testing.T) {
	nodes := []FlatNode{
		{HashCode: 1, Name: "Button", Text: "OK", Bounds: &Bounds{10, 20, 110, 50}, Path: "Window > Button"},
	}
	changes := DiffNodes(nodes, nodes)
	if len(changes) != 0 {
		t.Errorf("expected no changes, got %d", len(changes))
	}
}

func TestDiffNodes_Added(t *testing.T) {
	prev := []FlatNode{
		{HashCode: 1, Name: "Button", Text: "OK", Path: "Window"},
	}
	curr := []FlatNode{
		{HashCode: 1, Name: "Button", Text: "OK", Path: "Window"},
		{HashCode: 2, Name: "Button", Text: "Cancel", Path: "Window"},
	}
	changes := DiffNodes(prev, curr)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].Type != ChangeAdded {
		t.Errorf("expected added, got %s", changes[0].Type)
	}
	if changes[0].Node.Text != "Cancel" {
		t.Errorf("expected Cancel, got %s", changes[0].Node.Text)
	}
}

func TestDiffNodes_Removed(t *testing.T) {
	prev := []FlatNode{
		{HashCode: 1, Name: "Button", Text: "OK", Path: "Window"},
		{HashCode: 2, Name: "TextView", Text: "Loading...", Path: "Window"},
	}
	curr := []FlatNode{
		{HashCode: 1, Name: "Button", Text: "OK", Path: "Window"},
	}
	changes := DiffNodes(prev, curr)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].Type != ChangeRemoved {
		t.Errorf("expected removed, got %s", changes[0].Type)
	}
	if changes[0].HashCode != 2 {
		t.Errorf("expected hash code 2, got %d", changes[0].HashCode)
	}
	if changes[0].Text != "Loading..." {
		t.Errorf("expected removed text, got %q", changes[0].Text)
	}
}

func TestDiffNodes_Changed(t *testing.T) {
	prev := []FlatNode{
		{HashCode: 7, Name: "EditText", Text: "", Path: "Window"},
	}
	curr := []FlatNode{
		{HashCode: 7, Name: "EditText", Text: "hello", Path: "Window"},
	}
	changes := DiffNodes(prev, curr)
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].Type != ChangeChanged {
		t.Errorf("expected changed, got %s", changes[0].Type)
	}
	if changes[0].Changes["text"][1] != "hello" {
		t.Errorf("expected new text 'hello', got %s", changes[0].Changes["text"][1])
	}
}

func TestDiffNodes_NoHashCodeMatchesByPath(t *testing.T) {
	prev := []FlatNode{{Name: "Window", Text: "a", Path: "Window"}}
	curr := []FlatNode{{Name: "Window", Text: "b", Path: "Window"}}
	changes := DiffNodes(prev, curr)
	if len(changes) != 1 || changes[0].Type != ChangeChanged {
		t.Fatalf("expected a single changed entry, got %+v", changes)
	}
}

func TestDiffProperties_MultipleDiffs(t *testing.T) {
	prev := FlatNode{HashCode: 1, Text: "old", Focused: false}
	curr := FlatNode{HashCode: 1, Text: "new", Focused: true}
	diffs := diffProperties(prev, curr)
	if len(diffs) != 2 {
		t.Errorf("expected 2 diffs (text, focused), got %d", len(diffs))
	}
}

func TestDiffProperties_Bounds(t *testing.T) {
	prev := FlatNode{Bounds: &Bounds{0, 0, 10, 10}}
	curr := FlatNode{Bounds: &Bounds{0, 5, 10, 15}}
	diffs := diffProperties(prev, curr)
	got, ok := diffs["bounds"]
	if !ok {
		t.Fatal("expected bounds diff")
	}
	if got[0] != "[0,0,10,10]" || got[1] != "[0,5,10,15]" {
		t.Errorf("bounds diff: got %v", got)
	}
}
