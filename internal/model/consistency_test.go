package model

import "testing"

func intPtr(v int) *int { return &v }

func TestCheckChildCounts(t *testing.T) {
	nodes := []Node{
		{
			Name:       "Window",
			ChildCount: intPtr(2),
			Children: []Node{
				{Name: "Button", ChildCount: intPtr(0)},
				{ClassName: "android.widget.LinearLayout", HashCode: 9, ChildCount: intPtr(3), Children: []Node{{}}},
			},
		},
	}
	got := CheckChildCounts(nodes)
	if len(got) != 1 {
		t.Fatalf("expected 1 mismatch, got %d: %+v", len(got), got)
	}
	m := got[0]
	if m.Path != "Window > LinearLayout" {
		t.Errorf("path: got %q", m.Path)
	}
	if m.HashCode != 9 || m.Declared != 3 || m.Actual != 1 {
		t.Errorf("mismatch: got %+v", m)
	}
}

func TestCheckChildCounts_UndeclaredSkipped(t *testing.T) {
	nodes := []Node{{Name: "Window", Children: []Node{{}, {}}}}
	if got := CheckChildCounts(nodes); len(got) != 0 {
		t.Errorf("expected no mismatches, got %+v", got)
	}
}
