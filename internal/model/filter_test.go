package model

import "testing"

func TestFilterVisible_PromotesVisibleChildren(t *testing.T) {
	nodes := []Node{
		{
			Name: "Window",
			Children: []Node{
				{
					Name:      "FrameLayout",
					Invisible: true,
					Children: []Node{
						{Name: "Button", Text: "OK"},
						{Name: "Button", Text: "Hidden", Invisible: true},
					},
				},
			},
		},
	}
	result := FilterVisible(nodes)
	if len(result) != 1 {
		t.Fatalf("expected 1 window, got %d", len(result))
	}
	children := result[0].Children
	if len(children) != 1 {
		t.Fatalf("expected 1 promoted child, got %d", len(children))
	}
	if children[0].Text != "OK" {
		t.Errorf("expected OK button, got %q", children[0].Text)
	}
	// The input must not be modified.
	if len(nodes[0].Children[0].Children) != 2 {
		t.Error("FilterVisible modified its input")
	}
}

func TestFilterByText(t *testing.T) {
	nodes := []Node{
		{
			Name: "Window",
			Children: []Node{
				{Name: "Button", Text: "Submit"},
				{Name: "Button", Text: "Cancel"},
				{Name: "ImageView", ResourceID: "com.example:id/submit_icon"},
			},
		},
	}
	result := FilterByText(nodes, "submit")
	if len(result) != 1 {
		t.Fatalf("expected window to be kept, got %d nodes", len(result))
	}
	if got := len(result[0].Children); got != 2 {
		t.Errorf("expected 2 matching children, got %d", got)
	}
}

func TestFilterByText_Empty(t *testing.T) {
	nodes := []Node{{Name: "Window"}}
	if result := FilterByText(nodes, ""); len(result) != 1 {
		t.Errorf("empty filter should return input, got %d", len(result))
	}
}

func TestLimitDepth(t *testing.T) {
	nodes := []Node{
		{Name: "Window", Children: []Node{
			{Name: "FrameLayout", Children: []Node{{Name: "Button"}}},
		}},
	}
	tests := []struct {
		depth int
		want  int
	}{
		{0, 3},
		{1, 1},
		{2, 2},
		{5, 3},
	}
	for _, tt := range tests {
		if got := CountNodes(LimitDepth(nodes, tt.depth)); got != tt.want {
			t.Errorf("LimitDepth(%d): got %d nodes, want %d", tt.depth, got, tt.want)
		}
	}
	if CountNodes(nodes) != 3 {
		t.Error("LimitDepth modified its input")
	}
}
