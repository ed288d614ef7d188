package model

import "testing"

func sampleForest() []Node {
	return []Node{
		{
			Name:     "Root",
			HashCode: 1,
			Children: []Node{
				{Name: "A", HashCode: 2, ResourceID: "id/a", Children: []Node{
					{Name: "A1", HashCode: 3, ResourceID: "id/dup"},
				}},
				{Name: "B", HashCode: 4, ResourceID: "id/dup"},
			},
		},
	}
}

func TestCountNodes(t *testing.T) {
	nodes := sampleForest()
	if got := CountNodes(nodes); got != 4 {
		t.Fatalf("got %d, want 4", got)
	}
	if got := CountNodes(nodes); got != 4 {
		t.Errorf("second count: got %d, want 4", got)
	}
	if got := CountNodes(nil); got != 0 {
		t.Errorf("empty: got %d", got)
	}
}

func TestFindByResourceID_FirstPreOrderMatch(t *testing.T) {
	nodes := sampleForest()
	n := FindByResourceID(nodes, "id/dup")
	if n == nil {
		t.Fatal("expected a match")
	}
	if n.HashCode != 3 {
		t.Errorf("expected pre-order first match (hash 3), got %d", n.HashCode)
	}
	if n != &nodes[0].Children[0].Children[0] {
		t.Error("expected the node itself, not a copy")
	}
}

func TestFindByResourceID_Absent(t *testing.T) {
	if n := FindByResourceID(sampleForest(), "id/missing"); n != nil {
		t.Errorf("expected nil, got %+v", n)
	}
	if n := FindByResourceID(sampleForest(), ""); n != nil {
		t.Errorf("empty id should not match, got %+v", n)
	}
}

func TestFindByHashCode(t *testing.T) {
	n := FindByHashCode(sampleForest(), 4)
	if n == nil || n.Name != "B" {
		t.Fatalf("got %+v, want B", n)
	}
}

func TestFindByHashCode_ZeroNeverMatches(t *testing.T) {
	tree, err := DecodeTree([]byte(`{"children": [{"name": "Window", "children": [{"name": "Button", "metadata": {"hashCode": 7}}]}]}`))
	if err != nil {
		t.Fatalf("DecodeTree: %v", err)
	}
	if tree.Windows[0].HashCode != 0 {
		t.Fatalf("window hash code: got %d, want 0", tree.Windows[0].HashCode)
	}
	if n := FindByHashCode(tree.Windows, 0); n != nil {
		t.Errorf("got %+v, want nil", n)
	}
	if n := FindByHashCode(tree.Windows, 7); n == nil || n.Name != "Button" {
		t.Errorf("got %+v, want Button", n)
	}
}

func TestFindAll(t *testing.T) {
	all := FindAll(sampleForest(), func(n *Node) bool { return n.ResourceID == "id/dup" })
	if len(all) != 2 {
		t.Fatalf("got %d matches, want 2", len(all))
	}
	if all[0].HashCode != 3 || all[1].HashCode != 4 {
		t.Errorf("order: got %d, %d", all[0].HashCode, all[1].HashCode)
	}
}

func TestSelectSubtrees(t *testing.T) {
	tests := []struct {
		name     string
		hashCode int64
		viewID   string
		want     []int64
	}{
		{"no selection", 0, "", []int64{1}},
		{"by hash code", 2, "", []int64{2}},
		{"by view id", 0, "id/dup", []int64{3, 4}},
		{"view id within hash code", 2, "id/dup", []int64{3}},
		{"unknown hash code", 99, "", nil},
		{"unknown view id", 0, "id/missing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectSubtrees(sampleForest(), tt.hashCode, tt.viewID)
			if got == nil {
				t.Fatal("got nil slice")
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d subtrees, want %d", len(got), len(tt.want))
			}
			for i, h := range tt.want {
				if got[i].HashCode != h {
					t.Errorf("subtree %d: got hash %d, want %d", i, got[i].HashCode, h)
				}
			}
		})
	}
}

func TestSelectSubtrees_KeepsChildren(t *testing.T) {
	got := SelectSubtrees(sampleForest(), 2, "")
	if len(got) != 1 || len(got[0].Children) != 1 || got[0].Children[0].Name != "A1" {
		t.Errorf("got %+v", got)
	}
}

func TestWalk_SkipChildren(t *testing.T) {
	var visited []string
	Walk(sampleForest(), func(n *Node, depth int) bool {
		visited = append(visited, n.Name)
		return n.Name != "A"
	})
	want := []string{"Root", "A", "B"}
	if len(visited) != len(want) {
		t.Fatalf("visited %v, want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited[%d] = %q, want %q", i, visited[i], want[i])
		}
	}
}
