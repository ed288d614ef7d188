package model

// ChildCountMismatch describes a node whose declared child count does not
// match the number of children it carries.
type ChildCountMismatch struct {
	Path     string `yaml:"path"               json:"path"`
	HashCode int64  `yaml:"hashCode,omitempty" json:"hashCode,omitempty"`
	Declared int    `yaml:"declared"           json:"declared"`
	Actual   int    `yaml:"actual"             json:"actual"`
}

// CheckChildCounts returns every node whose ChildCount is set and differs
// from len(Children). Nodes without a declared count are skipped.
//
// Only captured trees carry their children. Find results declare a child
// count with no children attached, so checking them reports every parent.
func CheckChildCounts(nodes []Node) []ChildCountMismatch {
	var result []ChildCountMismatch
	checkChildCounts(nodes, "", &result)
	return result
}

func checkChildCounts(nodes []Node, parentPath string, result *[]ChildCountMismatch) {
	for i := range nodes {
		n := &nodes[i]
		path := nodePathSegment(n)
		if parentPath != "" {
			path = parentPath + " > " + path
		}
		if n.ChildCount != nil && *n.ChildCount != len(n.Children) {
			*result = append(*result, ChildCountMismatch{
				Path:     path,
				HashCode: n.HashCode,
				Declared: *n.ChildCount,
				Actual:   len(n.Children),
			})
		}
		checkChildCounts(n.Children, path, result)
	}
}

func nodePathSegment(n *Node) string {
	if n.Name != "" {
		return n.Name
	}
	if n.ClassName != "" {
		return simpleName(n.ClassName)
	}
	return "??"
}
