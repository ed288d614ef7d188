package model

// FlatNode is a node with a path breadcrumb instead of children.
type FlatNode struct {
	HashCode           int64   `yaml:"hashCode,omitempty"           json:"hashCode,omitempty"`
	ResourceID         string  `yaml:"resourceId,omitempty"         json:"resourceId,omitempty"`
	Name               string  `yaml:"name,omitempty"               json:"name,omitempty"`
	Text               string  `yaml:"text,omitempty"               json:"text,omitempty"`
	ContentDescription string  `yaml:"contentDescription,omitempty" json:"contentDescription,omitempty"`
	Bounds             *Bounds `yaml:"bounds,omitempty"             json:"bounds,omitempty"`
	Clickable          bool    `yaml:"clickable,omitempty"          json:"clickable,omitempty"`
	Enabled            *bool   `yaml:"enabled,omitempty"            json:"enabled,omitempty"`
	Focused            bool    `yaml:"focused,omitempty"            json:"focused,omitempty"`
	Selected           bool    `yaml:"selected,omitempty"           json:"selected,omitempty"`
	Checked            bool    `yaml:"checked,omitempty"            json:"checked,omitempty"`
	Invisible          bool    `yaml:"invisible,omitempty"          json:"invisible,omitempty"`
	Depth              int     `yaml:"depth"                        json:"depth"`
	Path               string  `yaml:"path,omitempty"               json:"path,omitempty"`
}

// FlattenNodes converts a tree of nodes into a flat pre-order list.
// Each node gets a path string showing its location in the tree using
// node names joined with " > ".
func FlattenNodes(nodes []Node) []FlatNode {
	var result []FlatNode
	for i := range nodes {
		flattenRecursive(&nodes[i], "", 0, &result)
	}
	return result
}

func flattenRecursive(n *Node, parentPath string, depth int, result *[]FlatNode) {
	currentPath := nodePathSegment(n)
	if parentPath != "" {
		currentPath = parentPath + " > " + currentPath
	}

	*result = append(*result, FlatNode{
		HashCode:           n.HashCode,
		ResourceID:         n.ResourceID,
		Name:               n.Name,
		Text:               n.Text,
		ContentDescription: n.ContentDescription,
		Bounds:             n.Bounds,
		Clickable:          n.Clickable,
		Enabled:            n.Enabled,
		Focused:            n.Focused,
		Selected:           n.Selected,
		Checked:            n.Checked,
		Invisible:          n.Invisible,
		Depth:              depth,
		Path:               currentPath,
	})

	for i := range n.Children {
		flattenRecursive(&n.Children[i], currentPath, depth+1, result)
	}
}
