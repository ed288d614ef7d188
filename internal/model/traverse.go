package model

// CountNodes returns the number of nodes in the forest, counting every
// node and all of its descendants.
func CountNodes(nodes []Node) int {
	count := 0
	for i := range nodes {
		count += 1 + CountNodes(nodes[i].Children)
	}
	return count
}

// Find searches the forest depth-first, pre-order, and returns the first
// node for which match returns true. Returns nil when nothing matches.
func Find(nodes []Node, match func(*Node) bool) *Node {
	for i := range nodes {
		if match(&nodes[i]) {
			return &nodes[i]
		}
		if found := Find(nodes[i].Children, match); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every node matching in pre-order.
func FindAll(nodes []Node, match func(*Node) bool) []*Node {
	var results []*Node
	Walk(nodes, func(n *Node, _ int) bool {
		if match(n) {
			results = append(results, n)
		}
		return true
	})
	return results
}

// FindByResourceID returns the first node whose resource ID equals id.
func FindByResourceID(nodes []Node, id string) *Node {
	if id == "" {
		return nil
	}
	return Find(nodes, func(n *Node) bool { return n.ResourceID == id })
}

// FindByHashCode returns the first node with the given hash code. Zero is
// the absent hash code and never matches.
func FindByHashCode(nodes []Node, hashCode int64) *Node {
	if hashCode == 0 {
		return nil
	}
	return Find(nodes, func(n *Node) bool { return n.HashCode == hashCode })
}

// SelectSubtrees narrows a forest to the subtree rooted at the node with
// hashCode when it is non-zero, then to every subtree rooted at a node whose
// resource ID is viewID when that is set. The result is never nil.
func SelectSubtrees(nodes []Node, hashCode int64, viewID string) []Node {
	if hashCode != 0 {
		n := FindByHashCode(nodes, hashCode)
		if n == nil {
			return []Node{}
		}
		nodes = []Node{*n}
	}
	if viewID != "" {
		matches := FindAll(nodes, func(n *Node) bool { return n.ResourceID == viewID })
		selected := make([]Node, 0, len(matches))
		for _, n := range matches {
			selected = append(selected, *n)
		}
		nodes = selected
	}
	return nodes
}

// Walk visits every node pre-order with its depth (top-level nodes are depth
// 0). Returning false from fn skips that node's children.
func Walk(nodes []Node, fn func(n *Node, depth int) bool) {
	walk(nodes, 0, fn)
}

func walk(nodes []Node, depth int, fn func(*Node, int) bool) {
	for i := range nodes {
		if fn(&nodes[i], depth) {
			walk(nodes[i].Children, depth+1, fn)
		}
	}
}
