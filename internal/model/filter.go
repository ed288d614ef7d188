package model

import "strings"

// FilterVisible drops nodes that are not visible to the user. Visible
// descendants of a dropped node are promoted to its parent so they are not
// lost with it.
func FilterVisible(nodes []Node) []Node {
	var result []Node
	for _, n := range nodes {
		children := FilterVisible(n.Children)
		if n.Invisible {
			result = append(result, children...)
			continue
		}
		filtered := n
		filtered.Children = children
		result = append(result, filtered)
	}
	return result
}

// FilterByText keeps nodes whose text, content description, or resource ID
// contains text (case-insensitive), together with their ancestors. Children
// of kept nodes are reduced to the matching branches.
func FilterByText(nodes []Node, text string) []Node {
	if text == "" {
		return nodes
	}
	textLower := strings.ToLower(text)
	return filterByText(nodes, textLower)
}

func filterByText(nodes []Node, textLower string) []Node {
	var result []Node
	for _, n := range nodes {
		childMatches := filterByText(n.Children, textLower)
		if textMatchesNode(&n, textLower) || len(childMatches) > 0 {
			filtered := n
			filtered.Children = childMatches
			result = append(result, filtered)
		}
	}
	return result
}

func textMatchesNode(n *Node, textLower string) bool {
	return strings.Contains(strings.ToLower(n.Text), textLower) ||
		strings.Contains(strings.ToLower(n.ContentDescription), textLower) ||
		strings.Contains(strings.ToLower(n.ResourceID), textLower)
}

// LimitDepth returns a copy of the forest truncated below maxDepth
// (top-level nodes are depth 0). A maxDepth of 0 or less returns nodes
// unchanged.
func LimitDepth(nodes []Node, maxDepth int) []Node {
	if maxDepth <= 0 {
		return nodes
	}
	return limitDepth(nodes, 0, maxDepth)
}

func limitDepth(nodes []Node, depth, maxDepth int) []Node {
	result := make([]Node, len(nodes))
	for i, n := range nodes {
		result[i] = n
		if depth+1 >= maxDepth {
			result[i].Children = nil
		} else {
			result[i].Children = limitDepth(n.Children, depth+1, maxDepth)
		}
	}
	return result
}
