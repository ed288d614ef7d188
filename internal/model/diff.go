package model

import (
	"fmt"
	"strconv"
	"time"
)

// ChangeType represents the kind of UI change detected.
type ChangeType string

const (
	ChangeAdded   ChangeType = "added"
	ChangeRemoved ChangeType = "removed"
	ChangeChanged ChangeType = "changed"
)

// UIChange represents a single change between two captures.
type UIChange struct {
	Type     ChangeType           `yaml:"type"               json:"type"`
	TS       int64                `yaml:"ts"                 json:"ts"`
	Node     *FlatNode            `yaml:"node,omitempty"     json:"node,omitempty"`     // For added: the full node
	Path     string               `yaml:"path,omitempty"     json:"path,omitempty"`     // For added/removed: path in tree
	HashCode int64                `yaml:"hashCode,omitempty" json:"hashCode,omitempty"` // For removed/changed
	Name     string               `yaml:"name,omitempty"     json:"name,omitempty"`     // For removed
	Text     string               `yaml:"text,omitempty"     json:"text,omitempty"`     // For removed
	Changes  map[string][2]string `yaml:"changes,omitempty"  json:"changes,omitempty"`  // For changed: field diffs
}

// DiffNodes compares two flat node lists and returns the changes. Nodes are
// matched by hash code; nodes without one are matched by their path.
func DiffNodes(prev, curr []FlatNode) []UIChange {
	prevMap := make(map[string]FlatNode, len(prev))
	for _, n := range prev {
		prevMap[flatKey(n)] = n
	}
	currMap := make(map[string]FlatNode, len(curr))
	for _, n := range curr {
		currMap[flatKey(n)] = n
	}

	var changes []UIChange
	now := time.Now().Unix()

	// Check for added and changed nodes
	for _, n := range curr {
		prevNode, existed := prevMap[flatKey(n)]
		if !existed {
			nCopy := n
			changes = append(changes, UIChange{
				Type: ChangeAdded,
				TS:   now,
				Node: &nCopy,
				Path: n.Path,
			})
			continue
		}
		diffs := diffProperties(prevNode, n)
		if len(diffs) > 0 {
			changes = append(changes, UIChange{
				Type:     ChangeChanged,
				TS:       now,
				HashCode: n.HashCode,
				Path:     n.Path,
				Changes:  diffs,
			})
		}
	}

	// Check for removed nodes
	for _, n := range prev {
		if _, exists := currMap[flatKey(n)]; !exists {
			changes = append(changes, UIChange{
				Type:     ChangeRemoved,
				TS:       now,
				HashCode: n.HashCode,
				Path:     n.Path,
				Name:     n.Name,
				Text:     n.Text,
			})
		}
	}

	return changes
}

func flatKey(n FlatNode) string {
	if n.HashCode != 0 {
		return strconv.FormatInt(n.HashCode, 10)
	}
	return "path:" + n.Path
}

// diffProperties compares two nodes and returns changed fields.
func diffProperties(prev, curr FlatNode) map[string][2]string {
	diffs := make(map[string][2]string)

	if prev.Text != curr.Text {
		diffs["text"] = [2]string{prev.Text, curr.Text}
	}
	if prev.ContentDescription != curr.ContentDescription {
		diffs["contentDescription"] = [2]string{prev.ContentDescription, curr.ContentDescription}
	}
	if prev.Name != curr.Name {
		diffs["name"] = [2]string{prev.Name, curr.Name}
	}
	if prev.ResourceID != curr.ResourceID {
		diffs["resourceId"] = [2]string{prev.ResourceID, curr.ResourceID}
	}
	if boundsString(prev.Bounds) != boundsString(curr.Bounds) {
		diffs["bounds"] = [2]string{boundsString(prev.Bounds), boundsString(curr.Bounds)}
	}
	if prev.Focused != curr.Focused {
		diffs["focused"] = [2]string{
			fmt.Sprintf("%v", prev.Focused),
			fmt.Sprintf("%v", curr.Focused),
		}
	}
	if prev.Selected != curr.Selected {
		diffs["selected"] = [2]string{
			fmt.Sprintf("%v", prev.Selected),
			fmt.Sprintf("%v", curr.Selected),
		}
	}
	if prev.Checked != curr.Checked {
		diffs["checked"] = [2]string{
			fmt.Sprintf("%v", prev.Checked),
			fmt.Sprintf("%v", curr.Checked),
		}
	}
	if prev.Invisible != curr.Invisible {
		diffs["invisible"] = [2]string{
			fmt.Sprintf("%v", prev.Invisible),
			fmt.Sprintf("%v", curr.Invisible),
		}
	}

	if len(diffs) == 0 {
		return nil
	}
	return diffs
}

func boundsString(b *Bounds) string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("[%d,%d,%d,%d]", b.Left, b.Top, b.Right, b.Bottom)
}
