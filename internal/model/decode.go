package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotTree is returned when a payload has neither a children list nor a
// top-level node list.
var ErrNotTree = errors.New("payload is not a tree")

// DecodeTree converts a tree payload into the canonical Tree. Two shapes are
// accepted: an object wrapping the windows in "children" (optionally carrying
// "timestamp" and "eventType"), or a bare JSON list of nodes. Nested lists
// inside a node list are spliced in order.
func DecodeTree(data []byte) (*Tree, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNotTree
	}

	tree := &Tree{}
	switch data[0] {
	case '[':
		nodes, err := decodeNodeList(data)
		if err != nil {
			return nil, err
		}
		tree.Windows = nodes
	case '{':
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("decode tree: %w", err)
		}
		children, ok := fields["children"]
		if !ok {
			return nil, ErrNotTree
		}
		nodes, err := decodeNodeList(children)
		if err != nil {
			return nil, err
		}
		tree.Windows = nodes
		if ts, ok := fields["timestamp"]; ok {
			tree.Timestamp, _ = rawInt64(ts)
		}
		if et, ok := fields["eventType"]; ok {
			tree.EventType = rawString(et)
		}
	default:
		return nil, ErrNotTree
	}
	if tree.Windows == nil {
		tree.Windows = []Node{}
	}
	return tree, nil
}

// DecodeNodes decodes a list of nodes as returned in a find result.
func DecodeNodes(data []byte) ([]Node, error) {
	if len(bytes.TrimSpace(data)) == 0 || string(bytes.TrimSpace(data)) == "null" {
		return []Node{}, nil
	}
	return decodeNodeList(data)
}

// DecodeNode decodes a single node in either layout.
func DecodeNode(data []byte) (Node, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Node{}, fmt.Errorf("decode node: %w", err)
	}
	return nodeFromFields(fields)
}

func decodeNodeList(data []byte) ([]Node, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode node list: %w", err)
	}
	nodes := make([]Node, 0, len(items))
	for _, item := range items {
		item = bytes.TrimSpace(item)
		if len(item) == 0 || string(item) == "null" {
			continue
		}
		if item[0] == '[' {
			nested, err := decodeNodeList(item)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, nested...)
			continue
		}
		n, err := DecodeNode(item)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func nodeFromFields(fields map[string]json.RawMessage) (Node, error) {
	var n Node
	if meta, ok := fields["metadata"]; ok {
		if err := applyTreeLayout(&n, fields, meta); err != nil {
			return Node{}, err
		}
	} else {
		applyFindLayout(&n, fields)
	}

	if raw, ok := fields["children"]; ok {
		children, err := decodeNodeList(raw)
		if err != nil {
			return Node{}, err
		}
		n.Children = children
	}
	return n, nil
}

// findLayoutKeys lists the keys consumed by applyFindLayout.
var findLayoutKeys = map[string]bool{
	"hashCode": true, "resourceId": true, "viewIdResourceName": true, "className": true,
	"name": true, "text": true, "contentDescription": true, "isClickable": true,
	"isLongClickable": true, "isEnabled": true, "isFocusable": true, "isFocused": true,
	"isScrollable": true, "isCheckable": true, "isChecked": true, "isSelected": true,
	"isVisibleToUser": true, "boundsInScreen": true, "actionList": true, "hintText": true,
	"errorText": true, "tooltipText": true, "paneTitle": true, "stateDescription": true,
	"roleDescription": true, "collectionInfo": true, "collectionItemInfo": true,
	"labeledByHashCode": true, "windowId": true, "childCount": true, "children": true,
}

func applyFindLayout(n *Node, f map[string]json.RawMessage) {
	n.HashCode, _ = rawInt64(f["hashCode"])
	n.ResourceID = firstString(f, "resourceId", "viewIdResourceName")
	n.ClassName = rawString(f["className"])
	n.Name = rawString(f["name"])
	if n.Name == "" {
		n.Name = simpleName(n.ClassName)
	}
	n.Text = rawString(f["text"])
	n.ContentDescription = rawString(f["contentDescription"])

	n.Clickable = rawBool(f["isClickable"])
	n.LongClickable = rawBool(f["isLongClickable"])
	if raw, ok := f["isEnabled"]; ok && !rawBool(raw) {
		n.Enabled = boolPtr(false)
	}
	n.Focusable = rawBool(f["isFocusable"])
	n.Focused = rawBool(f["isFocused"])
	n.Scrollable = rawBool(f["isScrollable"])
	n.Checkable = rawBool(f["isCheckable"])
	n.Checked = rawBool(f["isChecked"])
	n.Selected = rawBool(f["isSelected"])
	if raw, ok := f["isVisibleToUser"]; ok {
		n.Invisible = !rawBool(raw)
	}

	if raw, ok := f["boundsInScreen"]; ok {
		var b Bounds
		if err := json.Unmarshal(raw, &b); err == nil {
			n.Bounds = &b
		} else {
			n.setExtra("boundsInScreen", raw)
		}
	}
	if raw, ok := f["actionList"]; ok {
		if err := json.Unmarshal(raw, &n.Actions); err != nil {
			n.Actions = nil
			n.setExtra("actionList", raw)
		}
	}

	n.HintText = rawString(f["hintText"])
	n.ErrorText = rawString(f["errorText"])
	n.TooltipText = rawString(f["tooltipText"])
	n.PaneTitle = rawString(f["paneTitle"])
	n.StateDescription = rawString(f["stateDescription"])
	n.RoleDescription = rawString(f["roleDescription"])
	n.CollectionInfo = rawText(f["collectionInfo"])
	n.CollectionItemInfo = rawText(f["collectionItemInfo"])
	n.LabeledByHashCode, _ = rawInt64(f["labeledByHashCode"])
	if v, ok := rawInt64(f["windowId"]); ok {
		n.WindowID = int(v)
	}
	if v, ok := rawInt64(f["childCount"]); ok {
		c := int(v)
		n.ChildCount = &c
	}

	for k, v := range f {
		if !findLayoutKeys[k] {
			n.setExtra(k, v)
		}
	}
}

// treeMetadataKeys lists the metadata keys consumed by applyTreeLayout.
var treeMetadataKeys = map[string]bool{
	"hashCode": true, "resourceId": true, "role": true, "roleDescription": true,
	"errorMessage": true, "tooltip": true, "visibility": true, "x1": true, "y1": true,
	"x2": true, "y2": true, "paneTitle": true, "text": true, "labeledById": true,
	"hint": true, "content": true, "stateDescription": true, "checkable": true,
	"actions": true, "properties": true, "collectionInfo": true,
	"collectionItemInfo": true, "windowId": true, "title": true, "childCount": true,
}

func applyTreeLayout(n *Node, f map[string]json.RawMessage, metaRaw json.RawMessage) error {
	var meta map[string]json.RawMessage
	if err := json.Unmarshal(metaRaw, &meta); err != nil {
		return fmt.Errorf("decode node metadata: %w", err)
	}

	n.Name = rawString(f["name"])
	n.ResourceID = firstString(f, "resourceId", "viewIdResourceName")
	if n.ResourceID == "" {
		n.ResourceID = rawString(meta["resourceId"])
	}
	n.ClassName = rawString(f["className"])
	if n.Name == "" {
		n.Name = rawString(meta["role"])
	}

	n.HashCode, _ = rawInt64(meta["hashCode"])
	n.Text = rawString(meta["text"])
	if n.Text == "" {
		n.Text = rawString(meta["title"])
	}
	n.ContentDescription = rawString(meta["content"])
	n.RoleDescription = rawString(meta["roleDescription"])
	n.ErrorText = rawString(meta["errorMessage"])
	n.TooltipText = rawString(meta["tooltip"])
	n.PaneTitle = rawString(meta["paneTitle"])
	n.HintText = rawString(meta["hint"])
	n.StateDescription = rawString(meta["stateDescription"])
	n.CollectionInfo = rawText(meta["collectionInfo"])
	n.CollectionItemInfo = rawText(meta["collectionItemInfo"])
	n.LabeledByHashCode, _ = rawInt64(meta["labeledById"])
	n.Invisible = rawString(meta["visibility"]) == "invisible"
	if v, ok := rawInt64(meta["windowId"]); ok {
		n.WindowID = int(v)
	}
	if v, ok := rawInt64(meta["childCount"]); ok {
		c := int(v)
		n.ChildCount = &c
	}

	switch rawString(meta["checkable"]) {
	case "checked":
		n.Checkable, n.Checked = true, true
	case "not checked":
		n.Checkable = true
	}

	if _, ok := meta["x1"]; ok {
		x1, _ := rawInt64(meta["x1"])
		y1, _ := rawInt64(meta["y1"])
		x2, _ := rawInt64(meta["x2"])
		y2, _ := rawInt64(meta["y2"])
		n.Bounds = &Bounds{Left: int(x1), Top: int(y1), Right: int(x2), Bottom: int(y2)}
	}

	var props []string
	if raw, ok := meta["properties"]; ok {
		if err := json.Unmarshal(raw, &props); err != nil {
			props = nil
			n.setExtra("metadata.properties", raw)
		}
	}
	for _, p := range props {
		switch p {
		case "clickable":
			n.Clickable = true
		case "long clickable":
			n.LongClickable = true
		case "focusable":
			n.Focusable = true
		case "focused":
			n.Focused = true
		case "scrollable":
			n.Scrollable = true
		case "selected":
			n.Selected = true
		case "disabled":
			n.Enabled = boolPtr(false)
		}
	}

	var actionLabels []string
	if raw, ok := meta["actions"]; ok {
		if err := json.Unmarshal(raw, &actionLabels); err != nil {
			actionLabels = nil
			n.setExtra("metadata.actions", raw)
		}
	}
	for i, label := range actionLabels {
		n.Actions = append(n.Actions, Action{ID: i, Label: label})
	}

	for k, v := range f {
		switch k {
		case "name", "resourceId", "viewIdResourceName", "className", "metadata", "children":
		default:
			n.setExtra(k, v)
		}
	}
	for k, v := range meta {
		if !treeMetadataKeys[k] {
			n.setExtra("metadata."+k, v)
		}
	}
	return nil
}

func (n *Node) setExtra(key string, v json.RawMessage) {
	if n.Extra == nil {
		n.Extra = make(map[string]json.RawMessage)
	}
	n.Extra[key] = v
}

// simpleName returns the class name after its last dot.
func simpleName(className string) string {
	if i := strings.LastIndex(className, "."); i >= 0 {
		return className[i+1:]
	}
	return className
}

func boolPtr(b bool) *bool { return &b }

func firstString(f map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		if s := rawString(f[k]); s != "" {
			return s
		}
	}
	return ""
}

func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// rawText returns a string field verbatim, or the compact JSON of any other
// value (collection info is an object in find results and a string in trees).
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if s := rawString(raw); s != "" {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return ""
	}
	return buf.String()
}

func rawBool(raw json.RawMessage) bool {
	var b bool
	if len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}

// rawInt64 accepts a JSON number or a numeric string; hash codes travel as
// both.
func rawInt64(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		if v, err := num.Int64(); err == nil {
			return v, true
		}
		if f, err := num.Float64(); err == nil {
			return int64(f), true
		}
	}
	if s := rawString(raw); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
