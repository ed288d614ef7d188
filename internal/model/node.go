package model

import "encoding/json"

// Bounds is a screen rectangle in absolute pixel coordinates.
type Bounds struct {
	Left   int `yaml:"left"   json:"left"`
	Top    int `yaml:"top"    json:"top"`
	Right  int `yaml:"right"  json:"right"`
	Bottom int `yaml:"bottom" json:"bottom"`
}

// Width returns the horizontal extent of b.
func (b Bounds) Width() int { return b.Right - b.Left }

// Height returns the vertical extent of b.
func (b Bounds) Height() int { return b.Bottom - b.Top }

// Center returns the midpoint of b, used as the default gesture target.
func (b Bounds) Center() (x, y int) {
	return b.Left + b.Width()/2, b.Top + b.Height()/2
}

// Action is an accessibility action a node advertises.
type Action struct {
	ID    int    `yaml:"id"              json:"id"`
	Label string `yaml:"label,omitempty" json:"label,omitempty"`
}

// Node is one UI element snapshot. Both the find-result layout and the
// tree-capture layout decode into this shape.
type Node struct {
	HashCode           int64  `yaml:"hashCode,omitempty"           json:"hashCode,omitempty"`
	ResourceID         string `yaml:"resourceId,omitempty"         json:"resourceId,omitempty"`
	ClassName          string `yaml:"className,omitempty"          json:"className,omitempty"`
	Name               string `yaml:"name,omitempty"               json:"name,omitempty"`
	Text               string `yaml:"text,omitempty"               json:"text,omitempty"`
	ContentDescription string `yaml:"contentDescription,omitempty" json:"contentDescription,omitempty"`

	Clickable     bool  `yaml:"clickable,omitempty"     json:"clickable,omitempty"`
	LongClickable bool  `yaml:"longClickable,omitempty" json:"longClickable,omitempty"`
	Enabled       *bool `yaml:"enabled,omitempty"       json:"enabled,omitempty"` // nil = enabled; false = disabled
	Focusable     bool  `yaml:"focusable,omitempty"     json:"focusable,omitempty"`
	Focused       bool  `yaml:"focused,omitempty"       json:"focused,omitempty"`
	Scrollable    bool  `yaml:"scrollable,omitempty"    json:"scrollable,omitempty"`
	Checkable     bool  `yaml:"checkable,omitempty"     json:"checkable,omitempty"`
	Checked       bool  `yaml:"checked,omitempty"       json:"checked,omitempty"`
	Selected      bool  `yaml:"selected,omitempty"      json:"selected,omitempty"`
	Invisible     bool  `yaml:"invisible,omitempty"     json:"invisible,omitempty"`

	Bounds  *Bounds  `yaml:"bounds,omitempty"  json:"bounds,omitempty"`
	Actions []Action `yaml:"actions,omitempty" json:"actions,omitempty"`

	// Verbose-mode properties.
	HintText           string `yaml:"hintText,omitempty"           json:"hintText,omitempty"`
	ErrorText          string `yaml:"errorText,omitempty"          json:"errorText,omitempty"`
	TooltipText        string `yaml:"tooltipText,omitempty"        json:"tooltipText,omitempty"`
	PaneTitle          string `yaml:"paneTitle,omitempty"          json:"paneTitle,omitempty"`
	StateDescription   string `yaml:"stateDescription,omitempty"   json:"stateDescription,omitempty"`
	RoleDescription    string `yaml:"roleDescription,omitempty"    json:"roleDescription,omitempty"`
	CollectionInfo     string `yaml:"collectionInfo,omitempty"     json:"collectionInfo,omitempty"`
	CollectionItemInfo string `yaml:"collectionItemInfo,omitempty" json:"collectionItemInfo,omitempty"`
	LabeledByHashCode  int64  `yaml:"labeledByHashCode,omitempty"  json:"labeledByHashCode,omitempty"`
	WindowID           int    `yaml:"windowId,omitempty"           json:"windowId,omitempty"`
	ChildCount         *int   `yaml:"childCount,omitempty"         json:"childCount,omitempty"`

	Children []Node `yaml:"children,omitempty" json:"children,omitempty"`

	// Extra holds fields the decoder did not recognise or could not decode,
	// keyed by their wire name. Metadata fields of the tree layout are prefixed with "metadata.".
	Extra map[string]json.RawMessage `yaml:"-" json:"-"`
}

// IsEnabled reports whether the node accepts interaction.
func (n *Node) IsEnabled() bool {
	return n.Enabled == nil || *n.Enabled
}

// VisibleToUser reports whether the node is on screen.
func (n *Node) VisibleToUser() bool {
	return !n.Invisible
}

// Label returns the most descriptive text for the node: its text, its
// content description, or its resource ID, in that order.
func (n *Node) Label() string {
	switch {
	case n.Text != "":
		return n.Text
	case n.ContentDescription != "":
		return n.ContentDescription
	default:
		return n.ResourceID
	}
}

// Tree is a captured accessibility tree: an ordered list of top-level
// windows, each owning its descendants.
type Tree struct {
	Windows   []Node `yaml:"windows"             json:"windows"`
	Timestamp int64  `yaml:"timestamp,omitempty" json:"timestamp,omitempty"`
	EventType string `yaml:"eventType,omitempty" json:"eventType,omitempty"`
}

// Count returns the number of nodes in the tree, windows included.
func (t *Tree) Count() int {
	if t == nil {
		return 0
	}
	return CountNodes(t.Windows)
}
