package model

import "fmt"

// BoundsDiff is the signed per-edge difference between two rectangles,
// computed as a minus b.
type BoundsDiff struct {
	Left   int `yaml:"left"   json:"left"`
	Top    int `yaml:"top"    json:"top"`
	Right  int `yaml:"right"  json:"right"`
	Bottom int `yaml:"bottom" json:"bottom"`
}

// CompareBounds compares two rectangles exactly, with no tolerance.
func CompareBounds(a, b Bounds) BoundsDiff {
	return BoundsDiff{
		Left:   a.Left - b.Left,
		Top:    a.Top - b.Top,
		Right:  a.Right - b.Right,
		Bottom: a.Bottom - b.Bottom,
	}
}

// Equal reports whether all four edges matched.
func (d BoundsDiff) Equal() bool {
	return d == BoundsDiff{}
}

// Uniform reports whether the difference is a pure translation: both
// horizontal edges moved by the same amount and both vertical edges moved by
// the same amount. Equal bounds are trivially uniform.
func (d BoundsDiff) Uniform() bool {
	return d.Left == d.Right && d.Top == d.Bottom
}

func (d BoundsDiff) String() string {
	if d.Equal() {
		return "equal"
	}
	return fmt.Sprintf("left=%+d top=%+d right=%+d bottom=%+d", d.Left, d.Top, d.Right, d.Bottom)
}
