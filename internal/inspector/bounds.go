package inspector

import (
	"context"
	"fmt"

	"github.com/mj1618/inspector-cli/internal/model"
	"github.com/mj1618/inspector-cli/internal/protocol"
)

// BoundsReport compares the bounds of one view as reported by a live find
// and by a full capture.
type BoundsReport struct {
	ViewID   string           `yaml:"viewId"   json:"viewId"`
	HashCode int64            `yaml:"hashCode" json:"hashCode"`
	Find     model.Bounds     `yaml:"find"     json:"find"`
	Tree     model.Bounds     `yaml:"tree"     json:"tree"`
	Diff     model.BoundsDiff `yaml:"diff"     json:"diff"`
	Match    bool             `yaml:"match"    json:"match"`
	Uniform  bool             `yaml:"uniform"  json:"uniform"`
}

// CompareBounds finds viewID with findByViewId, captures the tree, locates
// the first node with the same resource ID and compares the two rectangles.
func (c *Client) CompareBounds(ctx context.Context, viewID string, capture CaptureOptions) (*BoundsReport, error) {
	found, err := c.Find(ctx, protocol.FindByViewID{ViewID: viewID})
	if err != nil {
		return nil, err
	}
	if !found.Success || len(found.Nodes) == 0 {
		return nil, fmt.Errorf("%w: %s via find: %s", ErrNotFound, viewID, found.Message)
	}
	findNode := found.Nodes[0]
	if findNode.Bounds == nil {
		return nil, fmt.Errorf("%w: %s has no bounds in find result", ErrNotFound, viewID)
	}

	tree, err := c.Capture(ctx, capture)
	if err != nil {
		return nil, err
	}
	treeNode := model.FindByResourceID(tree.Windows, viewID)
	if treeNode == nil {
		return nil, fmt.Errorf("%w: %s in captured tree", ErrNotFound, viewID)
	}
	if treeNode.Bounds == nil {
		return nil, fmt.Errorf("%w: %s has no bounds in captured tree", ErrNotFound, viewID)
	}

	diff := model.CompareBounds(*findNode.Bounds, *treeNode.Bounds)
	return &BoundsReport{
		ViewID:   viewID,
		HashCode: findNode.HashCode,
		Find:     *findNode.Bounds,
		Tree:     *treeNode.Bounds,
		Diff:     diff,
		Match:    diff.Equal(),
		Uniform:  diff.Uniform(),
	}, nil
}
