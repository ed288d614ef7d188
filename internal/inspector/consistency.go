package inspector

import (
	"context"
	"time"

	"github.com/mj1618/inspector-cli/internal/protocol"
)

// QueryKind selects what a consistency query searches by.
type QueryKind string

const (
	ByViewID QueryKind = "viewId"
	ByText   QueryKind = "text"
)

// ConsistencyResult compares the platform search with the service's own
// tree walker for one query.
type ConsistencyResult struct {
	Kind        QueryKind `yaml:"kind"                  json:"kind"`
	Query       string    `yaml:"query"                 json:"query"`
	Native      int       `yaml:"native"                json:"native"`
	Custom      int       `yaml:"custom"                json:"custom"`
	Consistent  bool      `yaml:"consistent"            json:"consistent"`
	NativeError string    `yaml:"nativeError,omitempty" json:"nativeError,omitempty"`
	CustomError string    `yaml:"customError,omitempty" json:"customError,omitempty"`
}

// Consistency runs each query through the native and the custom finder and
// compares the match counts. A failing query is recorded in its result and
// does not stop the run. pause is slept between queries.
func (c *Client) Consistency(ctx context.Context, kind QueryKind, queries []string, pause time.Duration) ([]ConsistencyResult, error) {
	results := make([]ConsistencyResult, 0, len(queries))
	for i, q := range queries {
		if i > 0 && pause > 0 {
			select {
			case <-time.After(pause):
			case <-ctx.Done():
				return results, ctx.Err()
			}
		}
		r := ConsistencyResult{Kind: kind, Query: q}
		var err error
		r.Native, err = c.count(ctx, kind, q, false)
		if err != nil {
			r.NativeError = err.Error()
		}
		r.Custom, err = c.count(ctx, kind, q, true)
		if err != nil {
			r.CustomError = err.Error()
		}
		r.Consistent = r.NativeError == "" && r.CustomError == "" && r.Native == r.Custom
		results = append(results, r)
		if err := ctx.Err(); err != nil {
			return results, err
		}
	}
	return results, nil
}

func (c *Client) count(ctx context.Context, kind QueryKind, q string, custom bool) (int, error) {
	var cmd protocol.Command = protocol.FindByViewID{ViewID: q, Custom: custom}
	if kind == ByText {
		cmd = protocol.FindByText{Text: q, Custom: custom}
	}
	res, err := c.Find(ctx, cmd)
	if err != nil {
		return 0, err
	}
	return res.Count, nil
}
