package server

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/inspector-cli/internal/batch"
	"github.com/mj1618/inspector-cli/internal/inspector"
	"github.com/mj1618/inspector-cli/internal/model"
	"github.com/mj1618/inspector-cli/internal/output"
	"github.com/mj1618/inspector-cli/internal/protocol"
)

// toText serializes v to YAML for an MCP response.
func toText(v interface{}) string {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return string(b)
}

func errorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) handlePing(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rtt, err := s.client.Ping(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(toText(map[string]string{"rtt": rtt.Round(time.Millisecond).String()})), nil
}

func (s *Server) handleFind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := batch.FindParams(request.GetArguments())
	if err != nil {
		return errorResult(err), nil
	}
	found, err := s.client.Find(ctx, query)
	if err != nil {
		return errorResult(err), nil
	}
	out := output.FindOutput{
		Command: query.Name(),
		Success: found.Success,
		Message: found.Message,
		Count:   found.Count,
		Nodes:   found.Nodes,
	}
	if !found.Success {
		return mcp.NewToolResultError(toText(out)), nil
	}
	return mcp.NewToolResultText(toText(out)), nil
}

func (s *Server) handleCapture(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	opts := inspector.CaptureOptions{
		NotImportant: batch.BoolParam(params, "not-important", false),
		VisibleOnly:  batch.BoolParam(params, "visible-only", false),
	}
	start := time.Now()
	tree, cached, err := s.cache.Capture(ctx, s.client, opts)
	if err != nil {
		return errorResult(err), nil
	}
	s.log.Debug().Bool("cached", cached).Int("nodes", tree.Count()).Msg("capture")

	if batch.BoolParam(params, "check", false) {
		mismatches := model.CheckChildCounts(tree.Windows)
		if mismatches == nil {
			mismatches = []model.ChildCountMismatch{}
		}
		out := output.CheckResult{TS: time.Now().Unix(), Count: tree.Count(), Mismatches: mismatches}
		if len(mismatches) > 0 {
			return mcp.NewToolResultError(toText(out)), nil
		}
		return mcp.NewToolResultText(toText(out)), nil
	}
	if batch.BoolParam(params, "count", false) {
		return mcp.NewToolResultText(toText(output.CountResult{TS: time.Now().Unix(), Count: tree.Count()})), nil
	}

	hashCode := int64(batch.IntParam(params, "hash", 0))
	windows := model.SelectSubtrees(tree.Windows, hashCode, batch.StringParam(params, "view-id", ""))
	if hashCode != 0 && len(windows) == 0 {
		return errorResult(fmt.Errorf("no node with hash code %d", hashCode)), nil
	}
	if text := batch.StringParam(params, "text", ""); text != "" {
		windows = model.FilterByText(windows, text)
	}
	windows = model.LimitDepth(windows, batch.IntParam(params, "depth", 0))

	elapsed := time.Since(start).Milliseconds()
	if batch.BoolParam(params, "flat", false) {
		flat := model.FlattenNodes(windows)
		return mcp.NewToolResultText(toText(output.CaptureFlatResult{
			TS: time.Now().Unix(), Count: len(flat), ElapsedMS: elapsed, Nodes: flat,
		})), nil
	}
	return mcp.NewToolResultText(toText(output.CaptureResult{
		TS: time.Now().Unix(), Count: model.CountNodes(windows), ElapsedMS: elapsed, Windows: windows,
	})), nil
}

// mutate sends a command that may change the UI and drops cached trees.
func (s *Server) mutate(ctx context.Context, cmd protocol.Command) (*mcp.CallToolResult, error) {
	env, err := s.client.Do(ctx, cmd)
	s.cache.InvalidateAll()
	if err != nil {
		return errorResult(err), nil
	}
	result, err := env.Result()
	if err != nil {
		return errorResult(err), nil
	}
	out := output.ResultOutput{Command: cmd.Name(), Success: result.Success, Message: result.Message}
	if !result.Success {
		return mcp.NewToolResultError(toText(out)), nil
	}
	return mcp.NewToolResultText(toText(out)), nil
}

func (s *Server) handleAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.mutate(ctx, batch.ActionParams(request.GetArguments()))
}

func (s *Server) handleGesture(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.mutate(ctx, batch.GestureParams(request.GetArguments()))
}

func (s *Server) handleLaunch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	launch, err := batch.LaunchParams(request.GetArguments())
	if err != nil {
		return errorResult(err), nil
	}
	return s.mutate(ctx, launch)
}

func (s *Server) handleCompareBounds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	viewID := batch.StringParam(params, "view-id", "")
	if viewID == "" {
		return mcp.NewToolResultError("view-id is required"), nil
	}
	report, err := s.client.CompareBounds(ctx, viewID, inspector.CaptureOptions{
		NotImportant: batch.BoolParam(params, "not-important", false),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(toText(report)), nil
}

func (s *Server) handleConsistency(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	raw, ok := params["queries"].([]interface{})
	if !ok || len(raw) == 0 {
		return mcp.NewToolResultError("queries must be a non-empty array"), nil
	}
	queries := make([]string, 0, len(raw))
	for _, q := range raw {
		str, ok := q.(string)
		if !ok {
			return mcp.NewToolResultError("queries must be strings"), nil
		}
		queries = append(queries, str)
	}
	kind := inspector.QueryKind(batch.StringParam(params, "kind", string(inspector.ByViewID)))
	if kind != inspector.ByViewID && kind != inspector.ByText {
		return mcp.NewToolResultError(fmt.Sprintf("unknown kind %q: use viewId or text", kind)), nil
	}
	results, err := s.client.Consistency(ctx, kind, queries, 0)
	if err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(toText(results)), nil
}

func (s *Server) handleDo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := request.GetArguments()
	steps, err := batch.FromList(params["steps"])
	if err != nil {
		return errorResult(err), nil
	}
	runner := &batch.Runner{
		Client:      s.client,
		StopOnError: batch.BoolParam(params, "stop-on-error", true),
		Log:         s.log,
		OnMutate:    s.cache.InvalidateAll,
	}
	result := runner.Run(ctx, steps)
	if !result.OK {
		return mcp.NewToolResultError(toText(result)), nil
	}
	return mcp.NewToolResultText(toText(result)), nil
}
