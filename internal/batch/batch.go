// Package batch runs a YAML list of inspector steps in sequence, with
// conditional (if-exists) and error-absorbing (try) blocks.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mj1618/inspector-cli/internal/inspector"
	"github.com/mj1618/inspector-cli/internal/model"
	"github.com/mj1618/inspector-cli/internal/protocol"
)

// maxDepth bounds nesting of then/else/try blocks.
const maxDepth = 10

// Result is the output of a batch run.
type Result struct {
	OK        bool         `yaml:"ok"              json:"ok"`
	Action    string       `yaml:"action"          json:"action"`
	Steps     int          `yaml:"steps"           json:"steps"`
	Completed int          `yaml:"completed"       json:"completed"`
	Error     string       `yaml:"error,omitempty" json:"error,omitempty"`
	Results   []StepResult `yaml:"results"         json:"results"`
}

// StepResult is the output for a single step within a batch.
type StepResult struct {
	Step     int                     `yaml:"step"               json:"step"`
	OK       bool                    `yaml:"ok"                 json:"ok"`
	Action   string                  `yaml:"action"             json:"action"`
	Error    string                  `yaml:"error,omitempty"    json:"error,omitempty"`
	Command  string                  `yaml:"command,omitempty"  json:"command,omitempty"`
	Message  string                  `yaml:"message,omitempty"  json:"message,omitempty"`
	Count    *int                    `yaml:"count,omitempty"    json:"count,omitempty"`
	Nodes    []model.Node            `yaml:"nodes,omitempty"    json:"nodes,omitempty"`
	Bounds   *inspector.BoundsReport `yaml:"bounds,omitempty"   json:"bounds,omitempty"`
	Elapsed  string                  `yaml:"elapsed,omitempty"  json:"elapsed,omitempty"`
	Matched  *bool                   `yaml:"matched,omitempty"  json:"matched,omitempty"`
	Branch   string                  `yaml:"branch,omitempty"   json:"branch,omitempty"`
	Substeps []StepResult            `yaml:"substeps,omitempty" json:"substeps,omitempty"`
}

// ParseSteps decodes a YAML list of steps.
func ParseSteps(data []byte) ([]map[string]interface{}, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("no steps provided: expected a YAML list of steps")
	}
	var steps []map[string]interface{}
	if err := yaml.Unmarshal(data, &steps); err != nil {
		return nil, fmt.Errorf("failed to parse YAML steps: %w", err)
	}
	if len(steps) == 0 {
		return nil, errors.New("no steps provided: expected a YAML list of steps")
	}
	return steps, nil
}

// Runner executes steps against a client. A nil Client fails every step
// that talks to the service, and if-exists takes its else branch.
type Runner struct {
	Client      *inspector.Client
	StopOnError bool
	Log         zerolog.Logger
	// OnMutate is called after a step that may have changed the UI.
	OnMutate func()

	Results    []StepResult
	HasFailure bool
	LastErr    string
}

// Run executes steps and summarises them.
func (r *Runner) Run(ctx context.Context, steps []map[string]interface{}) Result {
	r.ExecuteSteps(ctx, steps, 0)
	completed := 0
	for _, res := range r.Results {
		if res.OK {
			completed++
		}
	}
	return Result{
		OK:        !r.HasFailure,
		Action:    "do",
		Steps:     len(steps),
		Completed: completed,
		Error:     r.LastErr,
		Results:   r.Results,
	}
}

// ExecuteSteps runs steps at the top level, appending to r.Results.
func (r *Runner) ExecuteSteps(ctx context.Context, steps []map[string]interface{}, depth int) {
	results, failed, lastErr := r.executeBlock(ctx, steps, depth, r.StopOnError)
	r.Results = append(r.Results, results...)
	if failed {
		r.HasFailure = true
		r.LastErr = lastErr
	}
}

func (r *Runner) executeBlock(ctx context.Context, steps []map[string]interface{}, depth int, stopOnError bool) (results []StepResult, failed bool, lastErr string) {
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			results = append(results, StepResult{Step: i + 1, Error: err.Error()})
			return results, true, err.Error()
		}
		res := r.executeOne(ctx, step, depth)
		res.Step = i + 1
		results = append(results, res)
		if !res.OK {
			failed = true
			lastErr = fmt.Sprintf("step %d: %s", res.Step, res.Error)
			if stopOnError {
				return results, failed, lastErr
			}
		}
	}
	return results, failed, lastErr
}

func (r *Runner) executeOne(ctx context.Context, step map[string]interface{}, depth int) StepResult {
	if _, ok := step["try"]; ok {
		return r.executeTry(ctx, step, depth)
	}
	if _, ok := step["if-exists"]; ok {
		return r.executeIfExists(ctx, step, depth)
	}
	action, params, err := parseRegularStep(step)
	if err != nil {
		return StepResult{Action: action, Error: err.Error()}
	}
	res, err := r.executeStep(ctx, action, params)
	res.Action = action
	if err != nil {
		res.OK = false
		res.Error = err.Error()
		return res
	}
	res.OK = true
	return res
}

// parseRegularStep returns the single action key of step and its params.
// then/else keys belong to conditionals and are skipped.
func parseRegularStep(step map[string]interface{}) (string, map[string]interface{}, error) {
	var keys []string
	for k := range step {
		if k == "then" || k == "else" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) != 1 {
		sort.Strings(keys)
		return strings.Join(keys, ","), nil, fmt.Errorf("expected exactly one action key, got %d", len(keys))
	}
	action := keys[0]
	switch p := step[action].(type) {
	case nil:
		return action, map[string]interface{}{}, nil
	case map[string]interface{}:
		return action, p, nil
	default:
		return action, nil, fmt.Errorf("%s: params must be a map", action)
	}
}

// FromList converts a decoded JSON or YAML array of step objects, as passed
// to the MCP do tool.
func FromList(raw interface{}) ([]map[string]interface{}, error) {
	steps, err := parseSubsteps(raw)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, errors.New("no steps provided: expected a list of steps")
	}
	return steps, nil
}

// parseSubsteps converts a then/else/try list into step maps.
func parseSubsteps(raw interface{}) ([]map[string]interface{}, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a list of steps, got %T", raw)
	}
	steps := make([]map[string]interface{}, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("substep %d: expected a map, got %T", i+1, item)
		}
		steps = append(steps, m)
	}
	return steps, nil
}

func (r *Runner) executeTry(ctx context.Context, step map[string]interface{}, depth int) StepResult {
	res := StepResult{Action: "try"}
	if depth >= maxDepth {
		res.Error = fmt.Sprintf("nesting deeper than %d", maxDepth)
		return res
	}
	substeps, err := parseSubsteps(step["try"])
	if err != nil {
		res.Error = err.Error()
		return res
	}
	// A try block always succeeds; it stops at its own first error.
	res.Substeps, _, _ = r.executeBlock(ctx, substeps, depth+1, true)
	res.OK = true
	return res
}

func (r *Runner) executeIfExists(ctx context.Context, step map[string]interface{}, depth int) StepResult {
	res := StepResult{Action: "if-exists"}
	if depth >= maxDepth {
		res.Error = fmt.Sprintf("nesting deeper than %d", maxDepth)
		return res
	}
	cond, _ := step["if-exists"].(map[string]interface{})
	matched := r.exists(ctx, cond)
	res.Matched = &matched

	branch := "else"
	if matched {
		branch = "then"
	}
	substeps, err := parseSubsteps(step[branch])
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if len(substeps) > 0 {
		res.Branch = branch
	}
	var failed bool
	var lastErr string
	res.Substeps, failed, lastErr = r.executeBlock(ctx, substeps, depth+1, r.StopOnError)
	if failed {
		res.Error = lastErr
		return res
	}
	res.OK = true
	return res
}

// exists reports whether a find with cond matches at least one node. Any
// failure counts as no match.
func (r *Runner) exists(ctx context.Context, cond map[string]interface{}) bool {
	if r.Client == nil {
		return false
	}
	query, err := FindParams(cond)
	if err != nil {
		return false
	}
	found, err := r.Client.Find(ctx, query)
	if err != nil {
		r.Log.Debug().Err(err).Msg("if-exists find failed")
		return false
	}
	return found.Success && found.Count > 0
}

func (r *Runner) executeStep(ctx context.Context, action string, params map[string]interface{}) (StepResult, error) {
	if action == "sleep" {
		return executeSleep(ctx, params)
	}
	if r.Client == nil {
		return StepResult{}, errors.New("not connected to the inspection service")
	}
	switch action {
	case "ping":
		rtt, err := r.Client.Ping(ctx)
		if err != nil {
			return StepResult{}, err
		}
		return StepResult{Command: "ping", Elapsed: rtt.Round(time.Millisecond).String()}, nil
	case "find":
		return r.executeFind(ctx, params)
	case "action":
		return r.mutate(ctx, ActionParams(params))
	case "gesture":
		return r.mutate(ctx, GestureParams(params))
	case "launch":
		launch, err := LaunchParams(params)
		if err != nil {
			return StepResult{}, err
		}
		return r.mutate(ctx, launch)
	case "capture":
		return r.executeCapture(ctx, params)
	case "compare-bounds":
		return r.executeCompareBounds(ctx, params)
	case "wait":
		return r.executeWait(ctx, params)
	default:
		return StepResult{}, fmt.Errorf("unknown step type %q: supported: ping, find, action, gesture, launch, capture, compare-bounds, wait, sleep, if-exists, try", action)
	}
}

func (r *Runner) executeFind(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	query, err := FindParams(params)
	if err != nil {
		return StepResult{}, err
	}
	found, err := r.Client.Find(ctx, query)
	if err != nil {
		return StepResult{Command: query.Name()}, err
	}
	res := StepResult{Command: query.Name(), Message: found.Message, Count: &found.Count}
	if BoolParam(params, "nodes", false) {
		res.Nodes = found.Nodes
	}
	if !found.Success {
		return res, fmt.Errorf("%s failed: %s", query.Name(), found.Message)
	}
	if want, ok := params["expect-count"]; ok && want != nil {
		if n := IntParam(params, "expect-count", -1); n != found.Count {
			return res, fmt.Errorf("expected %d matches, got %d", n, found.Count)
		}
	}
	return res, nil
}

// mutate sends a command that may change the UI and fails the step when the
// service reports success false.
func (r *Runner) mutate(ctx context.Context, cmd protocol.Command) (StepResult, error) {
	env, err := r.Client.Do(ctx, cmd)
	if err != nil {
		return StepResult{Command: cmd.Name()}, err
	}
	if r.OnMutate != nil {
		r.OnMutate()
	}
	result, err := env.Result()
	if err != nil {
		return StepResult{Command: cmd.Name()}, err
	}
	res := StepResult{Command: cmd.Name(), Message: result.Message}
	if !result.Success {
		return res, fmt.Errorf("%s failed: %s", cmd.Name(), result.Message)
	}
	return res, nil
}

func (r *Runner) executeCapture(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	start := time.Now()
	tree, err := r.Client.Capture(ctx, inspector.CaptureOptions{
		NotImportant: BoolParam(params, "not-important", false),
		VisibleOnly:  BoolParam(params, "visible-only", false),
	})
	if err != nil {
		return StepResult{Command: "capture"}, err
	}
	count := tree.Count()
	return StepResult{Command: "capture", Count: &count, Elapsed: time.Since(start).Round(time.Millisecond).String()}, nil
}

func (r *Runner) executeCompareBounds(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	viewID := StringParam(params, "view-id", "")
	if viewID == "" {
		return StepResult{}, fmt.Errorf("%w: view-id is required", protocol.ErrInvalidCommand)
	}
	report, err := r.Client.CompareBounds(ctx, viewID, inspector.CaptureOptions{
		NotImportant: BoolParam(params, "not-important", false),
	})
	if err != nil {
		return StepResult{}, err
	}
	res := StepResult{Bounds: report}
	if !report.Match {
		return res, fmt.Errorf("bounds differ: %s", report.Diff)
	}
	return res, nil
}

// executeWait polls a find until it matches (or, with gone, stops matching).
func (r *Runner) executeWait(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	query, err := FindParams(params)
	if err != nil {
		return StepResult{}, err
	}
	gone := BoolParam(params, "gone", false)
	timeout := time.Duration(IntParam(params, "timeout", 10)) * time.Second
	interval := time.Duration(IntParam(params, "interval", 500)) * time.Millisecond
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}

	start := time.Now()
	deadline := start.Add(timeout)
	for {
		found, err := r.Client.Find(ctx, query)
		if err == nil && found.Success && (found.Count > 0) != gone {
			return StepResult{Command: query.Name(), Count: &found.Count, Elapsed: time.Since(start).Round(time.Millisecond).String()}, nil
		}
		if err != nil {
			r.Log.Debug().Err(err).Str("command", query.Name()).Msg("wait poll failed")
		}
		if time.Now().Add(interval).After(deadline) {
			state := "appear"
			if gone {
				state = "disappear"
			}
			return StepResult{Command: query.Name()}, fmt.Errorf("timed out after %s waiting for match to %s", timeout, state)
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return StepResult{Command: query.Name()}, ctx.Err()
		}
	}
}

func executeSleep(ctx context.Context, params map[string]interface{}) (StepResult, error) {
	ms := IntParam(params, "ms", 0)
	if ms <= 0 {
		return StepResult{}, fmt.Errorf("ms must be > 0")
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
	case <-ctx.Done():
		return StepResult{}, ctx.Err()
	}
	return StepResult{Elapsed: fmt.Sprintf("%dms", ms)}, nil
}
