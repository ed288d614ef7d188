package batch

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mj1618/inspector-cli/internal/protocol"
)

// StringParam returns params[key] as a string.
func StringParam(params map[string]interface{}, key, defaultVal string) string {
	if v, ok := params[key]; ok && v != nil {
		if s, ok := v.(string); ok {
			return s
		}
		// Handle numeric values that YAML may parse as int/float
		return fmt.Sprintf("%v", v)
	}
	return defaultVal
}

// IntParam returns params[key] as an int. JSON numbers arrive as float64,
// YAML numbers as int.
func IntParam(params map[string]interface{}, key string, defaultVal int) int {
	if v, ok := params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case float64:
			return int(n)
		case int64:
			return int(n)
		case string:
			if i, err := strconv.Atoi(n); err == nil {
				return i
			}
		}
	}
	return defaultVal
}

// OptionalIntParam returns nil when key is absent.
func OptionalIntParam(params map[string]interface{}, key string) *int {
	if _, ok := params[key]; !ok {
		return nil
	}
	n := IntParam(params, key, 0)
	return &n
}

// BoolParam returns params[key] as a bool.
func BoolParam(params map[string]interface{}, key string, defaultVal bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// FindParams builds a find command from text, view-id, regex or props.
// custom selects the service's own tree walker for text and view-id.
func FindParams(params map[string]interface{}) (protocol.Command, error) {
	verbose := BoolParam(params, "verbose", false)
	custom := BoolParam(params, "custom", false)
	switch {
	case StringParam(params, "text", "") != "":
		return protocol.FindByText{Text: StringParam(params, "text", ""), Verbose: verbose, Custom: custom}, nil
	case StringParam(params, "view-id", "") != "":
		return protocol.FindByViewID{ViewID: StringParam(params, "view-id", ""), Verbose: verbose, Custom: custom}, nil
	case StringParam(params, "regex", "") != "":
		return protocol.FindByRegex{Pattern: StringParam(params, "regex", ""), Verbose: verbose}, nil
	}
	if props, ok := params["props"].(map[string]interface{}); ok {
		return protocol.FindByProps{Properties: props, Verbose: verbose}, nil
	}
	return nil, fmt.Errorf("%w: specify text, view-id, regex or props", protocol.ErrInvalidCommand)
}

// ActionParams builds a performAction command.
func ActionParams(params map[string]interface{}) protocol.PerformAction {
	return protocol.PerformAction{
		Action:     StringParam(params, "action", "CLICK"),
		HashCode:   StringParam(params, "hash", ""),
		ResourceID: StringParam(params, "view-id", ""),
		Text:       StringParam(params, "text", ""),
	}
}

// GestureParams builds a performGesture command.
func GestureParams(params map[string]interface{}) protocol.PerformGesture {
	return protocol.PerformGesture{
		GestureType: StringParam(params, "type", protocol.GestureTap),
		X:           IntParam(params, "x", 0),
		Y:           IntParam(params, "y", 0),
		EndX:        OptionalIntParam(params, "end-x"),
		EndY:        OptionalIntParam(params, "end-y"),
		Duration:    OptionalIntParam(params, "duration"),
	}
}

// LaunchParams builds a launchActivity command. extras may be a map or a
// JSON object string.
func LaunchParams(params map[string]interface{}) (protocol.LaunchActivity, error) {
	l := protocol.LaunchActivity{
		LaunchType:   StringParam(params, "type", protocol.LaunchPackage),
		PackageName:  StringParam(params, "package", ""),
		ClassName:    StringParam(params, "class", ""),
		IntentAction: StringParam(params, "action", ""),
		Data:         StringParam(params, "data", ""),
		Category:     StringParam(params, "category", ""),
	}
	switch extras := params["extras"].(type) {
	case nil:
	case string:
		l.Extras = extras
	case map[string]interface{}:
		b, err := json.Marshal(extras)
		if err != nil {
			return l, fmt.Errorf("%w: extras: %w", protocol.ErrInvalidCommand, err)
		}
		l.Extras = string(b)
	default:
		return l, fmt.Errorf("%w: extras must be a map or a JSON string", protocol.ErrInvalidCommand)
	}
	return l, nil
}
