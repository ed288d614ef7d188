package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidCommand is returned by Validate when a command is missing a
// required field. The service reports the same problems as a failed result,
// so callers may skip validation to exercise that path.
var ErrInvalidCommand = errors.New("invalid command")

// Command is an outbound request. Every command encodes to a JSON object
// whose "message" field is Name().
type Command interface {
	// Name is the wire command name.
	Name() string
	// Expect is the discriminator of the response that answers the command.
	Expect() Discriminator
	// Validate checks required fields before the command is sent.
	Validate() error
}

// Encode marshals cmd into its wire form: {"message": name, ...fields}.
func Encode(cmd Command) ([]byte, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.Name(), err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode %s: %w", cmd.Name(), err)
	}
	name, _ := json.Marshal(cmd.Name())
	fields["message"] = name
	return json.Marshal(fields)
}

func invalid(cmd Command, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidCommand, cmd.Name(), fmt.Sprintf(format, args...))
}

// FindByText finds nodes whose text or content description contains Text.
// Custom selects the service's own tree walker instead of the platform search.
type FindByText struct {
	Text    string `json:"text"`
	Verbose bool   `json:"verbose,omitempty"`
	Custom  bool   `json:"-"`
}

func (c FindByText) Name() string {
	if c.Custom {
		return "customFindByText"
	}
	return "findByText"
}
func (FindByText) Expect() Discriminator { return TypeFindResult }
func (c FindByText) Validate() error {
	if c.Text == "" {
		return invalid(c, "text is required")
	}
	return nil
}

// FindByViewID finds nodes by their resource ID, e.g. "com.example:id/ok".
type FindByViewID struct {
	ViewID  string `json:"viewId"`
	Verbose bool   `json:"verbose,omitempty"`
	Custom  bool   `json:"-"`
}

func (c FindByViewID) Name() string {
	if c.Custom {
		return "customFindByViewId"
	}
	return "findByViewId"
}
func (FindByViewID) Expect() Discriminator { return TypeFindResult }
func (c FindByViewID) Validate() error {
	if c.ViewID == "" {
		return invalid(c, "viewId is required")
	}
	return nil
}

// FindByRegex finds nodes whose text matches Pattern.
type FindByRegex struct {
	Pattern string `json:"pattern"`
	Verbose bool   `json:"verbose,omitempty"`
}

func (FindByRegex) Name() string          { return "findByRegex" }
func (FindByRegex) Expect() Discriminator { return TypeFindResult }

// Validate only checks presence. Pattern syntax is the service's regex
// dialect, so a pattern Go cannot compile is still sent.
func (c FindByRegex) Validate() error {
	if c.Pattern == "" {
		return invalid(c, "pattern is required")
	}
	return nil
}

// FindByProps finds nodes matching every property in the map, e.g.
// {"isClickable": true, "className": "android.widget.Button"}.
type FindByProps struct {
	Properties map[string]any `json:"properties"`
	Verbose    bool           `json:"verbose,omitempty"`
}

func (FindByProps) Name() string          { return "findByProps" }
func (FindByProps) Expect() Discriminator { return TypeFindResult }
func (c FindByProps) Validate() error {
	if len(c.Properties) == 0 {
		return invalid(c, "properties are required")
	}
	return nil
}

// PerformAction runs an accessibility action on the node identified by
// HashCode or ResourceID. Text is used by SET_TEXT.
type PerformAction struct {
	Action     string `json:"action"`
	HashCode   string `json:"hashCode,omitempty"`
	ResourceID string `json:"resourceId,omitempty"`
	Text       string `json:"text,omitempty"`
}

func (PerformAction) Name() string          { return "performAction" }
func (PerformAction) Expect() Discriminator { return TypeActionResult }
func (c PerformAction) Validate() error {
	if c.Action == "" {
		return invalid(c, "action is required")
	}
	if c.HashCode == "" && c.ResourceID == "" {
		return invalid(c, "either resourceId or hashCode must be provided")
	}
	return nil
}

// Gesture types understood by the service.
const (
	GestureTap         = "TAP"
	GestureClick       = "CLICK"
	GestureLongPress   = "LONG_PRESS"
	GestureLongClick   = "LONG_CLICK"
	GestureSwipe       = "SWIPE"
	GestureScroll      = "SCROLL"
	GestureScrollUp    = "SCROLL_UP"
	GestureScrollDown  = "SCROLL_DOWN"
	GestureScrollLeft  = "SCROLL_LEFT"
	GestureScrollRight = "SCROLL_RIGHT"
	GestureDoubleTap   = "DOUBLE_TAP"
)

var gestureTypes = map[string]bool{
	GestureTap: true, GestureClick: true, GestureLongPress: true, GestureLongClick: true,
	GestureSwipe: true, GestureScroll: true, GestureScrollUp: true, GestureScrollDown: true,
	GestureScrollLeft: true, GestureScrollRight: true, GestureDoubleTap: true,
}

// ValidGestureType reports whether t names a known gesture (case-insensitive).
func ValidGestureType(t string) bool {
	return gestureTypes[strings.ToUpper(t)]
}

// PerformGesture dispatches a gesture at screen coordinates. EndX and EndY
// are used by swipes and scrolls, Duration is in milliseconds.
type PerformGesture struct {
	GestureType string `json:"gestureType"`
	X           int    `json:"x"`
	Y           int    `json:"y"`
	EndX        *int   `json:"endX,omitempty"`
	EndY        *int   `json:"endY,omitempty"`
	Duration    *int   `json:"duration,omitempty"`
}

func (PerformGesture) Name() string          { return "performGesture" }
func (PerformGesture) Expect() Discriminator { return TypeGestureResult }
func (c PerformGesture) Validate() error {
	if c.GestureType == "" {
		return invalid(c, "gestureType is required")
	}
	if !ValidGestureType(c.GestureType) {
		return invalid(c, "unknown gesture type %q", c.GestureType)
	}
	if c.X < 0 || c.Y < 0 {
		return invalid(c, "coordinates must not be negative")
	}
	return nil
}

// Launch types understood by the service.
const (
	LaunchPackage   = "PACKAGE"
	LaunchComponent = "COMPONENT"
	LaunchIntent    = "INTENT"
	LaunchURL       = "URL"
	LaunchSettings  = "SETTINGS"
	LaunchDial      = "DIAL"
	LaunchSMS       = "SMS"
	LaunchEmail     = "EMAIL"
)

// LaunchActivity starts an app, a component, an intent, or one of the
// shortcut launch types. Extras is a JSON object encoded as a string, as the
// service expects.
type LaunchActivity struct {
	LaunchType   string `json:"launchType"`
	PackageName  string `json:"packageName,omitempty"`
	ClassName    string `json:"className,omitempty"`
	IntentAction string `json:"intentAction,omitempty"`
	Data         string `json:"data,omitempty"`
	Category     string `json:"category,omitempty"`
	Extras       string `json:"extras,omitempty"`
}

func (LaunchActivity) Name() string          { return "launchActivity" }
func (LaunchActivity) Expect() Discriminator { return TypeLaunchResult }

// Validate checks the fields each launch type needs. Unknown launch types
// are left to the service to reject.
func (c LaunchActivity) Validate() error {
	if c.LaunchType == "" {
		return invalid(c, "launchType is required")
	}
	switch strings.ToUpper(c.LaunchType) {
	case LaunchPackage:
		if c.PackageName == "" {
			return invalid(c, "packageName is required for %s", LaunchPackage)
		}
	case LaunchComponent:
		if c.PackageName == "" || c.ClassName == "" {
			return invalid(c, "packageName and className are required for %s", LaunchComponent)
		}
	case LaunchIntent:
		if c.IntentAction == "" {
			return invalid(c, "intentAction is required for %s", LaunchIntent)
		}
	case LaunchURL, LaunchDial, LaunchSMS:
		if c.Data == "" {
			return invalid(c, "data is required for %s", strings.ToUpper(c.LaunchType))
		}
	}
	if c.Extras != "" {
		var obj map[string]any
		if err := json.Unmarshal([]byte(c.Extras), &obj); err != nil {
			return invalid(c, "extras must be a JSON object")
		}
	}
	return nil
}

// Capture asks the service for a full tree. NotImportant includes views the
// platform marks as not important for accessibility.
type Capture struct {
	VisibleOnly  bool `json:"visibleOnly,omitempty"`
	NotImportant bool `json:"-"`
}

func (c Capture) Name() string {
	if c.NotImportant {
		return "captureNotImportant"
	}
	return "capture"
}
func (Capture) Expect() Discriminator { return TypeTree }
func (Capture) Validate() error       { return nil }

// Ping checks the service is alive.
type Ping struct{}

func (Ping) Name() string          { return "ping" }
func (Ping) Expect() Discriminator { return TypePong }
func (Ping) Validate() error       { return nil }

// CompileRegex reports whether pattern compiles with Go's regexp package.
// Callers use it only for warnings: the service's dialect differs.
func CompileRegex(pattern string) error {
	_, err := regexp.Compile(pattern)
	return err
}
