package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func decodeWire(t *testing.T, cmd Command) map[string]any {
	t.Helper()
	data, err := Encode(cmd)
	if err != nil {
		t.Fatalf("Encode(%s): %v", cmd.Name(), err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return m
}

func TestEncode_MessageField(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{FindByText{Text: "OK"}, "findByText"},
		{FindByText{Text: "OK", Custom: true}, "customFindByText"},
		{FindByViewID{ViewID: "x"}, "findByViewId"},
		{FindByViewID{ViewID: "x", Custom: true}, "customFindByViewId"},
		{FindByRegex{Pattern: "^O"}, "findByRegex"},
		{FindByProps{Properties: map[string]any{"isClickable": true}}, "findByProps"},
		{PerformAction{Action: "CLICK", HashCode: "1"}, "performAction"},
		{PerformGesture{GestureType: GestureTap}, "performGesture"},
		{LaunchActivity{LaunchType: LaunchSettings}, "launchActivity"},
		{Capture{}, "capture"},
		{Capture{NotImportant: true}, "captureNotImportant"},
		{Ping{}, "ping"},
	}
	for _, tt := range tests {
		m := decodeWire(t, tt.cmd)
		if m["message"] != tt.want {
			t.Errorf("%T: message got %v, want %s", tt.cmd, m["message"], tt.want)
		}
		if _, ok := m["Custom"]; ok {
			t.Errorf("%T: internal field leaked onto the wire", tt.cmd)
		}
	}
}

func TestEncode_FindByViewID(t *testing.T) {
	m := decodeWire(t, FindByViewID{ViewID: "x"})
	if len(m) != 2 || m["viewId"] != "x" {
		t.Errorf("got %v, want {message, viewId}", m)
	}
}

func TestEncode_GestureOptionalFields(t *testing.T) {
	endX, endY, dur := 500, 100, 300
	m := decodeWire(t, PerformGesture{GestureType: GestureSwipe, X: 500, Y: 1500, EndX: &endX, EndY: &endY, Duration: &dur})
	if m["endX"] != float64(500) || m["endY"] != float64(100) || m["duration"] != float64(300) {
		t.Errorf("got %v", m)
	}
	m = decodeWire(t, PerformGesture{GestureType: GestureTap, X: 0, Y: 0})
	if _, ok := m["endX"]; ok {
		t.Error("endX should be omitted when unset")
	}
	if m["x"] != float64(0) {
		t.Errorf("x=0 must still be sent, got %v", m["x"])
	}
}

func TestEncode_ActionWithoutIdentifier(t *testing.T) {
	m := decodeWire(t, PerformAction{Action: "CLICK"})
	if len(m) != 2 || m["action"] != "CLICK" {
		t.Errorf("got %v, want only message and action", m)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		wantErr bool
	}{
		{"text ok", FindByText{Text: "a"}, false},
		{"text missing", FindByText{}, true},
		{"viewId missing", FindByViewID{}, true},
		{"pattern missing", FindByRegex{}, true},
		{"props empty", FindByProps{}, true},
		{"action ok by hash", PerformAction{Action: "CLICK", HashCode: "12"}, false},
		{"action ok by id", PerformAction{Action: "CLICK", ResourceID: "id/a"}, false},
		{"action no identifier", PerformAction{Action: "CLICK"}, true},
		{"action missing", PerformAction{HashCode: "12"}, true},
		{"gesture ok", PerformGesture{GestureType: "tap", X: 1, Y: 2}, false},
		{"gesture unknown", PerformGesture{GestureType: "PINCH"}, true},
		{"gesture negative", PerformGesture{GestureType: GestureTap, X: -1}, true},
		{"launch missing type", LaunchActivity{}, true},
		{"launch package", LaunchActivity{LaunchType: "package", PackageName: "com.android.settings"}, false},
		{"launch package missing", LaunchActivity{LaunchType: LaunchPackage}, true},
		{"launch component partial", LaunchActivity{LaunchType: LaunchComponent, PackageName: "p"}, true},
		{"launch intent missing action", LaunchActivity{LaunchType: LaunchIntent}, true},
		{"launch url missing data", LaunchActivity{LaunchType: LaunchURL}, true},
		{"launch bad extras", LaunchActivity{LaunchType: LaunchSettings, Extras: "[1]"}, true},
		{"launch extras", LaunchActivity{LaunchType: LaunchSettings, Extras: `{"a":1}`}, false},
		{"launch unknown type", LaunchActivity{LaunchType: "TELEPORT"}, false},
		{"capture", Capture{}, false},
		{"ping", Ping{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCommand) {
					t.Errorf("got %v, want ErrInvalidCommand", err)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestExpect(t *testing.T) {
	tests := []struct {
		cmd  Command
		want Discriminator
	}{
		{FindByText{}, TypeFindResult},
		{FindByProps{}, TypeFindResult},
		{PerformAction{}, TypeActionResult},
		{PerformGesture{}, TypeGestureResult},
		{LaunchActivity{}, TypeLaunchResult},
		{Capture{NotImportant: true}, TypeTree},
		{Ping{}, TypePong},
	}
	for _, tt := range tests {
		if got := tt.cmd.Expect(); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.cmd.Name(), got, tt.want)
		}
	}
}
