package inspector

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/mj1618/inspector-cli/internal/correlate"
	"github.com/mj1618/inspector-cli/internal/protocol"
	"github.com/mj1618/inspector-cli/internal/servicetest"
	"github.com/mj1618/inspector-cli/internal/transport"
)

// scripted answers each command name with a fixed payload.
type scripted struct {
	replies map[string]string
	sent    []protocol.Command
}

func (s *scripted) Request(_ context.Context, cmd protocol.Command, _ time.Duration) (*protocol.Envelope, error) {
	s.sent = append(s.sent, cmd)
	data, ok := s.replies[cmd.Name()]
	if !ok {
		return nil, correlate.ErrCorrelationTimeout
	}
	return protocol.Decode([]byte(data))
}

const captureTree = `{"type":"tree","children":[
  {"name":"Window","metadata":{"hashCode":1,"x1":0,"y1":0,"x2":1080,"y2":2400},"children":[
    {"name":"Button","resourceId":"com.example:id/ok","metadata":{"hashCode":2,"x1":10,"y1":20,"x2":110,"y2":80}},
    {"name":"Hidden","metadata":{"hashCode":3,"visibility":"invisible"},"children":[
      {"name":"Label","metadata":{"hashCode":4,"text":"hi"}}
    ]}
  ]}
]}`

func TestClient_StrictValidatesBeforeSending(t *testing.T) {
	req := &scripted{replies: map[string]string{}}
	c := New(req, WithStrictValidation())
	_, err := c.PerformAction(context.Background(), protocol.PerformAction{Action: "CLICK"})
	if !errors.Is(err, protocol.ErrInvalidCommand) {
		t.Fatalf("got %v, want ErrInvalidCommand", err)
	}
	if len(req.sent) != 0 {
		t.Errorf("invalid command was sent")
	}
}

func TestClient_InvalidCommandReachesService(t *testing.T) {
	req := &scripted{replies: map[string]string{
		"performAction": `{"type":"actionResult","success":false,"message":"Missing required parameter: either resourceId or hashCode must be provided"}`,
	}}
	var logs bytes.Buffer
	c := New(req, WithLogger(zerolog.New(&logs)))
	res, err := c.PerformAction(context.Background(), protocol.PerformAction{Action: "CLICK"})
	if err != nil {
		t.Fatalf("PerformAction: %v", err)
	}
	if len(req.sent) != 1 {
		t.Fatalf("sent %d commands, want 1", len(req.sent))
	}
	if res.Success || !strings.Contains(res.Message, "either resourceId or hashCode") {
		t.Errorf("got %+v, want the service's failure", res)
	}
	if !strings.Contains(logs.String(), "fails local validation") {
		t.Errorf("no validation warning logged: %s", logs.String())
	}
}

func TestClient_FindRejectsNonFindCommands(t *testing.T) {
	c := New(&scripted{})
	if _, err := c.Find(context.Background(), protocol.Ping{}); !errors.Is(err, protocol.ErrInvalidCommand) {
		t.Errorf("got %v", err)
	}
}

func TestClient_TimeoutIsWrapped(t *testing.T) {
	c := New(&scripted{replies: map[string]string{}})
	_, err := c.Ping(context.Background())
	if !errors.Is(err, correlate.ErrCorrelationTimeout) {
		t.Errorf("got %v, want ErrCorrelationTimeout", err)
	}
}

func TestClient_CaptureVisibleOnly(t *testing.T) {
	req := &scripted{replies: map[string]string{"capture": captureTree}}
	c := New(req)

	tree, err := c.Capture(context.Background(), CaptureOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if tree.Count() != 4 {
		t.Errorf("count: got %d, want 4", tree.Count())
	}

	tree, err = c.Capture(context.Background(), CaptureOptions{VisibleOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if tree.Count() != 3 {
		t.Errorf("visible count: got %d, want 3", tree.Count())
	}
	last := req.sent[len(req.sent)-1].(protocol.Capture)
	if !last.VisibleOnly {
		t.Error("visibleOnly not sent to the service")
	}
}

func TestClient_CaptureNotImportant(t *testing.T) {
	req := &scripted{replies: map[string]string{"captureNotImportant": captureTree}}
	if _, err := New(req).Capture(context.Background(), CaptureOptions{NotImportant: true}); err != nil {
		t.Fatal(err)
	}
	if req.sent[0].Name() != "captureNotImportant" {
		t.Errorf("sent %s", req.sent[0].Name())
	}
}

func TestClient_CompareBounds(t *testing.T) {
	tests := []struct {
		name      string
		find      string
		wantMatch bool
		wantDiff  [4]int
	}{
		{
			name:      "equal",
			find:      `{"type":"findResult","success":true,"count":1,"nodes":[{"hashCode":2,"boundsInScreen":{"left":10,"top":20,"right":110,"bottom":80}}]}`,
			wantMatch: true,
		},
		{
			name:     "offset",
			find:     `{"type":"findResult","success":true,"count":1,"nodes":[{"hashCode":2,"boundsInScreen":{"left":10,"top":83,"right":110,"bottom":143}}]}`,
			wantDiff: [4]int{0, 63, 0, 63},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &scripted{replies: map[string]string{"findByViewId": tt.find, "capture": captureTree}}
			report, err := New(req).CompareBounds(context.Background(), "com.example:id/ok", CaptureOptions{})
			if err != nil {
				t.Fatalf("CompareBounds: %v", err)
			}
			if report.Match != tt.wantMatch {
				t.Errorf("match: got %v", report.Match)
			}
			d := report.Diff
			if got := [4]int{d.Left, d.Top, d.Right, d.Bottom}; got != tt.wantDiff {
				t.Errorf("diff: got %v, want %v", got, tt.wantDiff)
			}
			if !report.Uniform {
				t.Error("expected a uniform difference")
			}
		})
	}
}

func TestClient_CompareBoundsNotFound(t *testing.T) {
	req := &scripted{replies: map[string]string{
		"findByViewId": `{"type":"findResult","success":true,"count":0,"nodes":[]}`,
	}}
	_, err := New(req).CompareBounds(context.Background(), "nope", CaptureOptions{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}

	req = &scripted{replies: map[string]string{
		"findByViewId": `{"type":"findResult","success":true,"count":1,"nodes":[{"boundsInScreen":{"left":0,"top":0,"right":1,"bottom":1}}]}`,
		"capture":      captureTree,
	}}
	_, err = New(req).CompareBounds(context.Background(), "com.example:id/missing", CaptureOptions{})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestClient_Consistency(t *testing.T) {
	req := &scripted{replies: map[string]string{
		"findByViewId":       `{"type":"findResult","success":true,"count":2,"nodes":[{},{}]}`,
		"customFindByViewId": `{"type":"findResult","success":true,"count":1,"nodes":[{}]}`,
		"findByText":         `{"type":"findResult","success":true,"count":1,"nodes":[{}]}`,
		"customFindByText":   `{"type":"findResult","success":true,"count":1,"nodes":[{}]}`,
	}}
	c := New(req)

	results, err := c.Consistency(context.Background(), ByViewID, []string{"a", "b"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Consistent || results[0].Native != 2 || results[0].Custom != 1 {
		t.Errorf("got %+v", results[0])
	}

	results, err = c.Consistency(context.Background(), ByText, []string{"OK"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !results[0].Consistent {
		t.Errorf("got %+v", results[0])
	}
}

func TestClient_ConsistencyRecordsErrors(t *testing.T) {
	req := &scripted{replies: map[string]string{
		"findByViewId": `{"type":"findResult","success":true,"count":0,"nodes":[]}`,
	}}
	results, err := New(req).Consistency(context.Background(), ByViewID, []string{"x"}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Consistent || results[0].CustomError == "" {
		t.Errorf("got %+v", results[0])
	}
}

func TestClient_OverWebSocket(t *testing.T) {
	srv := servicetest.New(t, servicetest.Reply(map[string][]servicetest.Frame{
		"launchActivity": {
			servicetest.Event("WINDOW_STATE_CHANGED"),
			servicetest.Text(`{"type":"launchResult","success":true,"message":"Launched com.android.settings"}`),
		},
		"performGesture": {
			servicetest.Text(`{"type":"gestureResult","success":true,"message":"Gesture TAP dispatched"}`),
		},
	}))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sess, err := transport.Dial(ctx, srv.URL)
	require.NoError(t, err)
	defer sess.Close()

	c := New(correlate.New(sess), WithTimeout(3*time.Second))

	rtt, err := c.Ping(ctx)
	require.NoError(t, err)
	require.Greater(t, rtt, time.Duration(0))

	res, err := c.Launch(ctx, protocol.LaunchActivity{LaunchType: protocol.LaunchPackage, PackageName: "com.android.settings"})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, protocol.TypeLaunchResult, res.Type)

	res, err = c.PerformGesture(ctx, protocol.PerformGesture{GestureType: protocol.GestureTap, X: 540, Y: 1200})
	require.NoError(t, err)
	require.True(t, res.Success)

	got := srv.Received()
	require.Len(t, got, 3)
	require.Equal(t, "performGesture", got[2].Message)
	require.EqualValues(t, 540, got[2].Fields["x"])
}
