package cmd

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mj1618/inspector-cli/internal/diag"
	"github.com/mj1618/inspector-cli/internal/protocol"
)

func decodeEnv(t *testing.T, data string) *protocol.Envelope {
	t.Helper()
	env, err := protocol.Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode(%s): %v", data, err)
	}
	return env
}

func TestMessageHeader(t *testing.T) {
	tests := []struct {
		data string
		want string
	}{
		{`{"type":"accessibilityEvent","eventType":"VIEW_CLICKED"}`, "ACCESSIBILITY EVENT: VIEW_CLICKED"},
		{`{"type":"stableTree","timestamp":1700,"children":[]}`, "STABLE TREE (ts: 1700)"},
		{`{"type":"treeBeforeEvent","eventType":"VIEW_CLICKED","children":[]}`, "TREE BEFORE: VIEW_CLICKED [DEPRECATED]"},
		{`{"children":[]}`, "TREE MESSAGE"},
		{`{"type":"gestureResult","success":true}`, "RESULT: gestureResult"},
		{`{"message":"pong"}`, "PONG"},
		{`{"announcement":"Loading"}`, "ANNOUNCEMENT"},
		{`{"foo":1}`, "OTHER: NO TYPE"},
	}
	for _, tt := range tests {
		if got := messageHeader(decodeEnv(t, tt.data)); got != tt.want {
			t.Errorf("messageHeader(%s) = %q, want %q", tt.data, got, tt.want)
		}
	}
}

func TestFormatMessage_EventWithNote(t *testing.T) {
	var buf bytes.Buffer
	env := decodeEnv(t, `{"type":"accessibilityEvent","eventType":"WINDOW_CONTENT_CHANGED","eventTypeId":2048,
		"packageName":"com.example","className":"android.widget.FrameLayout","timestamp":42,
		"source":{"name":"Button","text":"OK","resourceId":"com.example:id/ok","metadata":{"hashCode":77,"role":"button"}}}`)

	formatMessage(&buf, env, diag.NewSession().Observe(env))
	out := buf.String()

	for _, want := range []string{
		"=== ACCESSIBILITY EVENT: WINDOW_CONTENT_CHANGED [STABILITY TIMER RESET] ===",
		"Event: WINDOW_CONTENT_CHANGED (ID: 2048)",
		"Package: com.example",
		"Timestamp: 42",
		"Source Node:",
		"  Resource ID: com.example:id/ok",
		"  Hash Code: 77",
		"==================",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatMessage_ScrollSequence(t *testing.T) {
	var buf bytes.Buffer
	env := decodeEnv(t, `{"type":"accessibilityEvent","eventType":"SCROLL_SEQUENCE_END",
		"totalScrollY":640,"scrollTimestamps":[1000,1100,1350]}`)

	formatMessage(&buf, env, diag.Note{})
	out := buf.String()
	for _, want := range []string{"Scroll Data:", "  Total X: N/A", "  Total Y: 640", "  Event count: 3", "  Duration: 350ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatMessage_StableTreeTiming(t *testing.T) {
	now := time.Unix(1700000000, 0)
	session := diag.NewSession(diag.WithClock(func() time.Time { return now }))

	session.Observe(decodeEnv(t, `{"type":"accessibilityEvent","eventType":"VIEW_CLICKED"}`))
	now = now.Add(1500 * time.Millisecond)

	var buf bytes.Buffer
	env := decodeEnv(t, `{"type":"stableTree","timestamp":5,"children":[{"name":"Window","metadata":{"hashCode":1},"children":[{"text":"Hi"}]}]}`)
	formatMessage(&buf, env, session.Observe(env))
	out := buf.String()

	for _, want := range []string{"=== STABLE TREE (ts: 5) [1.5s since UI change] ===", "Children count: 1", "Node count: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatMessage_PreviewTruncated(t *testing.T) {
	var buf bytes.Buffer
	long := `{"type":"findResult","success":true,"message":"` + strings.Repeat("x", 2000) + `"}`
	formatMessage(&buf, decodeEnv(t, long), diag.Note{})
	out := buf.String()

	if !strings.Contains(out, "Length: ") {
		t.Errorf("missing length line:\n%s", out)
	}
	if !strings.Contains(out, "...") {
		t.Error("expected truncated preview")
	}
	if strings.Count(out, "x") > previewLimit {
		t.Errorf("preview longer than %d bytes", previewLimit)
	}
}

func TestReadLines_StopsOnClose(t *testing.T) {
	lines := make(chan string)
	stop := make(chan struct{})
	go readLines(strings.NewReader("c\np\n"), lines, stop)

	if got := <-lines; got != "c" {
		t.Fatalf("first line = %q", got)
	}
	close(stop)
	// readLines must return and close lines
	for range lines {
	}
}
