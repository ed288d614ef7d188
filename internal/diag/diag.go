// Package diag tracks event timing for the debug listener: how long the
// service takes to report a stable tree after the UI last changed, and how
// long a manual capture takes.
package diag

import (
	"fmt"
	"time"

	"github.com/mj1618/inspector-cli/internal/protocol"
)

// Event types that mark a UI change. WINDOW_CONTENT_CHANGED also restarts
// the service's stability timer.
const (
	WindowContentChanged = "WINDOW_CONTENT_CHANGED"
	WindowStateChanged   = "WINDOW_STATE_CHANGED"
	ViewClicked          = "VIEW_CLICKED"
	ViewFocused          = "VIEW_FOCUSED"
)

var uiChangeEvents = map[string]bool{
	WindowContentChanged: true,
	WindowStateChanged:   true,
	ViewClicked:          true,
	ViewFocused:          true,
}

// IsUIChange reports whether eventType marks a UI change.
func IsUIChange(eventType string) bool {
	return uiChangeEvents[eventType]
}

// NoteKind says what a Note reports.
type NoteKind int

const (
	NoteNone NoteKind = iota
	NoteUIChange
	NoteStabilityReset
	NoteStableTree
	NoteCapture
)

// Note is the timing annotation for one message.
type Note struct {
	Kind      NoteKind
	EventType string
	// Elapsed is set for NoteStableTree (since the last UI change) and
	// NoteCapture (since MarkCapture).
	Elapsed time.Duration
	// Tracked is false for a stable tree seen before any UI change.
	Tracked bool
}

func (n Note) String() string {
	switch n.Kind {
	case NoteStabilityReset:
		return "[STABILITY TIMER RESET]"
	case NoteUIChange:
		return fmt.Sprintf("[UI change detected - %s]", n.EventType)
	case NoteStableTree:
		if !n.Tracked {
			return "[no UI change tracked]"
		}
		return fmt.Sprintf("[%.1fs since UI change]", n.Elapsed.Seconds())
	case NoteCapture:
		return fmt.Sprintf("[%.1fs capture time]", n.Elapsed.Seconds())
	}
	return ""
}

// Session holds the timing state of one listener run.
type Session struct {
	now          func() time.Time
	lastUIChange time.Time
	captureStart time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// NewSession returns a session with no timestamps recorded.
func NewSession(opts ...Option) *Session {
	s := &Session{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarkCapture records the start of a manual capture. The next tree message
// reports the capture time.
func (s *Session) MarkCapture() {
	s.captureStart = s.now()
}

// Reset forgets both timestamps.
func (s *Session) Reset() {
	s.lastUIChange = time.Time{}
	s.captureStart = time.Time{}
}

// LastUIChange returns when the last UI change event was seen.
func (s *Session) LastUIChange() (time.Time, bool) {
	return s.lastUIChange, !s.lastUIChange.IsZero()
}

// Observe updates the timing state for env and returns its annotation.
func (s *Session) Observe(env *protocol.Envelope) Note {
	now := s.now()
	switch env.Type {
	case protocol.TypeAccessibilityEvent:
		eventType := env.String("eventType")
		if !IsUIChange(eventType) {
			return Note{EventType: eventType}
		}
		s.lastUIChange = now
		if eventType == WindowContentChanged {
			return Note{Kind: NoteStabilityReset, EventType: eventType}
		}
		return Note{Kind: NoteUIChange, EventType: eventType}

	case protocol.TypeStableTree:
		if s.lastUIChange.IsZero() {
			return Note{Kind: NoteStableTree}
		}
		return Note{Kind: NoteStableTree, Tracked: true, Elapsed: now.Sub(s.lastUIChange)}

	case protocol.TypeTree:
		if s.captureStart.IsZero() {
			return Note{}
		}
		elapsed := now.Sub(s.captureStart)
		s.captureStart = time.Time{}
		return Note{Kind: NoteCapture, Tracked: true, Elapsed: elapsed}
	}
	return Note{}
}
