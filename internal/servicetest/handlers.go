package servicetest

import (
	"fmt"
	"strings"
)

// Reply returns a handler that answers a ping with pong, sends nothing for
// other commands without an entry, and otherwise replies with the frames
// registered for the command name.
func Reply(byCommand map[string][]Frame) Handler {
	return func(req Request) []Frame {
		if frames, ok := byCommand[req.Message]; ok {
			return frames
		}
		if strings.EqualFold(req.Message, "ping") {
			return []Frame{Text(`{"message":"pong"}`)}
		}
		return nil
	}
}

// Event returns an accessibilityEvent frame.
func Event(eventType string) Frame {
	return Text(fmt.Sprintf(`{"type":"accessibilityEvent","eventType":%q,"packageName":"com.example","timestamp":1}`, eventType))
}
