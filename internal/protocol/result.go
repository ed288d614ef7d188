package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/mj1618/inspector-cli/internal/model"
)

// FindResult answers every find command.
type FindResult struct {
	Success bool         `yaml:"success"           json:"success"`
	Message string       `yaml:"message,omitempty" json:"message,omitempty"`
	Count   int          `yaml:"count"             json:"count"`
	Nodes   []model.Node `yaml:"nodes"             json:"nodes"`
}

// Result answers an action, gesture or launch command. Success false is a
// normal answer carrying the service's reason in Message.
type Result struct {
	Type    Discriminator `yaml:"type"              json:"type"`
	Success bool          `yaml:"success"           json:"success"`
	Message string        `yaml:"message,omitempty" json:"message,omitempty"`
}

// Event is an unsolicited accessibility event notification.
type Event struct {
	EventType   string      `yaml:"eventType"             json:"eventType"`
	EventTypeID int         `yaml:"eventTypeId,omitempty" json:"eventTypeId,omitempty"`
	PackageName string      `yaml:"packageName,omitempty" json:"packageName,omitempty"`
	ClassName   string      `yaml:"className,omitempty"   json:"className,omitempty"`
	Timestamp   int64       `yaml:"timestamp,omitempty"   json:"timestamp,omitempty"`
	Text        []string    `yaml:"text,omitempty"        json:"text,omitempty"`
	Source      *model.Node `yaml:"source,omitempty"      json:"source,omitempty"`

	// SCROLL_SEQUENCE_END
	TotalScrollX     *int    `yaml:"totalScrollX,omitempty"     json:"totalScrollX,omitempty"`
	TotalScrollY     *int    `yaml:"totalScrollY,omitempty"     json:"totalScrollY,omitempty"`
	ScrollTimestamps []int64 `yaml:"scrollTimestamps,omitempty" json:"scrollTimestamps,omitempty"`

	// TEXT_SEQUENCE_END
	SessionText     string      `yaml:"sessionText,omitempty"     json:"sessionText,omitempty"`
	TextEventCount  int         `yaml:"textEventCount,omitempty"  json:"textEventCount,omitempty"`
	PasteEventCount int         `yaml:"pasteEventCount,omitempty" json:"pasteEventCount,omitempty"`
	TextFieldSource *model.Node `yaml:"textFieldSource,omitempty" json:"textFieldSource,omitempty"`
}

// ScrollDurationMillis is the time between the first and last scroll of a
// scroll sequence, or 0 when fewer than two were recorded.
func (ev *Event) ScrollDurationMillis() int64 {
	if len(ev.ScrollTimestamps) < 2 {
		return 0
	}
	return ev.ScrollTimestamps[len(ev.ScrollTimestamps)-1] - ev.ScrollTimestamps[0]
}

// FindResult parses a findResult message. success is required; count
// defaults to the number of nodes.
func (e *Envelope) FindResult() (*FindResult, error) {
	if err := e.expect(e.Type == TypeFindResult, string(TypeFindResult)); err != nil {
		return nil, err
	}
	if err := e.require("success"); err != nil {
		return nil, err
	}
	var wire struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Count   *int            `json:"count"`
		Nodes   json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(e.Raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	nodes, err := model.DecodeNodes(wire.Nodes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	res := &FindResult{Success: wire.Success, Message: wire.Message, Nodes: nodes, Count: len(nodes)}
	if wire.Count != nil {
		res.Count = *wire.Count
	}
	return res, nil
}

// Result parses an actionResult, gestureResult or launchResult message.
func (e *Envelope) Result() (*Result, error) {
	if err := e.expect(e.Type.IsResult(), "a command result"); err != nil {
		return nil, err
	}
	if err := e.require("success"); err != nil {
		return nil, err
	}
	var wire struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(e.Raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &Result{Type: e.Type, Success: wire.Success, Message: wire.Message}, nil
}

// Tree parses any tree message into the canonical model.
func (e *Envelope) Tree() (*model.Tree, error) {
	if err := e.expect(e.Type.IsTree(), "a tree"); err != nil {
		return nil, err
	}
	tree, err := model.DecodeTree(e.Raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return tree, nil
}

// Event parses an accessibilityEvent, or the event fields carried by a
// treeBeforeEvent message. eventType is required.
func (e *Envelope) Event() (*Event, error) {
	ok := e.Type == TypeAccessibilityEvent || e.Type == TypeTreeBeforeEvent
	if err := e.expect(ok, string(TypeAccessibilityEvent)); err != nil {
		return nil, err
	}
	if err := e.require("eventType"); err != nil {
		return nil, err
	}
	var wire struct {
		EventType        string          `json:"eventType"`
		EventTypeID      int             `json:"eventTypeId"`
		PackageName      string          `json:"packageName"`
		ClassName        string          `json:"className"`
		Timestamp        int64           `json:"timestamp"`
		Text             json.RawMessage `json:"text"`
		Source           json.RawMessage `json:"source"`
		TotalScrollX     *int            `json:"totalScrollX"`
		TotalScrollY     *int            `json:"totalScrollY"`
		ScrollTimestamps []int64         `json:"scrollTimestamps"`
		SessionText      string          `json:"sessionText"`
		TextEventCount   int             `json:"textEventCount"`
		PasteEventCount  int             `json:"pasteEventCount"`
		TextFieldSource  json.RawMessage `json:"textFieldSource"`
	}
	if err := json.Unmarshal(e.Raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	ev := &Event{
		EventType:        wire.EventType,
		EventTypeID:      wire.EventTypeID,
		PackageName:      wire.PackageName,
		ClassName:        wire.ClassName,
		Timestamp:        wire.Timestamp,
		Text:             textList(wire.Text),
		TotalScrollX:     wire.TotalScrollX,
		TotalScrollY:     wire.TotalScrollY,
		ScrollTimestamps: wire.ScrollTimestamps,
		SessionText:      wire.SessionText,
		TextEventCount:   wire.TextEventCount,
		PasteEventCount:  wire.PasteEventCount,
	}
	var err error
	if ev.Source, err = optionalNode(wire.Source); err != nil {
		return nil, err
	}
	if ev.TextFieldSource, err = optionalNode(wire.TextFieldSource); err != nil {
		return nil, err
	}
	return ev, nil
}

// Announcement returns the text of an announcement message.
func (e *Envelope) Announcement() (string, error) {
	if err := e.expect(e.Type == TypeAnnouncement, string(TypeAnnouncement)); err != nil {
		return "", err
	}
	return e.String("announcement"), nil
}

// ServiceError returns the message of a service-side error, such as a
// command that was not valid JSON.
func (e *Envelope) ServiceError() (string, error) {
	if err := e.expect(e.Type == TypeError, string(TypeError)); err != nil {
		return "", err
	}
	return e.String("message"), nil
}

// textList accepts the event text as a string or a list of strings.
func textList(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return []string{s}
	}
	return nil
}

func optionalNode(raw json.RawMessage) (*model.Node, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	n, err := model.DecodeNode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return &n, nil
}
