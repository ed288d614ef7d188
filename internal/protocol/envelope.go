package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

// ErrDecode is returned for payloads that are not a JSON object or node
// list, and by typed accessors when required fields are missing.
var ErrDecode = errors.New("decode message")

// maxInflated caps the size of a decompressed payload.
const maxInflated = 256 << 20

var gzipMagic = []byte{0x1f, 0x8b}

// Envelope is one classified inbound message. Raw holds the decompressed
// JSON; typed accessors parse it on demand.
type Envelope struct {
	Type       Discriminator
	Raw        json.RawMessage
	Compressed bool

	fields map[string]json.RawMessage
}

// Decode classifies an inbound payload. Gzip-compressed payloads are detected
// by their magic bytes and inflated first, whatever command produced them.
//
// The discriminator is taken from a non-empty "type" field, then from a
// "message" field (the pong reply). Objects with a "children" key are trees
// and objects with an "announcement" key are announcements. A top-level JSON
// list is a tree. Any other object decodes with TypeUnknown.
func Decode(data []byte) (*Envelope, error) {
	env := &Envelope{}
	if bytes.HasPrefix(data, gzipMagic) {
		inflated, err := inflate(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecode, err)
		}
		data = inflated
		env.Compressed = true
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}
	switch data[0] {
	case '[':
		if !json.Valid(data) {
			return nil, fmt.Errorf("%w: invalid JSON list", ErrDecode)
		}
		env.Type = TypeTree
		env.Raw = data
		return env, nil
	case '{':
	default:
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrDecode)
	}

	if err := json.Unmarshal(data, &env.fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	env.Raw = data
	env.Type = classify(env.fields)
	return env, nil
}

func classify(fields map[string]json.RawMessage) Discriminator {
	if t := stringField(fields, "type"); t != "" {
		return Discriminator(t)
	}
	if m := stringField(fields, "message"); m == string(TypePong) {
		return TypePong
	}
	if _, ok := fields["children"]; ok {
		return TypeTree
	}
	if _, ok := fields["announcement"]; ok {
		return TypeAnnouncement
	}
	return TypeUnknown
}

func inflate(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	defer zr.Close()
	out, err := io.ReadAll(io.LimitReader(zr, maxInflated+1))
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	if len(out) > maxInflated {
		return nil, fmt.Errorf("gzip: payload exceeds %d bytes", maxInflated)
	}
	return out, nil
}

// Field returns the raw value of a top-level field.
func (e *Envelope) Field(name string) (json.RawMessage, bool) {
	v, ok := e.fields[name]
	return v, ok
}

// String returns a top-level string field, or "" when absent or not a string.
func (e *Envelope) String(name string) string {
	return stringField(e.fields, name)
}

func (e *Envelope) expect(ok bool, want string) error {
	if !ok {
		return fmt.Errorf("%w: %s message is not %s", ErrDecode, e.Type, want)
	}
	return nil
}

func (e *Envelope) require(names ...string) error {
	for _, n := range names {
		if _, ok := e.fields[n]; !ok {
			return fmt.Errorf("%w: %s message missing %q", ErrDecode, e.Type, n)
		}
	}
	return nil
}

func stringField(fields map[string]json.RawMessage, name string) string {
	raw, ok := fields[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}
