// Package servicetest runs an in-process stand-in for the inspection service
// so clients can be tested against a real WebSocket.
package servicetest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/coder/websocket"
	"github.com/klauspost/compress/gzip"
)

// Request is one command received by the server.
type Request struct {
	Message string
	Fields  map[string]any
	Raw     []byte
}

// Frame is one outbound WebSocket message.
type Frame struct {
	Binary bool
	Data   []byte
}

// Text returns a text frame.
func Text(s string) Frame { return Frame{Data: []byte(s)} }

// JSON marshals v into a text frame. It panics if v cannot be marshalled.
func JSON(v any) Frame {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Frame{Data: data}
}

// Gzip compresses s into a binary frame, the way the service sends trees.
func Gzip(s string) Frame {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, _ = zw.Write([]byte(s))
	_ = zw.Close()
	return Frame{Binary: true, Data: buf.Bytes()}
}

// Handler returns the frames to send in reply to a request, in order.
type Handler func(req Request) []Frame

// Server is a fake inspection service.
type Server struct {
	URL string

	srv     *httptest.Server
	handler Handler

	mu       sync.Mutex
	received []Request
	conns    map[*websocket.Conn]struct{}
}

// New starts a server that answers each request with handler. The server is
// closed when the test ends.
func New(t testing.TB, handler Handler) *Server {
	t.Helper()
	s := &Server{handler: handler, conns: make(map[*websocket.Conn]struct{})}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serve))
	s.URL = "ws" + strings.TrimPrefix(s.srv.URL, "http") + "/"
	t.Cleanup(s.Close)
	return s
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		return
	}
	defer c.CloseNow()
	s.mu.Lock()
	s.conns[c] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
	}()

	ctx := r.Context()
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			return
		}
		req := Request{Raw: data}
		if err := json.Unmarshal(data, &req.Fields); err == nil {
			req.Message, _ = req.Fields["message"].(string)
		}
		s.mu.Lock()
		s.received = append(s.received, req)
		s.mu.Unlock()

		if s.handler == nil {
			continue
		}
		for _, f := range s.handler(req) {
			if err := write(ctx, c, f); err != nil {
				return
			}
		}
	}
}

func write(ctx context.Context, c *websocket.Conn, f Frame) error {
	typ := websocket.MessageText
	if f.Binary {
		typ = websocket.MessageBinary
	}
	return c.Write(ctx, typ, f.Data)
}

// Broadcast sends frames to every connected client, like the service's
// unsolicited events.
func (s *Server) Broadcast(frames ...Frame) {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		for _, f := range frames {
			_ = write(context.Background(), c, f)
		}
	}
}

// Received returns the requests seen so far.
func (s *Server) Received() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.received...)
}

// Connections returns the number of open client connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Disconnect drops every client connection without a close handshake.
func (s *Server) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.CloseNow()
	}
}

// Close shuts the server down.
func (s *Server) Close() {
	s.Disconnect()
	s.srv.Close()
}
