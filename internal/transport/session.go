package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
)

var (
	// ErrTransport wraps a failed write or dial on the connection.
	ErrTransport = errors.New("transport error")
	// ErrClosed is returned by Send and Receive once the session is closed,
	// explicitly or by a fatal read error.
	ErrClosed = errors.New("connection closed")
)

// DefaultReadLimit is large enough for an uncompressed capture of a busy
// screen.
const DefaultReadLimit = 64 << 20

// Kind is the WebSocket frame type of a message.
type Kind int

const (
	KindText Kind = iota
	KindBinary
)

func (k Kind) String() string {
	if k == KindBinary {
		return "binary"
	}
	return "text"
}

// Message is one inbound frame.
type Message struct {
	Kind       Kind
	Data       []byte
	ReceivedAt time.Time
}

// Session owns a single WebSocket connection to the inspection service.
// Frames are read by a background loop and handed to Receive one at a time
// in arrival order; nothing is buffered in between.
type Session struct {
	url  string
	conn *websocket.Conn
	log  zerolog.Logger

	msgs   chan Message
	done   chan struct{}
	cancel context.CancelFunc

	closeOnce sync.Once
	mu        sync.Mutex
	err       error
}

type options struct {
	readLimit int64
	header    http.Header
	log       zerolog.Logger
}

// Option configures Dial.
type Option func(*options)

// WithReadLimit sets the maximum inbound frame size in bytes.
func WithReadLimit(n int64) Option {
	return func(o *options) { o.readLimit = n }
}

// WithHeader adds HTTP headers to the opening handshake.
func WithHeader(h http.Header) Option {
	return func(o *options) { o.header = h }
}

// WithLogger sets the session logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) { o.log = log }
}

// Dial connects to url, e.g. "ws://localhost:38301/".
func Dial(ctx context.Context, url string, opts ...Option) (*Session, error) {
	o := options{readLimit: DefaultReadLimit, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: o.header})
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", ErrTransport, url, err)
	}
	conn.SetReadLimit(o.readLimit)

	readCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		url:    url,
		conn:   conn,
		log:    o.log.With().Str("url", url).Logger(),
		msgs:   make(chan Message),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	s.log.Debug().Msg("connected")
	go s.readLoop(readCtx)
	return s, nil
}

// URL returns the endpoint the session is connected to.
func (s *Session) URL() string { return s.url }

func (s *Session) readLoop(ctx context.Context) {
	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			s.shutdown(err)
			return
		}
		msg := Message{Kind: KindText, Data: data, ReceivedAt: time.Now()}
		if typ == websocket.MessageBinary {
			msg.Kind = KindBinary
		}
		select {
		case s.msgs <- msg:
		case <-s.done:
			return
		}
	}
}

// Send writes payload as a single text frame.
func (s *Session) Send(ctx context.Context, payload []byte) error {
	if s.isClosed() {
		return s.closedErr()
	}
	if err := s.conn.Write(ctx, websocket.MessageText, payload); err != nil {
		if s.isClosed() {
			return s.closedErr()
		}
		return fmt.Errorf("%w: write: %w", ErrTransport, err)
	}
	s.log.Trace().Int("bytes", len(payload)).Msg("sent")
	return nil
}

// Receive waits up to timeout for the next message. ok is false when the
// timeout elapsed first; that is not an error. Once the session is closed
// Receive returns ErrClosed. A cancelled ctx ends the wait with ctx.Err().
func (s *Session) Receive(ctx context.Context, timeout time.Duration) (msg Message, ok bool, err error) {
	if s.isClosed() {
		return Message{}, false, s.closedErr()
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case msg = <-s.msgs:
		return msg, true, nil
	case <-timer.C:
		return Message{}, false, nil
	case <-ctx.Done():
		return Message{}, false, ctx.Err()
	case <-s.done:
		return Message{}, false, s.closedErr()
	}
}

// Done is closed when the session ends for any reason.
func (s *Session) Done() <-chan struct{} { return s.done }

// Err returns the read error that ended the session, or nil while it is open
// or after an explicit Close.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close ends the session. It is safe to call more than once.
func (s *Session) Close() error {
	s.shutdown(nil)
	return nil
}

func (s *Session) shutdown(cause error) {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.err = cause
		s.mu.Unlock()
		close(s.done)

		if cause != nil {
			s.log.Debug().Err(cause).Msg("connection lost")
			s.conn.CloseNow()
		} else {
			s.log.Debug().Msg("closing")
			if err := s.conn.Close(websocket.StatusNormalClosure, ""); err != nil {
				s.log.Trace().Err(err).Msg("close handshake")
			}
		}
		s.cancel()
	})
}

func (s *Session) isClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func (s *Session) closedErr() error {
	if err := s.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	return ErrClosed
}
