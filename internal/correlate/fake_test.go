package correlate

import (
	"context"
	"sync"
	"time"

	"github.com/mj1618/inspector-cli/internal/transport"
)

// fakeConn hands pushed payloads to Receive one at a time, like a session.
type fakeConn struct {
	ch   chan transport.Message
	sent chan []byte
	done chan struct{}
	once sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		ch:   make(chan transport.Message),
		sent: make(chan []byte, 64),
		done: make(chan struct{}),
	}
}

func (f *fakeConn) Receive(ctx context.Context, timeout time.Duration) (transport.Message, bool, error) {
	select {
	case <-f.done:
		return transport.Message{}, false, transport.ErrClosed
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case m := <-f.ch:
		return m, true, nil
	case <-timer.C:
		return transport.Message{}, false, nil
	case <-ctx.Done():
		return transport.Message{}, false, ctx.Err()
	case <-f.done:
		return transport.Message{}, false, transport.ErrClosed
	}
}

func (f *fakeConn) Send(_ context.Context, payload []byte) error {
	select {
	case <-f.done:
		return transport.ErrClosed
	case f.sent <- payload:
		return nil
	}
}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.done) })
	return nil
}

// push delivers payloads in order from a background goroutine.
func (f *fakeConn) push(payloads ...[]byte) {
	go func() {
		for _, p := range payloads {
			select {
			case f.ch <- transport.Message{Data: p, ReceivedAt: time.Now()}:
			case <-f.done:
				return
			}
		}
	}()
}

// pending reports whether a pushed message is still waiting to be received.
func (f *fakeConn) pending(wait time.Duration) bool {
	select {
	case <-f.ch:
		return true
	case <-time.After(wait):
		return false
	}
}

func strs(s ...string) [][]byte {
	out := make([][]byte, len(s))
	for i := range s {
		out[i] = []byte(s[i])
	}
	return out
}
