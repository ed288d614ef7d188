package correlate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mj1618/inspector-cli/internal/protocol"
	"github.com/mj1618/inspector-cli/internal/transport"
)

// Hub multiplexes one connection between concurrent requests and passive
// subscribers. A single pump goroutine reads every message and decodes it
// once. Each message is offered to all subscriptions, then handed to the
// oldest pending request waiting for its type. Requests for different types
// may overlap freely; requests for the same type are answered in the order
// they were sent.
type Hub struct {
	conn Conn
	cfg  config

	sendMu sync.Mutex

	mu      sync.Mutex
	waiters map[protocol.Discriminator][]*waiter
	subs    map[uuid.UUID]*Subscription
	err     error
	done    chan struct{}
}

type waiter struct {
	ch chan reply
}

type reply struct {
	env *protocol.Envelope
	err error
}

// NewHub starts pumping conn. The hub owns conn from here on.
func NewHub(conn Conn, opts ...Option) *Hub {
	h := &Hub{
		conn:    conn,
		cfg:     newConfig(opts),
		waiters: make(map[protocol.Discriminator][]*waiter),
		subs:    make(map[uuid.UUID]*Subscription),
		done:    make(chan struct{}),
	}
	go h.pump()
	return h
}

func (h *Hub) pump() {
	for {
		msg, ok, err := h.conn.Receive(context.Background(), h.cfg.slice)
		if err != nil {
			h.shutdown(err)
			return
		}
		if !ok {
			continue
		}
		env, err := protocol.Decode(msg.Data)
		if err != nil {
			h.cfg.log.Debug().Err(err).Int("bytes", len(msg.Data)).Msg("discarding undecodable message")
			continue
		}
		h.dispatch(env)
	}
}

func (h *Hub) dispatch(env *protocol.Envelope) {
	h.mu.Lock()
	for _, sub := range h.subs {
		sub.offer(env)
	}
	var w *waiter
	if queue := h.waiters[env.Type]; len(queue) > 0 {
		w = queue[0]
		h.waiters[env.Type] = queue[1:]
	}
	h.mu.Unlock()

	if w != nil {
		w.ch <- reply{env: env}
	}
}

// Request sends cmd and waits up to timeout for the response type it
// expects. The waiter is registered before the command is written so a fast
// reply cannot be missed.
func (h *Hub) Request(ctx context.Context, cmd protocol.Command, timeout time.Duration) (*protocol.Envelope, error) {
	payload, err := protocol.Encode(cmd)
	if err != nil {
		return nil, err
	}
	expected := cmd.Expect()
	w := &waiter{ch: make(chan reply, 1)}

	h.sendMu.Lock()
	if err := h.register(expected, w); err != nil {
		h.sendMu.Unlock()
		return nil, err
	}
	h.cfg.log.Debug().Str("command", cmd.Name()).Stringer("expect", expected).Msg("request")
	if err := h.conn.Send(ctx, payload); err != nil {
		h.unregister(expected, w)
		h.sendMu.Unlock()
		return nil, err
	}
	h.sendMu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-w.ch:
		return r.env, r.err
	case <-timer.C:
		if r, ok := h.abandon(expected, w); ok {
			return r.env, r.err
		}
		return nil, fmt.Errorf("%w: no %s within %s", ErrCorrelationTimeout, expected, timeout)
	case <-ctx.Done():
		if r, ok := h.abandon(expected, w); ok {
			return r.env, r.err
		}
		return nil, ctx.Err()
	}
}

// abandon removes w. If a reply was delivered in the meantime it is returned.
func (h *Hub) abandon(d protocol.Discriminator, w *waiter) (reply, bool) {
	if h.unregister(d, w) {
		return reply{}, false
	}
	return <-w.ch, true
}

func (h *Hub) register(d protocol.Discriminator, w *waiter) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.isDone() {
		return h.closedErr()
	}
	h.waiters[d] = append(h.waiters[d], w)
	return nil
}

func (h *Hub) unregister(d protocol.Discriminator, w *waiter) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	queue := h.waiters[d]
	for i, candidate := range queue {
		if candidate == w {
			h.waiters[d] = append(queue[:i:i], queue[i+1:]...)
			return true
		}
	}
	return false
}

// Pending returns the number of requests waiting for a response.
func (h *Hub) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, q := range h.waiters {
		n += len(q)
	}
	return n
}

// Subscribe returns a subscription receiving every decoded message, or only
// the listed types. A subscriber that falls behind loses messages rather
// than stalling the hub.
func (h *Hub) Subscribe(types ...protocol.Discriminator) *Subscription {
	sub := &Subscription{
		ID:  uuid.New(),
		hub: h,
		ch:  make(chan *protocol.Envelope, h.cfg.buffer),
	}
	if len(types) > 0 {
		sub.types = make(map[protocol.Discriminator]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}
	sub.C = sub.ch

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.isDone() {
		close(sub.ch)
		return sub
	}
	h.subs[sub.ID] = sub
	return sub
}

func (h *Hub) unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(sub.ch)
	}
}

// Done is closed once the connection has ended.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Err returns the error that ended the hub, or nil while it runs.
func (h *Hub) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Close closes the connection. Pending requests fail with
// transport.ErrClosed and subscription channels are closed.
func (h *Hub) Close() error {
	err := h.conn.Close()
	<-h.done
	return err
}

func (h *Hub) shutdown(cause error) {
	if !errors.Is(cause, transport.ErrClosed) {
		cause = fmt.Errorf("%w: %w", transport.ErrClosed, cause)
	}

	h.mu.Lock()
	h.err = cause
	close(h.done)
	waiters := h.waiters
	h.waiters = make(map[protocol.Discriminator][]*waiter)
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
	h.mu.Unlock()

	for _, queue := range waiters {
		for _, w := range queue {
			w.ch <- reply{err: cause}
		}
	}
	h.cfg.log.Debug().Err(cause).Msg("hub stopped")
}

func (h *Hub) isDone() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *Hub) closedErr() error {
	if h.err != nil {
		return h.err
	}
	return transport.ErrClosed
}

// Subscription is a stream of messages from a Hub.
type Subscription struct {
	ID uuid.UUID
	// C is closed when the subscription or the hub is closed.
	C <-chan *protocol.Envelope

	hub     *Hub
	ch      chan *protocol.Envelope
	types   map[protocol.Discriminator]bool
	dropped atomic.Int64
}

// offer is called with the hub lock held.
func (s *Subscription) offer(env *protocol.Envelope) {
	if s.types != nil && !s.types[env.Type] {
		return
	}
	select {
	case s.ch <- env:
	default:
		s.dropped.Add(1)
	}
}

// Dropped returns how many messages were lost because C was full.
func (s *Subscription) Dropped() int64 { return s.dropped.Load() }

// Close stops delivery and closes C.
func (s *Subscription) Close() {
	s.hub.unsubscribe(s.ID)
}
