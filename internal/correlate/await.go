// Package correlate matches commands sent to the inspection service with the
// response that answers them, amid unrelated event traffic on the same
// connection.
package correlate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mj1618/inspector-cli/internal/protocol"
	"github.com/mj1618/inspector-cli/internal/transport"
)

// ErrCorrelationTimeout is returned when no matching response arrived
// before the deadline. The command may still have been executed.
var ErrCorrelationTimeout = errors.New("correlation timeout")

// DefaultSlice bounds each blocking receive so the deadline is re-checked
// between them.
const DefaultSlice = 2 * time.Second

// Receiver is the inbound half of a session.
type Receiver interface {
	Receive(ctx context.Context, timeout time.Duration) (transport.Message, bool, error)
}

// Sender is the outbound half of a session.
type Sender interface {
	Send(ctx context.Context, payload []byte) error
}

// Conn is a full session. *transport.Session implements it.
type Conn interface {
	Sender
	Receiver
	Close() error
}

// Requester sends a command and returns the message that answers it.
type Requester interface {
	Request(ctx context.Context, cmd protocol.Command, timeout time.Duration) (*protocol.Envelope, error)
}

type config struct {
	slice  time.Duration
	log    zerolog.Logger
	buffer int
}

func newConfig(opts []Option) config {
	cfg := config{slice: DefaultSlice, log: zerolog.Nop(), buffer: 256}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.slice <= 0 {
		cfg.slice = DefaultSlice
	}
	return cfg
}

// Option configures Await, Correlator and Hub.
type Option func(*config)

// WithSlice sets the per-receive wait.
func WithSlice(d time.Duration) Option {
	return func(c *config) { c.slice = d }
}

// WithLogger sets the logger for discarded and undecodable messages.
func WithLogger(log zerolog.Logger) Option {
	return func(c *config) { c.log = log }
}

// WithSubscriptionBuffer sets the channel size of Hub subscriptions.
func WithSubscriptionBuffer(n int) Option {
	return func(c *config) { c.buffer = n }
}

// Await receives from r until a message classified as expected arrives, and
// returns it. Messages of any other type, and payloads that fail to decode,
// are dropped. Each receive waits at most one slice, so the call returns
// ErrCorrelationTimeout no earlier than timeout and less than one slice
// after it. Receive errors, such as transport.ErrClosed, are returned as is,
// and cancelling ctx ends a receive in progress.
//
// Await consumes the stream: only one Await may run per connection.
func Await(ctx context.Context, r Receiver, expected protocol.Discriminator, timeout time.Duration, opts ...Option) (*protocol.Envelope, error) {
	cfg := newConfig(opts)
	return await(ctx, r, expected, timeout, cfg)
}

func await(ctx context.Context, r Receiver, expected protocol.Discriminator, timeout time.Duration, cfg config) (*protocol.Envelope, error) {
	start := time.Now()
	deadline := start.Add(timeout)
	discarded := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			cfg.log.Debug().
				Stringer("expected", expected).
				Int("discarded", discarded).
				Dur("elapsed", time.Since(start)).
				Msg("no matching response")
			return nil, fmt.Errorf("%w: no %s within %s", ErrCorrelationTimeout, expected, timeout)
		}

		msg, ok, err := r.Receive(ctx, min(cfg.slice, remaining))
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		env, err := protocol.Decode(msg.Data)
		if err != nil {
			discarded++
			cfg.log.Debug().Err(err).Int("bytes", len(msg.Data)).Msg("discarding undecodable message")
			continue
		}
		if env.Type == expected {
			cfg.log.Trace().
				Stringer("type", env.Type).
				Int("discarded", discarded).
				Dur("elapsed", time.Since(start)).
				Msg("matched response")
			return env, nil
		}
		discarded++
		cfg.log.Trace().Stringer("type", env.Type).Stringer("expected", expected).Msg("discarding message")
	}
}
