package correlate

import (
	"context"
	"sync"
	"time"

	"github.com/mj1618/inspector-cli/internal/protocol"
)

// Correlator sends one command at a time on a connection and awaits its
// response with Await. Messages that arrive while no request is in flight
// are not read, and unrelated messages read during a request are lost.
type Correlator struct {
	conn Conn
	cfg  config
	mu   sync.Mutex
}

// New returns a Correlator over conn.
func New(conn Conn, opts ...Option) *Correlator {
	return &Correlator{conn: conn, cfg: newConfig(opts)}
}

// Request encodes and sends cmd, then awaits the response type cmd expects.
// Concurrent callers are serialised.
func (c *Correlator) Request(ctx context.Context, cmd protocol.Command, timeout time.Duration) (*protocol.Envelope, error) {
	payload, err := protocol.Encode(cmd)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cfg.log.Debug().Str("command", cmd.Name()).Stringer("expect", cmd.Expect()).Msg("request")
	if err := c.conn.Send(ctx, payload); err != nil {
		return nil, err
	}
	return await(ctx, c.conn, cmd.Expect(), timeout, c.cfg)
}

// Close closes the underlying connection.
func (c *Correlator) Close() error {
	return c.conn.Close()
}
