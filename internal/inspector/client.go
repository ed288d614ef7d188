// Package inspector implements the commands of the inspection service on
// top of a correlate.Requester.
package inspector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mj1618/inspector-cli/internal/correlate"
	"github.com/mj1618/inspector-cli/internal/model"
	"github.com/mj1618/inspector-cli/internal/protocol"
)

// DefaultTimeout is how long a command waits for its response.
const DefaultTimeout = 10 * time.Second

// ErrNotFound is returned when a lookup that must match one node matches
// none.
var ErrNotFound = errors.New("not found")

// Client sends typed commands and decodes their responses.
type Client struct {
	req      correlate.Requester
	timeout  time.Duration
	strict   bool
	log      zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-command response timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithStrictValidation rejects commands that fail Validate instead of
// sending them. By default such commands are logged and sent, and the service
// reports the problem in its own response.
func WithStrictValidation() Option {
	return func(c *Client) { c.strict = true }
}

// WithLogger sets the client logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a client sending through req.
func New(req correlate.Requester, opts ...Option) *Client {
	c := &Client{req: req, timeout: DefaultTimeout, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do validates and sends cmd and returns the raw response.
func (c *Client) Do(ctx context.Context, cmd protocol.Command) (*protocol.Envelope, error) {
	if err := cmd.Validate(); err != nil {
		if c.strict {
			return nil, err
		}
		c.log.Warn().Err(err).Str("command", cmd.Name()).Msg("sending command that fails local validation")
	}
	start := time.Now()
	env, err := c.req.Request(ctx, cmd, c.timeout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	c.log.Debug().Str("command", cmd.Name()).Dur("took", time.Since(start)).Msg("response")
	return env, nil
}

// Ping returns the round-trip time of a ping.
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if _, err := c.Do(ctx, protocol.Ping{}); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// Find runs any find command.
func (c *Client) Find(ctx context.Context, query protocol.Command) (*protocol.FindResult, error) {
	if query.Expect() != protocol.TypeFindResult {
		return nil, fmt.Errorf("%w: %s is not a find command", protocol.ErrInvalidCommand, query.Name())
	}
	env, err := c.Do(ctx, query)
	if err != nil {
		return nil, err
	}
	return env.FindResult()
}

// PerformAction runs an accessibility action. A result with Success false
// is returned without error.
func (c *Client) PerformAction(ctx context.Context, action protocol.PerformAction) (*protocol.Result, error) {
	return c.result(ctx, action)
}

// PerformGesture dispatches a gesture.
func (c *Client) PerformGesture(ctx context.Context, gesture protocol.PerformGesture) (*protocol.Result, error) {
	return c.result(ctx, gesture)
}

// Launch starts an app, activity or intent.
func (c *Client) Launch(ctx context.Context, launch protocol.LaunchActivity) (*protocol.Result, error) {
	return c.result(ctx, launch)
}

func (c *Client) result(ctx context.Context, cmd protocol.Command) (*protocol.Result, error) {
	env, err := c.Do(ctx, cmd)
	if err != nil {
		return nil, err
	}
	return env.Result()
}

// CaptureOptions selects which nodes a capture returns.
type CaptureOptions struct {
	// NotImportant includes views not marked important for accessibility.
	NotImportant bool
	// VisibleOnly asks the service for visible nodes only, and filters the
	// returned tree again in case the service ignored the flag.
	VisibleOnly bool
}

// Capture requests a full tree.
func (c *Client) Capture(ctx context.Context, opts CaptureOptions) (*model.Tree, error) {
	env, err := c.Do(ctx, protocol.Capture{VisibleOnly: opts.VisibleOnly, NotImportant: opts.NotImportant})
	if err != nil {
		return nil, err
	}
	tree, err := env.Tree()
	if err != nil {
		return nil, err
	}
	if opts.VisibleOnly {
		tree.Windows = model.FilterVisible(tree.Windows)
	}
	if tree.Windows == nil {
		tree.Windows = []model.Node{}
	}
	return tree, nil
}
