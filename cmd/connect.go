package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/mj1618/inspector-cli/internal/correlate"
	"github.com/mj1618/inspector-cli/internal/inspector"
	"github.com/mj1618/inspector-cli/internal/transport"
)

func dial(ctx context.Context) (*transport.Session, error) {
	logger.Debug().Str("url", cfg.Service.URL).Msg("connecting")
	return transport.Dial(ctx, cfg.Service.URL,
		transport.WithReadLimit(cfg.Service.ReadLimit),
		transport.WithLogger(logger),
	)
}

func clientOptions(cmd *cobra.Command) []inspector.Option {
	opts := []inspector.Option{
		inspector.WithTimeout(cfg.Service.Timeout),
		inspector.WithLogger(logger),
	}
	if strict, _ := cmd.Flags().GetBool("strict"); strict {
		opts = append(opts, inspector.WithStrictValidation())
	}
	return opts
}

// connect opens a single-flight client for one-shot commands. The returned
// func closes the connection.
func connect(cmd *cobra.Command) (*inspector.Client, func(), error) {
	sess, err := dial(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	corr := correlate.New(sess,
		correlate.WithSlice(cfg.Service.Slice),
		correlate.WithLogger(logger),
	)
	return inspector.New(corr, clientOptions(cmd)...), func() { corr.Close() }, nil
}

// connectHub opens a client whose connection is shared with subscribers,
// for commands that watch the event stream while sending commands.
func connectHub(cmd *cobra.Command) (*inspector.Client, *correlate.Hub, error) {
	sess, err := dial(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	hub := correlate.NewHub(sess,
		correlate.WithSlice(cfg.Service.Slice),
		correlate.WithLogger(logger),
	)
	return inspector.New(hub, clientOptions(cmd)...), hub, nil
}
