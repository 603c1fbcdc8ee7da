// Package tailcmder provides the tail command for following a live log
// stream.
package tailcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/streamline/pkg/cliui"
	"github.com/papercomputeco/streamline/pkg/config"
	"github.com/papercomputeco/streamline/pkg/logger"
	"github.com/papercomputeco/streamline/pkg/tail"
	"github.com/papercomputeco/streamline/pkg/transport"
)

type tailCommander struct {
	target         string
	capacity       int
	reconnectDelay time.Duration
	plain          bool
	debug          bool

	logger *slog.Logger
}

const tailLongDesc string = `Follow a live log stream.

Connects to the log endpoint and shows every line as it arrives. When the
stream drops, for any reason, tail waits for the reconnect delay and
connects again, indefinitely.

On a terminal the log is shown in a scrollable view that keeps the most
recent lines. New lines scroll the view only while it is at the bottom, so
scrolling up to read history is never interrupted.
  j/k, pgup/pgdown   Scroll
  g/G                Jump to top / bottom
  f                  Pause or resume following
  q                  Quit

Otherwise, or with --plain, lines are written to stdout as they arrive.

Examples:
  streamline tail
  streamline tail --target http://localhost:8080/api/log --capacity 5000
  streamline tail --plain | grep ERROR`

const tailShortDesc string = "Follow a live log stream"

func NewTailCmd() *cobra.Command {
	cmder := &tailCommander{}

	registryKeys := []string{
		config.FlagLogTarget,
		config.FlagCapacity,
		config.FlagReconnectDelay,
	}

	cmd := &cobra.Command{
		Use:   "tail",
		Short: tailShortDesc,
		Long:  tailLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Registry, registryKeys)

			cmder.target = v.GetString("client.log_target")
			cmder.capacity = v.GetInt("tail.capacity")
			cmder.reconnectDelay = v.GetDuration("tail.reconnect_delay")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagLogTarget, &cmder.target)
	config.AddIntFlag(cmd, config.Registry, config.FlagCapacity, &cmder.capacity)
	config.AddDurationFlag(cmd, config.Registry, config.FlagReconnectDelay, &cmder.reconnectDelay)
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Write lines to stdout instead of the interactive view")

	return cmd
}

func (c *tailCommander) run(ctx context.Context, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if c.capacity <= 0 {
		c.capacity = tail.DefaultCapacity
	}

	if !c.plain && cliui.IsTerminal(out) {
		return c.runTUI(ctx)
	}
	return c.runPlain(ctx, out, errOut)
}

func (c *tailCommander) runPlain(ctx context.Context, out, errOut io.Writer) error {
	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(errOut),
	)

	sub := tail.NewSubscriber(tail.Config{
		Transport:  transport.NewHTTP(transport.WithLogger(c.logger)),
		Request:    transport.Get(c.target),
		RetryDelay: c.reconnectDelay,
		Logger:     c.logger,
		Sink: tail.LineSinkFunc(func(text string) {
			fmt.Fprintln(out, text)
		}),
	})

	c.logger.Debug("following log stream", "target", c.target)

	err := sub.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
