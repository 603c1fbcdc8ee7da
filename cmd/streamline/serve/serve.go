// Package servecmder provides the serve command, a development server for the
// chat and log stream endpoints.
package servecmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/streamline/pkg/cliui"
	"github.com/papercomputeco/streamline/pkg/config"
	"github.com/papercomputeco/streamline/pkg/eventstream"
	"github.com/papercomputeco/streamline/pkg/eventstream/kafka"
	"github.com/papercomputeco/streamline/pkg/logger"
	"github.com/papercomputeco/streamline/pkg/server"
)

type ServeCommander struct {
	listen       string
	responder    string
	upstream     string
	model        string
	echoDelay    time.Duration
	logSource    string
	logFile      string
	kafkaBrokers string
	kafkaTopic   string
	eventsTopic  string
	debug        bool

	logger *slog.Logger
}

const serveLongDesc string = `Run a development server for streamline clients.

Endpoints:
  GET    /api/chat?id=<id>&message=<text>   Stream a reply, one data: line per piece
  GET    /api/log                           Stream live log lines
  GET    /api/history[?id=<id>]             List conversations or show one
  DELETE /api/history?id=<id>               Forget a conversation
  GET    /ping                              Health check

Responders:
  echo     Replays the message back word by word (default)
  ollama   Relays replies from an Ollama server

Log sources:
  file     Follows the server's own log file (default)
  kafka    Follows a Kafka topic

With --events-topic, every finished reply is published to Kafka as a
streamline.turn.completed event.

Examples:
  streamline serve
  streamline serve --responder ollama --model llama3.2
  streamline serve --log-source kafka --kafka-brokers localhost:9092 --kafka-topic app-logs`

const serveShortDesc string = "Run the development server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	registryKeys := []string{
		config.FlagListen,
		config.FlagResponder,
		config.FlagUpstream,
		config.FlagModel,
		config.FlagEchoDelay,
		config.FlagLogSource,
		config.FlagLogFile,
		config.FlagKafkaBrokers,
		config.FlagKafkaTopic,
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Registry, registryKeys)

			cmder.listen = v.GetString("server.listen")
			cmder.responder = v.GetString("server.responder")
			cmder.upstream = v.GetString("server.upstream")
			cmder.model = v.GetString("server.model")
			cmder.echoDelay = v.GetDuration("server.echo_delay")
			cmder.logSource = v.GetString("server.log_source")
			cmder.logFile = v.GetString("server.log_file")
			cmder.kafkaBrokers = v.GetString("server.kafka_brokers")
			cmder.kafkaTopic = v.GetString("server.kafka_topic")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, config.Registry, config.FlagResponder, &cmder.responder)
	config.AddStringFlag(cmd, config.Registry, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, config.Registry, config.FlagModel, &cmder.model)
	config.AddDurationFlag(cmd, config.Registry, config.FlagEchoDelay, &cmder.echoDelay)
	config.AddStringFlag(cmd, config.Registry, config.FlagLogSource, &cmder.logSource)
	config.AddStringFlag(cmd, config.Registry, config.FlagLogFile, &cmder.logFile)
	config.AddStringFlag(cmd, config.Registry, config.FlagKafkaBrokers, &cmder.kafkaBrokers)
	config.AddStringFlag(cmd, config.Registry, config.FlagKafkaTopic, &cmder.kafkaTopic)
	cmd.Flags().StringVar(&cmder.eventsTopic, "events-topic", "", "Kafka topic to publish finished replies to")

	return cmd
}

func (c *ServeCommander) run(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	closeLog, err := c.setupLogger(out)
	if err != nil {
		return err
	}
	defer closeLog()

	responder, err := c.newResponder(ctx, out)
	if err != nil {
		return err
	}

	logs, err := c.newLogSource()
	if err != nil {
		return err
	}

	publisher, err := c.newPublisher()
	if err != nil {
		return err
	}

	srv, err := server.New(server.Config{
		ListenAddr: c.listen,
		Responder:  responder,
		Logs:       logs,
		Publisher:  publisher,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	listener, err := net.Listen("tcp", c.listen)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", c.listen, err)
	}

	fmt.Fprintf(out, "\n  %s %s %s\n\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render("Listening on"),
		cliui.NameStyle.Render(listener.Addr().String()),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.RunWithListener(listener); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case err := <-errChan:
		return errors.Join(err, srv.Shutdown())
	case <-ctx.Done():
		c.logger.Info("shutting down")
		return srv.Shutdown()
	}
}

// setupLogger logs to out and, for the file log source, as JSON to the log
// file that /api/log follows.
func (c *ServeCommander) setupLogger(out io.Writer) (func(), error) {
	console := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(out),
	)

	if c.logSource != "file" {
		c.logger = console
		return func() {}, nil
	}

	if c.logFile == "" {
		return nil, errors.New("the file log source requires --log-file")
	}
	if err := os.MkdirAll(filepath.Dir(c.logFile), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	c.logger = logger.Multi(
		console,
		logger.New(
			logger.WithDebug(c.debug),
			logger.WithJSON(true),
			logger.WithWriter(f),
			logger.WithComponent("server"),
		),
	)

	return func() { _ = f.Close() }, nil
}

func (c *ServeCommander) newResponder(ctx context.Context, out io.Writer) (server.Responder, error) {
	switch strings.ToLower(c.responder) {
	case "echo":
		return server.NewEcho(c.echoDelay, nil), nil

	case "ollama":
		o, err := server.NewOllama(server.OllamaConfig{
			Upstream: c.upstream,
			Model:    c.model,
			Logger:   c.logger,
		})
		if err != nil {
			return nil, err
		}

		err = cliui.Step(out, fmt.Sprintf("Reaching ollama at %s", c.upstream), func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return o.Ping(pingCtx)
		})
		if err != nil {
			return nil, fmt.Errorf("ollama unreachable: %w", err)
		}
		return o, nil

	default:
		return nil, fmt.Errorf("unknown responder: %q (available: echo, ollama)", c.responder)
	}
}

func (c *ServeCommander) newLogSource() (server.LogSource, error) {
	switch strings.ToLower(c.logSource) {
	case "file":
		return server.NewFileSource(c.logFile, c.logger), nil

	case "kafka":
		src, err := server.NewKafkaSource(server.KafkaConfig{
			Brokers: server.ParseBrokers(c.kafkaBrokers),
			Topic:   c.kafkaTopic,
			Logger:  c.logger,
		})
		if err != nil {
			return nil, err
		}
		c.logger.Info("following kafka topic", "topic", c.kafkaTopic, "brokers", c.kafkaBrokers)
		return src, nil

	default:
		return nil, fmt.Errorf("unknown log source: %q (available: file, kafka)", c.logSource)
	}
}

// newPublisher returns nil, which the server treats as no-op, unless an
// events topic is set.
func (c *ServeCommander) newPublisher() (eventstream.Publisher, error) {
	if c.eventsTopic == "" {
		return nil, nil
	}

	p, err := kafka.NewPublisher(kafka.Config{
		Brokers: server.ParseBrokers(c.kafkaBrokers),
		Topic:   c.eventsTopic,
		Logger:  c.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating event publisher: %w", err)
	}

	c.logger.Info("publishing turn events", "topic", c.eventsTopic)
	return p, nil
}
