// Package chatcmder provides the chat command for interactive chat against a
// streaming chat endpoint.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/streamline/pkg/chat"
	"github.com/papercomputeco/streamline/pkg/cliui"
	"github.com/papercomputeco/streamline/pkg/config"
	"github.com/papercomputeco/streamline/pkg/dotdir"
	"github.com/papercomputeco/streamline/pkg/logger"
	"github.com/papercomputeco/streamline/pkg/transport"
	"github.com/papercomputeco/streamline/pkg/utils"
)

var (
	userPrompt      = cliui.PromptStyle.Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("assistant> ")
)

type chatCommander struct {
	target       string
	renderWindow time.Duration
	markdown     bool
	resume       bool
	configDir    string
	debug        bool

	logger *slog.Logger
	ddm    *dotdir.Manager
}

const chatLongDesc string = `Start an interactive chat session against a streaming chat endpoint.

Each message is sent as GET <target>?id=<conversation>&message=<text> and the
reply is rendered while it streams in, at most once per render window.
Press Ctrl+C while a reply is streaming to stop it; the partial reply is
kept. Press Ctrl+C at the prompt, type /exit, or send EOF to quit.

Commands:
  /new     Start a new conversation
  /exit    Quit

The conversation id is saved in the .streamline/ directory, when one exists,
so "streamline chat --resume" continues the last conversation.

Examples:
  streamline chat
  streamline chat --target http://localhost:8080/api/chat --markdown
  streamline chat --resume`

const chatShortDesc string = "Interactive chat with streamed replies"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	registryKeys := []string{
		config.FlagChatTarget,
		config.FlagRenderWindow,
		config.FlagMarkdown,
	}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Registry, registryKeys)

			cmder.target = v.GetString("client.chat_target")
			cmder.renderWindow = v.GetDuration("chat.render_window")
			cmder.markdown = v.GetBool("chat.markdown")
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			return cmder.run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagChatTarget, &cmder.target)
	config.AddDurationFlag(cmd, config.Registry, config.FlagRenderWindow, &cmder.renderWindow)
	config.AddBoolFlag(cmd, config.Registry, config.FlagMarkdown, &cmder.markdown)
	cmd.Flags().BoolVar(&cmder.resume, "resume", false, "Continue the last saved conversation")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	c.logger = logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
		logger.WithWriter(errOut),
	)
	c.ddm = dotdir.NewManager()

	id, err := c.resumeID(out)
	if err != nil {
		return err
	}

	conv, err := chat.NewConversation(chat.ConversationConfig{
		Target:       c.target,
		ID:           id,
		Transport:    transport.NewHTTP(transport.WithLogger(c.logger)),
		RenderWindow: c.renderWindow,
		Logger:       c.logger,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "  %s %s\n\n",
		cliui.KeyStyle.Render("Target:"),
		cliui.NameStyle.Render(c.target),
	)
	fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /new starts over, /exit or Ctrl+D quits."))

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	defer signal.Stop(interrupts)

	quit := make(chan struct{})
	defer close(quit)
	lines, scanErr := readLines(in, quit)

	for {
		fmt.Fprint(out, userPrompt)

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return nil
		case <-interrupts:
			fmt.Fprintln(out)
			return nil
		case line, ok = <-lines:
		}
		if !ok {
			break
		}

		input := strings.TrimSpace(line)
		switch input {
		case "":
			continue
		case "/exit":
			fmt.Fprintln(out)
			return nil
		case "/new":
			conv.Reset()
			if err := c.ddm.ClearResumeState(c.configDir); err != nil {
				c.logger.Warn("clearing resume state", "error", err)
			}
			fmt.Fprintf(out, "  %s New conversation %s\n\n",
				cliui.SuccessMark,
				cliui.DimStyle.Render(utils.Truncate(conv.ID(), 8)),
			)
			continue
		}

		c.reply(ctx, conv, input, interrupts, out, errOut)
		c.saveResumeState(conv.ID())
	}

	if err := <-scanErr; err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	fmt.Fprintln(out)
	return nil
}

// reply streams one answer. An interrupt while it streams cancels only the
// reply, not the chat.
func (c *chatCommander) reply(ctx context.Context, conv *chat.Conversation, input string, interrupts <-chan os.Signal, out, errOut io.Writer) {
	renderer := c.newRenderer(out)

	res, err := awaitReply(interrupts, conv.Cancel, func() (chat.Result, error) {
		return conv.Send(ctx, input, renderer)
	})

	switch {
	case err != nil:
		cliui.Notice(errOut, err, "reply failed")
	case res.State == chat.Cancelled:
		cliui.Notice(errOut, nil, "reply interrupted")
	case res.Frames == 0:
		cliui.Notice(errOut, nil, "empty reply")
	}

	c.logger.Debug("reply finished",
		"state", res.State.String(),
		"frames", res.Frames,
		"renders", res.Renders,
	)

	fmt.Fprint(out, "\n\n")
}

// awaitReply runs send and turns interrupts into cancel until it returns.
// Interrupts are only read while send runs, so one arriving afterwards is
// left for the prompt.
func awaitReply(interrupts <-chan os.Signal, cancel func(), send func() (chat.Result, error)) (chat.Result, error) {
	type sent struct {
		res chat.Result
		err error
	}

	done := make(chan sent, 1)
	go func() {
		res, err := send()
		done <- sent{res: res, err: err}
	}()

	for {
		select {
		case <-interrupts:
			cancel()
		case s := <-done:
			return s.res, s.err
		}
	}
}

func (c *chatCommander) resumeID(out io.Writer) (string, error) {
	if !c.resume {
		fmt.Fprintf(out, "\n  %s New conversation\n", cliui.DimStyle.Render("●"))
		return "", nil
	}

	state, err := c.ddm.LoadResumeState(c.configDir)
	if err != nil {
		return "", fmt.Errorf("loading resume state: %w", err)
	}

	if state == nil || state.ConversationID == "" {
		fmt.Fprintf(out, "\n  %s\n", cliui.DimStyle.Render("No saved conversation. Starting a new one."))
		return "", nil
	}

	if state.Target != c.target {
		fmt.Fprintf(out, "\n  %s %s\n",
			cliui.WarnStyle.Render("!"),
			cliui.DimStyle.Render(fmt.Sprintf("Saved conversation was held against %s. Starting a new one.", state.Target)),
		)
		return "", nil
	}

	fmt.Fprintf(out, "\n  %s Resuming %s %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(utils.Truncate(state.ConversationID, 8)),
		cliui.DimStyle.Render(fmt.Sprintf("(last active %s)", state.UpdatedAt.Local().Format(time.DateTime))),
	)
	return state.ConversationID, nil
}

func (c *chatCommander) saveResumeState(id string) {
	target, err := c.ddm.Target(c.configDir)
	if err != nil || target == "" {
		return
	}

	err = c.ddm.SaveResumeState(&dotdir.ResumeState{
		ConversationID: id,
		Target:         c.target,
		UpdatedAt:      time.Now().UTC(),
	}, c.configDir)
	if err != nil {
		c.logger.Warn("saving resume state", "error", err)
	}
}

// readLines scans in on its own goroutine so the prompt can also wait on
// interrupts. The error channel yields once lines is closed at end of input.
// Closing quit stops the goroutine at its next line.
func readLines(in io.Reader, quit <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errs := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-quit:
				return
			}
		}
		errs <- scanner.Err()
	}()

	return lines, errs
}
