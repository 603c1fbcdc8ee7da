// Package historycmder provides the history command for inspecting the
// conversations a development server remembers.
package historycmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/streamline/pkg/cliui"
	"github.com/papercomputeco/streamline/pkg/config"
	"github.com/papercomputeco/streamline/pkg/dotdir"
	"github.com/papercomputeco/streamline/pkg/server"
)

const historyPath = "/api/history"

type historyCommander struct {
	target    string
	configDir string
	delete    bool
	raw       bool

	client *http.Client
}

const historyLongDesc string = `Inspect conversations remembered by a streamline server.

Without arguments, lists the conversation ids the server holds. The
conversation saved for "streamline chat --resume" is marked. With an id,
prints that conversation; use "last" for the saved conversation.

The history endpoint is found next to the chat endpoint: a chat target of
http://localhost:8080/api/chat reads http://localhost:8080/api/history.

Examples:
  streamline history
  streamline history last
  streamline history 4f1c2a7e-... --delete`

const historyShortDesc string = "Inspect server-side conversation history"

func NewHistoryCmd() *cobra.Command {
	cmder := &historyCommander{
		client: &http.Client{Timeout: 10 * time.Second},
	}

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: historyShortDesc,
		Long:  historyLongDesc,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			config.BindRegisteredFlags(v, cmd, config.Registry, []string{config.FlagChatTarget})
			cmder.target = v.GetString("client.chat_target")
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			id := ""
			if len(args) == 1 {
				id = args[0]
			}
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), id)
		},
	}

	config.AddStringFlag(cmd, config.Registry, config.FlagChatTarget, &cmder.target)
	cmd.Flags().BoolVar(&cmder.delete, "delete", false, "Forget the conversation")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print messages without markdown rendering")

	return cmd
}

func (c *historyCommander) run(ctx context.Context, w io.Writer, id string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint, err := historyURL(c.target)
	if err != nil {
		return err
	}

	saved, err := dotdir.NewManager().LoadResumeState(c.configDir)
	if err != nil {
		return fmt.Errorf("loading resume state: %w", err)
	}
	savedID := ""
	if saved != nil {
		savedID = saved.ConversationID
	}

	if id == "last" {
		if savedID == "" {
			return errors.New("no saved conversation")
		}
		id = savedID
	}

	switch {
	case id == "" && c.delete:
		return errors.New("--delete requires a conversation id")
	case id == "":
		return c.list(ctx, w, endpoint, savedID)
	case c.delete:
		return c.remove(ctx, w, endpoint, id)
	default:
		return c.show(ctx, w, endpoint, id)
	}
}

func (c *historyCommander) list(ctx context.Context, w io.Writer, endpoint, savedID string) error {
	var resp server.HistoryListResponse
	if err := c.do(ctx, http.MethodGet, endpoint, &resp); err != nil {
		return err
	}

	if len(resp.IDs) == 0 {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No conversations."))
		return nil
	}

	fmt.Fprintln(w)
	for _, id := range resp.IDs {
		mark := " "
		if id == savedID {
			mark = cliui.SuccessMark
		}
		fmt.Fprintf(w, "  %s %s\n", mark, cliui.NameStyle.Render(id))
	}
	fmt.Fprintln(w)
	return nil
}

func (c *historyCommander) show(ctx context.Context, w io.Writer, endpoint, id string) error {
	var resp server.HistoryResponse
	if err := c.do(ctx, http.MethodGet, withID(endpoint, id), &resp); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n  %s %s %s\n\n",
		cliui.KeyStyle.Render("Conversation"),
		cliui.NameStyle.Render(resp.Conversation.ID),
		cliui.DimStyle.Render(fmt.Sprintf("(%d messages)", len(resp.Conversation.Messages))),
	)

	for _, msg := range resp.Conversation.Messages {
		fmt.Fprintf(w, "  %s\n", cliui.KeyStyle.Render(msg.Role+":"))

		content := msg.Content
		if !c.raw && msg.Role == "assistant" {
			// RenderMarkdown hands back the raw content when glamour fails.
			content, _ = cliui.RenderMarkdown(msg.Content, cliui.Width(w))
		}
		fmt.Fprintln(w, strings.TrimRight(content, "\n"))
		fmt.Fprintln(w)
	}
	return nil
}

func (c *historyCommander) remove(ctx context.Context, w io.Writer, endpoint, id string) error {
	var resp server.StatusResponse
	if err := c.do(ctx, http.MethodDelete, withID(endpoint, id), &resp); err != nil {
		return err
	}

	fmt.Fprintf(w, "  %s Forgot %s\n", cliui.SuccessMark, cliui.NameStyle.Render(id))
	return nil
}

// do issues a request and decodes the JSON answer into out. Error answers
// carry a server.ErrorResponse.
func (c *historyCommander) do(ctx context.Context, method, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("requesting history: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr server.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("history: %s", apiErr.Error)
		}
		return fmt.Errorf("history: server returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding history: %w", err)
	}
	return nil
}

// historyURL derives the history endpoint from the chat endpoint.
func historyURL(chatTarget string) (string, error) {
	u, err := url.Parse(chatTarget)
	if err != nil {
		return "", fmt.Errorf("parsing chat target: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("chat target %q is not an absolute URL", chatTarget)
	}

	u.Path = historyPath
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

func withID(endpoint, id string) string {
	return endpoint + "?" + url.Values{"id": {id}}.Encode()
}
