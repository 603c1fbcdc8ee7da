package chatcmder

import (
	"io"

	"github.com/papercomputeco/streamline/pkg/chat"
	"github.com/papercomputeco/streamline/pkg/cliui"
	"github.com/papercomputeco/streamline/pkg/render"
)

// newRenderer returns the sink for one reply. Markdown is redrawn in place,
// which only works on a terminal; anywhere else replies stream as plain text.
func (c *chatCommander) newRenderer(out io.Writer) chat.Renderer {
	if !c.markdown || !cliui.IsTerminal(out) {
		io.WriteString(out, assistantPrompt)
		return render.NewDelta(out)
	}

	wrap := min(cliui.Width(out), render.DefaultWordWrap)
	md, err := render.NewMarkdown(out,
		render.WithWordWrap(wrap),
		render.WithHeight(cliui.Height(out)),
	)
	if err != nil {
		c.logger.Warn("markdown rendering unavailable", "error", err)
		io.WriteString(out, assistantPrompt)
		return render.NewDelta(out)
	}

	io.WriteString(out, assistantPrompt+"\n")
	return md
}
