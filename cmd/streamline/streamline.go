// Package streamlinecmder is the root command of the streamline CLI.
package streamlinecmder

import (
	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/streamline/cmd/streamline/chat"
	configcmder "github.com/papercomputeco/streamline/cmd/streamline/config"
	historycmder "github.com/papercomputeco/streamline/cmd/streamline/history"
	initcmder "github.com/papercomputeco/streamline/cmd/streamline/init"
	servecmder "github.com/papercomputeco/streamline/cmd/streamline/serve"
	tailcmder "github.com/papercomputeco/streamline/cmd/streamline/tail"
	versioncmder "github.com/papercomputeco/streamline/cmd/version"
)

const streamlineLongDesc string = `Streamline is a terminal client for streamed chat replies and live logs.

Talk to a chat endpoint and follow a log stream using:
  streamline chat      Chat with streamed, throttled rendering
  streamline tail      Follow a log stream, reconnecting on failure
  streamline serve     Run a development server for both endpoints
  streamline history   Inspect conversations the server remembers

Set up a .streamline/ directory for per-project config with "streamline init".`

const streamlineShortDesc string = "Streamline - streamed chat and live logs"

func NewStreamlineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "streamline",
		Short:        streamlineShortDesc,
		Long:         streamlineLongDesc,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .streamline/ config directory")

	// Add subcommands
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(tailcmder.NewTailCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(historycmder.NewHistoryCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
