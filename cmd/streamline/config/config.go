// Package configcmder provides the config command for managing persistent
// streamline configuration stored in the .streamline/ directory.
package configcmder

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/streamline/pkg/cliui"
	"github.com/papercomputeco/streamline/pkg/config"
)

const configLongDesc string = `Manage persistent streamline configuration.

Configuration is stored as config.toml in the .streamline/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values, and STREAMLINE_ environment variables (for example
STREAMLINE_CLIENT_CHAT_TARGET) take precedence over the file.

Keys use dotted notation matching the TOML section structure:
  client.chat_target, client.log_target,
  chat.render_window, chat.markdown,
  tail.capacity, tail.reconnect_delay,
  server.listen, server.responder, server.upstream, server.model,
  server.echo_delay, server.log_source, server.log_file,
  server.kafka_brokers, server.kafka_topic

get and list show the effective value of a key and where it came from:
the environment, the config file, or the built-in default.

  streamline config set <key> <value>    Write a value to config.toml
  streamline config get <key>            Show the effective value of a key
  streamline config list [--changed]     Show every key

Examples:
  streamline config set client.chat_target http://localhost:9000/api/chat
  streamline config set chat.render_window 50ms
  streamline config get tail.reconnect_delay
  streamline config list`

const configShortDesc string = "Manage persistent streamline configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func completeKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func checkKey(key string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}
	return nil
}

// effective loads the layered config the other commands would see and
// returns it with the config file path, which is empty when no .streamline/
// directory resolves.
func effective(configDir string) (*viper.Viper, string, error) {
	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}

	return v, cfger.GetTarget(), nil
}

func printFile(w io.Writer, path string) {
	if path == "" {
		fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("No .streamline directory. Showing defaults and environment."))
		return
	}
	fmt.Fprintf(w, "\n  %s %s\n\n", cliui.KeyStyle.Render("Config file:"), cliui.DimStyle.Render(path))
}

func renderOrigin(key string, origin config.Origin) string {
	if origin == config.OriginEnv {
		return cliui.WarnStyle.Render("(env " + config.EnvVar(key) + ")")
	}
	return cliui.DimStyle.Render("(" + string(origin) + ")")
}

func renderValue(value string) string {
	if value == "" {
		return cliui.DimStyle.Render("<not set>")
	}
	return cliui.ValueStyle.Render(value)
}
