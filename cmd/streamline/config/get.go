package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/streamline/pkg/config"
)

const getLongDesc string = `Show the effective value of a configuration key.

The value is resolved the way chat, tail and serve resolve it: a
STREAMLINE_ environment variable wins over config.toml, which wins over the
built-in default. The layer that supplied the value is shown next to it.

With --value only the value is printed, for use in scripts.

Examples:
  streamline config get client.chat_target
  streamline config get tail.capacity --value`

const getShortDesc string = "Show the effective value of a key"

func newGetCmd() *cobra.Command {
	var valueOnly bool

	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: getShortDesc,
		Long:  getLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runGet(cmd.OutOrStdout(), args[0], configDir, valueOnly)
		},
		ValidArgsFunction: completeKeys,
	}

	cmd.Flags().BoolVar(&valueOnly, "value", false, "Print only the value")

	return cmd
}

func runGet(w io.Writer, key, configDir string, valueOnly bool) error {
	if err := checkKey(key); err != nil {
		return err
	}

	v, path, err := effective(configDir)
	if err != nil {
		return err
	}

	value, origin := config.Effective(v, key)
	if valueOnly {
		fmt.Fprintln(w, value)
		return nil
	}

	printFile(w, path)
	fmt.Fprintf(w, "  %s  %s  %s\n\n", key, renderValue(value), renderOrigin(key, origin))
	return nil
}
