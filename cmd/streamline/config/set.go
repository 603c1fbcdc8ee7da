package configcmder

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/streamline/pkg/cliui"
	"github.com/papercomputeco/streamline/pkg/config"
)

const setLongDesc string = `Write a configuration value to config.toml.

The value is checked before it is written: durations use Go syntax such as
100ms or 3s, tail.capacity takes a positive integer and chat.markdown takes
true or false. A STREAMLINE_ environment variable for the same key still
overrides the file; set warns when one is present.

Examples:
  streamline config set client.log_target http://localhost:9000/api/log
  streamline config set tail.reconnect_delay 5s
  streamline config set chat.markdown true`

const setShortDesc string = "Write a value to config.toml"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(cmd.OutOrStdout(), args[0], args[1], configDir)
		},
		ValidArgsFunction: completeKeys,
	}

	return cmd
}

func runSet(w io.Writer, key, value, configDir string) error {
	if err := checkKey(key); err != nil {
		return err
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfger.GetTarget() == "" {
		return errors.New("no .streamline directory found: run \"streamline init\" first")
	}

	previous, err := cfger.GetConfigValue(key)
	if err != nil {
		return err
	}
	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	printFile(w, cfger.GetTarget())

	fmt.Fprintf(w, "  %s Set %s = %s", cliui.SuccessMark, key, cliui.ValueStyle.Render(value))
	if previous != "" && previous != value {
		fmt.Fprintf(w, " %s", cliui.DimStyle.Render("(was "+previous+")"))
	}
	fmt.Fprintln(w)

	if env := config.EnvVar(key); os.Getenv(env) != "" {
		cliui.Notice(w, nil, fmt.Sprintf("%s is set and overrides this value", env))
	}

	fmt.Fprintln(w)
	return nil
}
