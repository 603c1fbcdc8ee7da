package configcmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/streamline/pkg/cliui"
	"github.com/papercomputeco/streamline/pkg/config"
)

const listLongDesc string = `List the effective value of every configuration key.

Each key is shown with its value and the layer that supplied it. With
--changed, keys whose value equals the built-in default are left out, even
when config.toml repeats the default.

Examples:
  streamline config list
  streamline config list --changed`

const listShortDesc string = "List every configuration key"

func newListCmd() *cobra.Command {
	var changed bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: listShortDesc,
		Long:  listLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runList(cmd.OutOrStdout(), configDir, changed)
		},
	}

	cmd.Flags().BoolVar(&changed, "changed", false, "Only show keys that differ from the default")

	return cmd
}

func runList(w io.Writer, configDir string, changed bool) error {
	v, path, err := effective(configDir)
	if err != nil {
		return err
	}

	printFile(w, path)

	keys := config.ValidConfigKeys()
	width := 0
	for _, k := range keys {
		width = max(width, len(k))
	}

	shown := 0
	for _, key := range keys {
		value, origin := config.Effective(v, key)
		if changed && value == config.DefaultValue(key) {
			continue
		}
		shown++

		quoted := value
		if value != "" {
			quoted = fmt.Sprintf("%q", value)
		}
		fmt.Fprintf(w, "  %-*s = %s  %s\n", width, key, renderValue(quoted), renderOrigin(key, origin))
	}

	if shown == 0 {
		fmt.Fprintf(w, "  %s\n", cliui.DimStyle.Render("Every key is at its default."))
	}

	fmt.Fprintln(w)
	return nil
}
