// Package versioncmder provides the version command.
package versioncmder

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/streamline/pkg/cliui"
	"github.com/papercomputeco/streamline/pkg/utils"
)

type VersionCommander struct {
	short bool
}

func NewVersionCmd() *cobra.Command {
	cmder := &VersionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "displays version",
		Long:  "displays the version, commit and build time of this CLI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&cmder.short, "short", "s", false, "Print only the version")

	return cmd
}

func (c *VersionCommander) run(w io.Writer) error {
	if c.short {
		fmt.Fprintln(w, utils.Version)
		return nil
	}

	fmt.Fprintf(w, "%s %s\n%s %s\n%s %s\n",
		cliui.KeyStyle.Render("Version:"), cliui.ValueStyle.Render(utils.Version),
		cliui.KeyStyle.Render("Sha:"), cliui.ValueStyle.Render(utils.Sha),
		cliui.KeyStyle.Render("Built at:"), cliui.ValueStyle.Render(utils.Buildtime),
	)
	return nil
}
