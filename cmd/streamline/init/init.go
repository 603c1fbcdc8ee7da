// Package initcmder provides the init command for initializing a local
// .streamline directory in the current working directory.
package initcmder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/streamline/pkg/cliui"
	"github.com/papercomputeco/streamline/pkg/config"
	"github.com/papercomputeco/streamline/pkg/dotdir"
)

// maxRemoteConfig bounds the size of a fetched config.toml.
const maxRemoteConfig = 64 * 1024

const initLongDesc string = `Initialize a new .streamline/ directory in the current working directory.

Creates a local .streamline/ directory that takes precedence over the default
~/.streamline/ directory for configuration and the saved chat conversation.
A config.toml with default values is written unless one already exists.

Use --preset to start from a named preset (echo, ollama) or from a
config.toml fetched over HTTP. A preset always overwrites config.toml.

Examples:
  streamline init
  streamline init --preset ollama
  streamline init --preset https://example.com/streamline/config.toml`

const initShortDesc string = "Initialize a local .streamline/ directory"

type initCommander struct {
	preset string
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "",
		fmt.Sprintf("Preset name (%s) or URL of a config.toml", strings.Join(config.ValidPresetNames(), ", ")))

	return cmd
}

func (c *initCommander) run(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	// Resolve the preset before touching the filesystem so a bad preset
	// leaves nothing behind.
	var cfg *config.Config
	if c.preset != "" {
		cfg, err = c.loadPreset(ctx, out)
		if err != nil {
			return err
		}
	}

	dir, existed, err := dotdir.NewManager().Init(cwd)
	if err != nil {
		return err
	}

	if existed {
		fmt.Fprintf(out, "  %s Already initialized: %s\n", cliui.DimStyle.Render("●"), dir)
	} else {
		fmt.Fprintf(out, "  %s Initialized .streamline directory: %s\n", cliui.SuccessMark, dir)
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if cfg == nil {
		if _, err := os.Stat(cfger.GetTarget()); err == nil {
			return nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("reading config: %w", err)
		}
		cfg = config.NewDefaultConfig()
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(out, "  %s Wrote %s\n", cliui.SuccessMark, filepath.Base(cfger.GetTarget()))
	return nil
}

func (c *initCommander) loadPreset(ctx context.Context, out io.Writer) (*config.Config, error) {
	if !strings.HasPrefix(c.preset, "http://") && !strings.HasPrefix(c.preset, "https://") {
		return config.PresetConfig(c.preset)
	}

	var cfg *config.Config
	err := cliui.Step(out, "Fetching "+c.preset, func() error {
		var err error
		cfg, err = fetchRemoteConfig(ctx, c.preset)
		return err
	})
	return cfg, err
}

func fetchRemoteConfig(ctx context.Context, url string) (*config.Config, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching remote config: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteConfig))
	if err != nil {
		return nil, fmt.Errorf("fetching remote config: %w", err)
	}

	return config.ParseConfigTOML(data)
}
