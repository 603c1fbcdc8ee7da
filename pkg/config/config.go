package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/streamline/pkg/dotdir"
)

const (
	configFile = "config.toml"

	// v0 is the alpha version of the config
	v0 = 0

	// CurrentV is the currently supported version, points to v0
	CurrentV = v0
)

type Configer struct {
	ddm        *dotdir.Manager
	targetPath string
}

func NewConfiger(override string) (*Configer, error) {
	cfger := &Configer{}

	cfger.ddm = dotdir.NewManager()
	target, err := cfger.ddm.Target(override)
	if err != nil {
		return nil, err
	}

	// Without a resolved .streamline/ directory LoadConfig returns defaults
	// and SaveConfig errors.
	if target == "" {
		return cfger, nil
	}

	path := filepath.Join(target, configFile)
	_, err = os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfger.targetPath = path

	return cfger, nil
}

// orderedKeys lists config keys in TOML section order.
var orderedKeys = []string{
	"client.chat_target",
	"client.log_target",
	"chat.render_window",
	"chat.markdown",
	"tail.capacity",
	"tail.reconnect_delay",
	"server.listen",
	"server.responder",
	"server.upstream",
	"server.model",
	"server.echo_delay",
	"server.log_source",
	"server.log_file",
	"server.kafka_brokers",
	"server.kafka_topic",
}

// ValidConfigKeys returns the list of all supported configuration key names
// in a stable order matching the TOML section layout.
func ValidConfigKeys() []string {
	result := make([]string, 0, len(configKeys))
	seen := make(map[string]bool, len(configKeys))
	for _, k := range orderedKeys {
		if _, ok := configKeys[k]; ok {
			result = append(result, k)
			seen[k] = true
		}
	}

	var rest []string
	for k := range configKeys {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	slices.Sort(rest)

	return append(result, rest...)
}

// DefaultValue returns the built-in default for key, rendered as
// GetConfigValue renders it. Unknown keys yield "".
func DefaultValue(key string) string {
	info, ok := configKeys[key]
	if !ok {
		return ""
	}
	return info.get(NewDefaultConfig())
}

// IsValidConfigKey returns true if the given key is a supported configuration key.
func IsValidConfigKey(key string) bool {
	_, ok := configKeys[key]
	return ok
}

func (c *Configer) GetTarget() string {
	return c.targetPath
}

// LoadConfig loads config.toml from the target .streamline/ directory.
// If the file does not exist it returns NewDefaultConfig(), so callers always
// receive a fully-populated Config. Fields set in the file override defaults.
func (c *Configer) LoadConfig() (*Config, error) {
	if c.targetPath == "" {
		return NewDefaultConfig(), nil
	}

	data, err := os.ReadFile(c.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewDefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	return cfg, nil
}

// applyDefaults fills zero-value fields in cfg with values from NewDefaultConfig().
func applyDefaults(cfg *Config) {
	defaults := NewDefaultConfig()

	if cfg.Version == 0 {
		cfg.Version = defaults.Version
	}

	if cfg.Client.ChatTarget == "" {
		cfg.Client.ChatTarget = defaults.Client.ChatTarget
	}
	if cfg.Client.LogTarget == "" {
		cfg.Client.LogTarget = defaults.Client.LogTarget
	}

	if cfg.Chat.RenderWindow.Duration == 0 {
		cfg.Chat.RenderWindow = defaults.Chat.RenderWindow
	}

	if cfg.Tail.Capacity == 0 {
		cfg.Tail.Capacity = defaults.Tail.Capacity
	}
	if cfg.Tail.ReconnectDelay.Duration == 0 {
		cfg.Tail.ReconnectDelay = defaults.Tail.ReconnectDelay
	}

	if cfg.Server.Listen == "" {
		cfg.Server.Listen = defaults.Server.Listen
	}
	if cfg.Server.Responder == "" {
		cfg.Server.Responder = defaults.Server.Responder
	}
	if cfg.Server.Upstream == "" {
		cfg.Server.Upstream = defaults.Server.Upstream
	}
	if cfg.Server.Model == "" {
		cfg.Server.Model = defaults.Server.Model
	}
	if cfg.Server.EchoDelay.Duration == 0 {
		cfg.Server.EchoDelay = defaults.Server.EchoDelay
	}
	if cfg.Server.LogSource == "" {
		cfg.Server.LogSource = defaults.Server.LogSource
	}
	if cfg.Server.LogFile == "" {
		cfg.Server.LogFile = defaults.Server.LogFile
	}
}

// SaveConfig persists the configuration to config.toml in the target .streamline/ directory.
func (c *Configer) SaveConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("cannot save nil config")
	}

	if c.targetPath == "" {
		return errors.New("cannot save empty target path")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(c.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// SetConfigValue loads the config, sets the given key to the given value, and saves it.
// Returns an error if the key is not a valid config key.
func (c *Configer) SetConfigValue(key string, value string) error {
	info, ok := configKeys[key]
	if !ok {
		return fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return err
	}

	if err := info.set(cfg, value); err != nil {
		return err
	}

	return c.SaveConfig(cfg)
}

// GetConfigValue loads the config and returns the string representation of the given key.
// Returns an error if the key is not a valid config key.
func (c *Configer) GetConfigValue(key string) (string, error) {
	info, ok := configKeys[key]
	if !ok {
		return "", fmt.Errorf("unknown config key: %q", key)
	}

	cfg, err := c.LoadConfig()
	if err != nil {
		return "", err
	}

	return info.get(cfg), nil
}

// PresetConfig returns a Config for the named responder preset.
// Supported presets: "echo", "ollama".
func PresetConfig(name string) (*Config, error) {
	cfg := NewDefaultConfig()

	switch strings.ToLower(name) {
	case "echo":
		cfg.Server.Responder = "echo"
		return cfg, nil

	case "ollama":
		cfg.Server.Responder = "ollama"
		cfg.Server.Upstream = defaultUpstream
		cfg.Server.Model = defaultModel
		cfg.Chat.Markdown = true
		return cfg, nil

	default:
		return nil, fmt.Errorf("unknown preset: %q (available: %s)", name, strings.Join(ValidPresetNames(), ", "))
	}
}

// ValidPresetNames returns the list of recognized preset names.
func ValidPresetNames() []string {
	return []string{"echo", "ollama"}
}

// ParseConfigTOML parses raw TOML bytes into a Config.
// Returns an error if the version field is present and not equal to CurrentV.
func ParseConfigTOML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}

	if cfg.Version != 0 && cfg.Version != CurrentV {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentV)
	}

	return cfg, nil
}
