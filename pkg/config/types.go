package config

import (
	"fmt"
	"strconv"
	"time"
)

// Config represents the persistent streamline configuration stored as
// config.toml in the .streamline/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version int          `toml:"version"`
	Client  ClientConfig `toml:"client"`
	Chat    ChatConfig   `toml:"chat"`
	Tail    TailConfig   `toml:"tail"`
	Server  ServerConfig `toml:"server"`
}

// ClientConfig holds the endpoints the chat and tail commands connect to.
// Values are full URLs (scheme + host + port + path).
type ClientConfig struct {
	ChatTarget string `toml:"chat_target,omitempty"`
	LogTarget  string `toml:"log_target,omitempty"`
}

// ChatConfig holds settings for rendering streamed chat replies.
type ChatConfig struct {
	RenderWindow Duration `toml:"render_window"`
	Markdown     bool     `toml:"markdown,omitempty"`
}

// TailConfig holds settings for the reconnecting log tail.
type TailConfig struct {
	Capacity       int      `toml:"capacity,omitempty"`
	ReconnectDelay Duration `toml:"reconnect_delay"`
}

// ServerConfig holds settings for the development server.
type ServerConfig struct {
	Listen    string   `toml:"listen,omitempty"`
	Responder string   `toml:"responder,omitempty"`
	Upstream  string   `toml:"upstream,omitempty"`
	Model     string   `toml:"model,omitempty"`
	EchoDelay Duration `toml:"echo_delay"`

	LogSource    string `toml:"log_source,omitempty"`
	LogFile      string `toml:"log_file,omitempty"`
	KafkaBrokers string `toml:"kafka_brokers,omitempty"`
	KafkaTopic   string `toml:"kafka_topic,omitempty"`
}

// Duration is a time.Duration stored in TOML as a Go duration string such
// as "100ms".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func durationKey(key string, field func(c *Config) *Duration) configKeyInfo {
	return configKeyInfo{
		get: func(c *Config) string { return field(c).String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			if d < 0 {
				return fmt.Errorf("invalid value for %s: must not be negative", key)
			}
			field(c).Duration = d
			return nil
		},
	}
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"client.chat_target": {
		get: func(c *Config) string { return c.Client.ChatTarget },
		set: func(c *Config, v string) error { c.Client.ChatTarget = v; return nil },
	},
	"client.log_target": {
		get: func(c *Config) string { return c.Client.LogTarget },
		set: func(c *Config, v string) error { c.Client.LogTarget = v; return nil },
	},
	"chat.render_window": durationKey("chat.render_window", func(c *Config) *Duration { return &c.Chat.RenderWindow }),
	"chat.markdown": {
		get: func(c *Config) string { return strconv.FormatBool(c.Chat.Markdown) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for chat.markdown: %w", err)
			}
			c.Chat.Markdown = b
			return nil
		},
	},
	"tail.capacity": {
		get: func(c *Config) string {
			if c.Tail.Capacity == 0 {
				return ""
			}
			return strconv.Itoa(c.Tail.Capacity)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 31)
			if err != nil {
				return fmt.Errorf("invalid value for tail.capacity: %w", err)
			}
			c.Tail.Capacity = int(n)
			return nil
		},
	},
	"tail.reconnect_delay": durationKey("tail.reconnect_delay", func(c *Config) *Duration { return &c.Tail.ReconnectDelay }),
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"server.responder": {
		get: func(c *Config) string { return c.Server.Responder },
		set: func(c *Config, v string) error { c.Server.Responder = v; return nil },
	},
	"server.upstream": {
		get: func(c *Config) string { return c.Server.Upstream },
		set: func(c *Config, v string) error { c.Server.Upstream = v; return nil },
	},
	"server.model": {
		get: func(c *Config) string { return c.Server.Model },
		set: func(c *Config, v string) error { c.Server.Model = v; return nil },
	},
	"server.echo_delay": durationKey("server.echo_delay", func(c *Config) *Duration { return &c.Server.EchoDelay }),
	"server.log_source": {
		get: func(c *Config) string { return c.Server.LogSource },
		set: func(c *Config, v string) error { c.Server.LogSource = v; return nil },
	},
	"server.log_file": {
		get: func(c *Config) string { return c.Server.LogFile },
		set: func(c *Config, v string) error { c.Server.LogFile = v; return nil },
	},
	"server.kafka_brokers": {
		get: func(c *Config) string { return c.Server.KafkaBrokers },
		set: func(c *Config, v string) error { c.Server.KafkaBrokers = v; return nil },
	},
	"server.kafka_topic": {
		get: func(c *Config) string { return c.Server.KafkaTopic },
		set: func(c *Config, v string) error { c.Server.KafkaTopic = v; return nil },
	},
}
