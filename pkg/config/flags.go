package config

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands.
type Flag struct {
	// Name is the long flag name (e.g. "target").
	Name string

	// Shorthand is the one-letter short flag (e.g. "t"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "client.chat_target").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag, AddIntFlag, AddDurationFlag
// and BindRegisteredFlags to avoid drift from one command to another.
const (
	FlagChatTarget     = "chat-target"
	FlagLogTarget      = "log-target"
	FlagRenderWindow   = "render-window"
	FlagMarkdown       = "markdown"
	FlagCapacity       = "capacity"
	FlagReconnectDelay = "reconnect-delay"
	FlagListen         = "listen"
	FlagResponder      = "responder"
	FlagUpstream       = "upstream"
	FlagModel          = "model"
	FlagEchoDelay      = "echo-delay"
	FlagLogSource      = "log-source"
	FlagLogFile        = "log-file"
	FlagKafkaBrokers   = "kafka-brokers"
	FlagKafkaTopic     = "kafka-topic"
)

// Registry holds the definition of every flag that maps to a config key.
// Commands share it so a logical flag looks the same wherever it appears.
var Registry = FlagSet{
	FlagChatTarget: {
		Name:        "target",
		Shorthand:   "t",
		ViperKey:    "client.chat_target",
		Description: "Chat endpoint URL",
	},
	FlagLogTarget: {
		Name:        "target",
		Shorthand:   "t",
		ViperKey:    "client.log_target",
		Description: "Log stream endpoint URL",
	},
	FlagRenderWindow: {
		Name:        "render-window",
		ViperKey:    "chat.render_window",
		Description: "Minimum spacing between renders of a streaming reply",
	},
	FlagMarkdown: {
		Name:        "markdown",
		Shorthand:   "m",
		ViperKey:    "chat.markdown",
		Description: "Render replies as markdown",
	},
	FlagCapacity: {
		Name:        "capacity",
		Shorthand:   "n",
		ViperKey:    "tail.capacity",
		Description: "Number of log lines kept in scrollback",
	},
	FlagReconnectDelay: {
		Name:        "reconnect-delay",
		ViperKey:    "tail.reconnect_delay",
		Description: "Wait before reconnecting a dropped log stream",
	},
	FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "server.listen",
		Description: "Address for the server to listen on",
	},
	FlagResponder: {
		Name:        "responder",
		Shorthand:   "r",
		ViperKey:    "server.responder",
		Description: "Reply backend (echo, ollama)",
	},
	FlagUpstream: {
		Name:        "upstream",
		Shorthand:   "u",
		ViperKey:    "server.upstream",
		Description: "Upstream Ollama URL",
	},
	FlagModel: {
		Name:        "model",
		ViperKey:    "server.model",
		Description: "Model name for the ollama responder",
	},
	FlagEchoDelay: {
		Name:        "echo-delay",
		ViperKey:    "server.echo_delay",
		Description: "Delay between tokens of the echo responder",
	},
	FlagLogSource: {
		Name:        "log-source",
		ViperKey:    "server.log_source",
		Description: "Log stream backend (file, kafka)",
	},
	FlagLogFile: {
		Name:        "log-file",
		ViperKey:    "server.log_file",
		Description: "Log file written by the server and followed by /api/log",
	},
	FlagKafkaBrokers: {
		Name:        "kafka-brokers",
		ViperKey:    "server.kafka_brokers",
		Description: "Comma-separated Kafka broker addresses",
	},
	FlagKafkaTopic: {
		Name:        "kafka-topic",
		ViperKey:    "server.kafka_topic",
		Description: "Kafka topic streamed by /api/log",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetString(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().StringVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().StringVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddIntFlag registers an int flag on cmd from the given FlagSet.
func AddIntFlag(cmd *cobra.Command, fs FlagSet, key string, target *int) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetInt(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().IntVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().IntVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddBoolFlag registers a bool flag on cmd from the given FlagSet.
func AddBoolFlag(cmd *cobra.Command, fs FlagSet, key string, target *bool) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetBool(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().BoolVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().BoolVar(target, def.Name, defaultVal, def.Description)
	}
}

// AddDurationFlag registers a duration flag on cmd from the given FlagSet.
func AddDurationFlag(cmd *cobra.Command, fs FlagSet, key string, target *time.Duration) {
	def, ok := fs[key]
	if !ok {
		return
	}

	defaultVal := defaults().GetDuration(def.ViperKey)
	if def.Shorthand != "" {
		cmd.Flags().DurationVarP(target, def.Name, def.Shorthand, defaultVal, def.Description)
	} else {
		cmd.Flags().DurationVar(target, def.Name, defaultVal, def.Description)
	}
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaults returns a viper holding only the defaults from NewDefaultConfig.
func defaults() *viper.Viper {
	v := viper.New()
	setViperDefaults(v)
	return v
}
