package config

import "time"

const (
	defaultChatTarget = "http://localhost:8080/api/chat"
	defaultLogTarget  = "http://localhost:8080/api/log"

	defaultRenderWindow = 100 * time.Millisecond

	defaultTailCapacity   = 1000
	defaultReconnectDelay = 3 * time.Second

	defaultListen    = ":8080"
	defaultResponder = "echo"
	defaultUpstream  = "http://localhost:11434"
	defaultModel     = "llama3.2"
	defaultEchoDelay = 40 * time.Millisecond
	defaultLogSource = "file"
	defaultLogFile   = "log/streamline.log"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Client: ClientConfig{
			ChatTarget: defaultChatTarget,
			LogTarget:  defaultLogTarget,
		},
		Chat: ChatConfig{
			RenderWindow: Duration{defaultRenderWindow},
		},
		Tail: TailConfig{
			Capacity:       defaultTailCapacity,
			ReconnectDelay: Duration{defaultReconnectDelay},
		},
		Server: ServerConfig{
			Listen:    defaultListen,
			Responder: defaultResponder,
			Upstream:  defaultUpstream,
			Model:     defaultModel,
			EchoDelay: Duration{defaultEchoDelay},
			LogSource: defaultLogSource,
			LogFile:   defaultLogFile,
		},
	}
}
