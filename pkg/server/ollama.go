package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/streamline/pkg/logger"
)

// ollamaRequest is the Ollama-native chat request format.
type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ollamaStreamChunk is one NDJSON line of a streaming Ollama chat response.
type ollamaStreamChunk struct {
	Model     string        `json:"model"`
	CreatedAt time.Time     `json:"created_at"`
	Message   ollamaMessage `json:"message"`
	Done      bool          `json:"done"`
	Error     string        `json:"error,omitempty"`
}

// OllamaConfig configures an Ollama responder.
type OllamaConfig struct {
	// Upstream is the Ollama base URL, e.g. http://localhost:11434.
	Upstream string
	Model    string
	Client   *http.Client
	Logger   *slog.Logger
}

// Ollama relays replies from an Ollama server's streaming /api/chat endpoint.
type Ollama struct {
	upstream string
	model    string
	client   *http.Client
	logger   *slog.Logger
}

// NewOllama returns an Ollama responder.
func NewOllama(cfg OllamaConfig) (*Ollama, error) {
	if cfg.Upstream == "" {
		return nil, errors.New("ollama upstream is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("ollama model is required")
	}
	if cfg.Client == nil {
		// Replies stream for as long as the model generates; the request
		// context bounds them instead of a client timeout.
		cfg.Client = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	return &Ollama{
		upstream: strings.TrimRight(cfg.Upstream, "/"),
		model:    cfg.Model,
		client:   cfg.Client,
		logger:   cfg.Logger,
	}, nil
}

func (o *Ollama) Name() string {
	return "ollama"
}

// Model returns the model replies are generated with.
func (o *Ollama) Model() string {
	return o.model
}

// Ping checks that the upstream answers.
func (o *Ollama) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.upstream+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("reaching ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}
	return nil
}

func (o *Ollama) Respond(ctx context.Context, history []Message, message string) (Stream, error) {
	messages := make([]ollamaMessage, 0, len(history)+1)
	for _, m := range history {
		messages = append(messages, ollamaMessage(m))
	}
	messages = append(messages, ollamaMessage{Role: "user", Content: message})

	body, err := json.Marshal(ollamaRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := o.upstream + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	o.logger.Debug("sending chat request to upstream",
		"url", url,
		"model", o.model,
		"message_count", len(messages),
	)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request to ollama: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	return &ollamaStream{body: resp.Body, scanner: scanner, logger: o.logger}, nil
}

type ollamaStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	logger  *slog.Logger
	done    bool
}

func (s *ollamaStream) Recv() (string, error) {
	for !s.done && s.scanner.Scan() {
		line := s.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk ollamaStreamChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			s.logger.Debug("failed to parse stream chunk",
				"error", err,
				"line", string(line),
			)
			continue
		}

		if chunk.Error != "" {
			return "", fmt.Errorf("ollama: %s", chunk.Error)
		}
		if chunk.Done {
			s.done = true
		}
		if chunk.Message.Content != "" {
			return chunk.Message.Content, nil
		}
	}

	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stream: %w", err)
	}
	if !s.done {
		return "", fmt.Errorf("reading stream: %w", io.ErrUnexpectedEOF)
	}
	return "", io.EOF
}

func (s *ollamaStream) Close() error {
	return s.body.Close()
}
