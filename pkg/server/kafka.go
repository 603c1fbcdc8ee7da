package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/papercomputeco/streamline/pkg/logger"
)

// messageReader is the subset of *kafka.Reader KafkaSource uses.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaConfig configures a KafkaSource.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Logger  *slog.Logger
}

// KafkaSource follows a Kafka topic from its latest offset. Every message
// value is split into lines.
type KafkaSource struct {
	brokers   []string
	topic     string
	logger    *slog.Logger
	newReader func() messageReader
}

// NewKafkaSource returns a KafkaSource for cfg.
func NewKafkaSource(cfg KafkaConfig) (*KafkaSource, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka log source requires at least one broker")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka log source requires a topic")
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	s := &KafkaSource{
		brokers: cfg.Brokers,
		topic:   cfg.Topic,
		logger:  cfg.Logger,
	}
	s.newReader = func() messageReader {
		// No GroupID: each subscriber reads the partition independently,
		// starting at the newest message.
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:     s.brokers,
			Topic:       s.topic,
			StartOffset: kafka.LastOffset,
			MinBytes:    1,
			MaxBytes:    1 << 20,
		})
	}
	return s, nil
}

// ParseBrokers splits a comma-separated broker list, dropping blanks.
func ParseBrokers(list string) []string {
	var brokers []string
	for _, b := range strings.Split(list, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func (k *KafkaSource) Follow(ctx context.Context) (<-chan string, error) {
	r := k.newReader()
	out := make(chan string)

	go func() {
		defer close(out)
		defer r.Close()

		for {
			msg, err := r.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() == nil {
					k.logger.Error("reading kafka topic", "topic", k.topic, "error", err)
				}
				return
			}

			value := strings.TrimRight(string(msg.Value), "\r\n")
			for _, line := range strings.Split(value, "\n") {
				select {
				case out <- strings.TrimSuffix(line, "\r"):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (k *KafkaSource) String() string {
	return fmt.Sprintf("kafka://%s/%s", strings.Join(k.brokers, ","), k.topic)
}
