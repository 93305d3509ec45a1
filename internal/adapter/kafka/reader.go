package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/aurora-sight/internal/config"
	"github.com/couchcryptid/aurora-sight/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Reader consumes forecast messages from a Kafka topic.
// It implements engine.SnapshotSource.
type Reader struct {
	reader *kafkago.Reader
	logger *slog.Logger
}

// NewReader creates a Kafka consumer for the configured forecast topic.
func NewReader(cfg *config.Config, logger *slog.Logger) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		Topic:    cfg.KafkaForecastTopic,
		GroupID:  cfg.KafkaGroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
	return &Reader{reader: r, logger: logger}
}

// Extract fetches the next raw forecast message. Offsets are not
// auto-committed; the engine commits through the snapshot's Commit function
// once the message has been fully processed.
func (r *Reader) Extract(ctx context.Context) (domain.RawSnapshot, error) {
	msg, err := r.reader.FetchMessage(ctx)
	if err != nil {
		return domain.RawSnapshot{}, fmt.Errorf("fetch forecast message: %w", err)
	}

	raw := mapMessageToRawSnapshot(msg)
	raw.Commit = func(ctx context.Context) error {
		return r.reader.CommitMessages(ctx, msg)
	}
	return raw, nil
}

func (r *Reader) Close() error {
	return r.reader.Close()
}

// mapMessageToRawSnapshot converts a Kafka message into a domain RawSnapshot.
func mapMessageToRawSnapshot(msg kafkago.Message) domain.RawSnapshot {
	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	return domain.RawSnapshot{
		Key:       msg.Key,
		Value:     msg.Value,
		Headers:   headers,
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Timestamp: msg.Time,
	}
}
