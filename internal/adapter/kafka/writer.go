package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/aurora-sight/internal/config"
	"github.com/couchcryptid/aurora-sight/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces outlook messages to a Kafka topic.
// It implements engine.OutlookPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured outlook topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaOutlookTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes one computed outlook and writes it to the outlook topic.
func (w *Writer) Publish(ctx context.Context, outlook domain.Outlook) error {
	msg, err := serializeToMessage(outlook)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an Outlook into a Kafka message. The forecast
// time keys the message so replays of the same forecast land in the same
// partition.
func serializeToMessage(outlook domain.Outlook) (kafkago.Message, error) {
	data, err := json.Marshal(outlook)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize outlook: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(outlook.ForecastTime.Format(time.RFC3339)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "computed_at", Value: []byte(outlook.ComputedAt.Format(time.RFC3339))},
			{Key: "highlights", Value: []byte(strconv.Itoa(len(outlook.Highlights)))},
		},
	}, nil
}
