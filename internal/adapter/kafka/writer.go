package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/covid-data-etl/internal/config"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// maxMessageBytes bounds one region message before compression. A country
// with several years of daily metrics serializes to a few megabytes.
const maxMessageBytes = 16 << 20

// Writer publishes snapshots to a Kafka topic, one message per region.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		Compression:  kafkago.Zstd,
		BatchBytes:   maxMessageBytes,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes every region of the snapshot and writes them in a
// single WriteMessages call. Messages are keyed by region so a region's
// history always lands on the same partition.
func (w *Writer) Publish(ctx context.Context, snapshot domain.Snapshot) error {
	if len(snapshot.Regions) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snapshot.Regions))
	for i := range snapshot.Regions {
		msg, err := serializeToMessage(snapshot.Regions[i], snapshot.GeneratedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d region messages: %w", len(msgs), err)
	}
	w.logger.Debug("snapshot published", "topic", w.writer.Topic, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a region Model into a Kafka message.
func serializeToMessage(model domain.Model, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(model)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize region %s: %w", model.Key().ID(), err)
	}
	return kafkago.Message{
		Key:   []byte(model.Key().ID()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "country", Value: []byte(model.Country)},
			{Key: "generated_at", Value: []byte(generatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
