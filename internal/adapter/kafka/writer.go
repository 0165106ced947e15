package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/nws-alert-map/internal/config"
	"github.com/couchcryptid/nws-alert-map/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer produces one message per enriched alert record to a Kafka topic.
// It implements pipeline.Publisher; raw snapshots are ignored.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes every record of an enriched snapshot and writes them in
// a single WriteMessages call.
func (w *Writer) Publish(ctx context.Context, snap domain.Snapshot) error {
	if snap.Stage != domain.StageEnriched || len(snap.Alerts) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snap.Alerts))
	for i := range snap.Alerts {
		msg, err := serializeToMessage(snap, snap.Alerts[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d alert messages: %w", len(msgs), err)
	}
	w.logger.Debug("alerts published to kafka", "run_id", snap.RunID, "messages", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an alert record into a Kafka message keyed by
// alert and zone, so updates to the same record land on one partition.
func serializeToMessage(snap domain.Snapshot, alert domain.Alert) (kafkago.Message, error) {
	data, err := json.Marshal(alert)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert %s: %w", alert.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(domain.RecordKey(alert)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(snap.RunID)},
			{Key: "event", Value: []byte(alert.Properties.Event)},
			{Key: "relevant_colour", Value: []byte(alert.RelevantColour)},
			{Key: "generated_at", Value: []byte(snap.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
