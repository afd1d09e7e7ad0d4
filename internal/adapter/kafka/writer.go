// Package kafka publishes accepted feedback entries to the export topic
// for downstream analysis.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/air4space/ops-console/internal/config"
	"github.com/air4space/ops-console/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces feedback events to the export topic.
// It implements service.Exporter.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured export topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaExportTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes and publishes one feedback event.
func (w *Writer) Publish(ctx context.Context, event domain.FeedbackEvent) error {
	msg, err := serializeToMessage(event)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a feedback event into a Kafka message keyed
// by date so one day's entries land on one partition in order.
func serializeToMessage(event domain.FeedbackEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize feedback event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.Date),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "entry_id", Value: []byte(strconv.FormatInt(event.Entry.ID, 10))},
			{Key: "impact_level", Value: []byte(event.Entry.ImpactLevel)},
			{Key: "recorded_at", Value: []byte(event.RecordedAt.Format(time.RFC3339))},
		},
	}, nil
}
