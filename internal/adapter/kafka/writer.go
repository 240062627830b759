package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/agri-risk-service/internal/config"
	"github.com/couchcryptid/agri-risk-service/internal/domain"
	"github.com/couchcryptid/agri-risk-service/internal/workflow"
)

// Writer produces messages to a Kafka topic.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

func newWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// NewResultWriter creates a producer for the configured result topic.
// It implements pipeline.ResultPublisher.
func NewResultWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	return newWriter(cfg.KafkaBrokers, cfg.KafkaResultTopic, logger)
}

// Publish writes one workflow result keyed by task id.
func (w *Writer) Publish(ctx context.Context, result *workflow.Result) error {
	msg, err := serializeResult(result, domain.Now())
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeResult marshals a workflow result into a Kafka message.
func serializeResult(result *workflow.Result, publishedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize workflow result: %w", err)
	}
	key := result.TaskID
	if key == "" {
		key = result.SessionID
	}
	overall := ""
	if result.Forecast != nil {
		overall = result.Forecast.OverallRisk.String()
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(result.Status)},
			{Key: "overall_risk", Value: []byte(overall)},
			{Key: "published_at", Value: []byte(publishedAt.Format(time.RFC3339))},
		},
	}, nil
}

// Notifier publishes farmer notifications to a topic for a downstream mailer.
// It implements domain.Notifier.
type Notifier struct {
	w *Writer
}

// NewNotifier creates a producer for the configured notification topic.
func NewNotifier(cfg *config.Config, logger *slog.Logger) *Notifier {
	return &Notifier{w: newWriter(cfg.KafkaBrokers, cfg.KafkaNotificationTopic, logger)}
}

// Notify writes one notification keyed by recipient.
func (n *Notifier) Notify(ctx context.Context, note domain.Notification) error {
	msg, err := serializeNotification(note)
	if err != nil {
		return err
	}
	if err := n.w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	n.w.logger.Info("notification queued", "recipient", note.Recipient, "subject", note.Subject)
	return nil
}

func (n *Notifier) Close() error {
	return n.w.Close()
}

func serializeNotification(note domain.Notification) (kafkago.Message, error) {
	data, err := json.Marshal(note)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize notification: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(note.Recipient),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "sent_at", Value: []byte(note.SentAt.Format(time.RFC3339))},
		},
	}, nil
}
