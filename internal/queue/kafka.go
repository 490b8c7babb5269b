package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strconv"

	"github.com/segmentio/kafka-go"

	"task-manager/internal/errs"
	"task-manager/internal/metrics"
	"task-manager/internal/models"
	"task-manager/pkg/logger"
)

// EnsureTopic creates the notification topic with the given partitions (idempotent).
// Call at startup; if it fails (e.g. no broker or topic exists), the app still runs.
func EnsureTopic(ctx context.Context, brokers []string, topic string, partitions int) {
	if len(brokers) == 0 {
		return
	}
	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		logger.Debug(ctx, "Kafka dial for topic creation failed", "error", err)
		return
	}
	defer conn.Close()
	controller, err := conn.Controller()
	if err != nil {
		logger.Debug(ctx, "Kafka controller lookup failed", "error", err)
		return
	}
	ctrlConn, err := kafka.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		logger.Debug(ctx, "Kafka controller dial failed", "error", err)
		return
	}
	defer ctrlConn.Close()
	err = ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Debug(ctx, "Kafka create topic failed (topic may already exist)", "error", err)
		return
	}
	logger.Info(ctx, "Kafka topic ensured", "topic", topic, "partitions", partitions)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher is the Kafka outbox for due notices. It implements notify.Notifier.
// Writes are synchronous so a broker failure reaches the sweep as a delivery error.
type Publisher struct {
	w     messageWriter
	topic string
}

// NewPublisher builds a writer for topic on brokers.
func NewPublisher(ctx context.Context, brokers []string, topic string) *Publisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    1,
		RequiredAcks: kafka.RequireOne,
	}
	logger.Info(ctx, "Kafka producer initialized", "topic", topic, "brokers", brokers)
	return &Publisher{w: w, topic: topic}
}

// Notify publishes the notice keyed by owner id, so one owner's notices stay ordered.
func (p *Publisher) Notify(ctx context.Context, n models.DueNotice) error {
	payload, err := EncodeNotice(n)
	if err != nil {
		return fmt.Errorf("%w: %w", errs.ErrDelivery, err)
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.OwnerID.String()),
		Value: payload,
	})
	metrics.Notifications.WithLabelValues("kafka", metrics.Outcome(err)).Inc()
	if err != nil {
		return fmt.Errorf("%w: publish to %s: %w", errs.ErrDelivery, p.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.w.Close()
}

// EncodeNotice serializes a notice for the topic.
func EncodeNotice(n models.DueNotice) ([]byte, error) {
	return json.Marshal(n)
}

// DecodeNotice parses a topic message.
func DecodeNotice(b []byte) (models.DueNotice, error) {
	var n models.DueNotice
	if err := json.Unmarshal(b, &n); err != nil {
		return models.DueNotice{}, fmt.Errorf("decode due notice: %w", err)
	}
	return n, nil
}
