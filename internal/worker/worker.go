package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"task-manager/internal/notify"
	"task-manager/internal/queue"
	"task-manager/pkg/logger"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Worker consumes due notices from Kafka and delivers them through a notifier.
// One consumer per process; scale by running more replicas (the consumer group shares partitions).
type Worker struct {
	reader     messageReader
	notifier   notify.Notifier
	retryDelay time.Duration
	processed  atomic.Int64
	failed     atomic.Int64
}

const defaultRetryDelay = time.Second

// New builds a consumer-group reader for topic.
func New(brokers []string, topic, groupID string, notifier notify.Notifier) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Worker{reader: reader, notifier: notifier, retryDelay: defaultRetryDelay}
}

// Run blocks until ctx is cancelled, then closes the reader.
func (w *Worker) Run(ctx context.Context) {
	defer w.reader.Close()

	logger.Info(ctx, "Kafka consumer started")
	for {
		msg, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info(ctx, "Kafka consumer stopped", "processed", w.processed.Load(), "failed", w.failed.Load())
				return
			}
			logger.Error(ctx, "Worker fetch failed", "error", err)
			if !w.pause(ctx) {
				return
			}
			continue
		}
		if err := w.handle(ctx, msg.Value); err != nil {
			w.failed.Add(1)
			logger.Error(ctx, "Worker handle failed", "error", err, "partition", msg.Partition, "offset", msg.Offset)
			// Commit anyway to avoid poison pill blocking the partition
			_ = w.reader.CommitMessages(ctx, msg)
			continue
		}
		if err := w.reader.CommitMessages(ctx, msg); err != nil {
			logger.Error(ctx, "Worker commit failed", "error", err)
		}
		w.processed.Add(1)
	}
}

// pause waits before the next fetch after a broker error. It returns false if ctx ended.
func (w *Worker) pause(ctx context.Context) bool {
	d := w.retryDelay
	if d <= 0 {
		d = defaultRetryDelay
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		logger.Info(ctx, "Kafka consumer stopped", "processed", w.processed.Load(), "failed", w.failed.Load())
		return false
	case <-t.C:
		return true
	}
}

// Processed reports how many notices were delivered.
func (w *Worker) Processed() int64 { return w.processed.Load() }

// Failed reports how many notices were dropped after a handle failure.
func (w *Worker) Failed() int64 { return w.failed.Load() }

func (w *Worker) handle(ctx context.Context, payload []byte) error {
	n, err := queue.DecodeNotice(payload)
	if err != nil {
		return err
	}
	return w.notifier.Notify(ctx, n)
}
