package main

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var _ StreamReceiver = (*kafkaReceiver)(nil)

// kafkaRetryDelay is the pause after a failed fetch.
const kafkaRetryDelay = time.Second

// kafkaReader is the part of *kafka.Reader used by the receiver.
type kafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// kafkaReceiver reads shelf messages from a kafka topic.
type kafkaReceiver struct {
	logger     *zap.Logger
	reader     kafkaReader
	topic      string
	commit     bool
	retryDelay time.Duration
}

// NewKafkaReceiver provides a receiver reading the configured topic. Without
// consumer group the reader starts at the end of the topic and does not commit.
func NewKafkaReceiver(logger *zap.Logger, config *KafkaConfig) *kafkaReceiver {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     config.Brokers,
		Topic:       config.Topic,
		GroupID:     config.GroupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})
	if config.GroupID == "" {
		if err := r.SetOffset(kafka.LastOffset); err != nil {
			logger.Warn("kafka: failed to move reader to last offset", zap.Error(err))
		}
	}
	return newKafkaReceiver(logger, r, config.Topic, config.GroupID != "", kafkaRetryDelay)
}

func newKafkaReceiver(logger *zap.Logger, reader kafkaReader, topic string, commit bool, retryDelay time.Duration) *kafkaReceiver {
	return &kafkaReceiver{
		logger:     logger,
		reader:     reader,
		topic:      topic,
		commit:     commit,
		retryDelay: retryDelay,
	}
}

func (kr *kafkaReceiver) Kind() string {
	return StreamKindKafka
}

// Close closes the underlying kafka reader.
func (kr *kafkaReceiver) Close() error {
	return kr.reader.Close()
}

// Receive fetches and handles messages until the context is done or the
// reader is closed. The stream is reported connected from the first fetched
// message and a failed fetch is retried after a pause. Offsets are committed
// once the message is handled.
func (kr *kafkaReceiver) Receive(ctx context.Context, h StreamHandler) error {
	connected := false
	disconnect := func(err error) {
		if connected {
			h.Disconnected(kr.Kind(), kr.topic, err)
		}
	}
	for {
		msg, err := kr.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				disconnect(nil)
				return nil
			}
			if errors.Is(err, io.EOF) {
				disconnect(err)
				return nil
			}
			kr.logger.Error("kafka: failed to fetch message", zap.String("stream.topic", kr.topic), zap.Error(err))
			timer := time.NewTimer(kr.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				disconnect(nil)
				return nil
			case <-timer.C:
			}
			continue
		}

		if !connected {
			connected = true
			h.Connected(kr.Kind(), kr.topic)
		}
		kr.logger.Debug("kafka: message received",
			zap.Int("kafka.partition", msg.Partition),
			zap.Int64("kafka.offset", msg.Offset),
			zap.Int("kafka.size", len(msg.Value)),
		)
		h.HandlePayload(ctx, msg.Value)

		if !kr.commit {
			continue
		}
		if err := kr.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			kr.logger.Error("kafka: failed to commit message",
				zap.Int("kafka.partition", msg.Partition),
				zap.Int64("kafka.offset", msg.Offset),
				zap.Error(err),
			)
		}
	}
}
