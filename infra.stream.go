package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Supported stream kinds.
const (
	StreamKindWebsocket = "websocket"
	StreamKindRedis     = "redis"
	StreamKindKafka     = "kafka"
)

// StreamHandler is notified by a receiver about the connection lifecycle
// and about each payload received. Payloads are delivered one at a time
// in arrival order.
type StreamHandler interface {
	HandlePayload(ctx context.Context, payload []byte)
	Connected(kind, source string)
	Disconnected(kind, source string, err error)
}

// StreamReceiver delivers the payloads of a single connection to a handler.
// Receive blocks until the connection is closed by the remote side or the
// context is done. It never reconnects.
type StreamReceiver interface {
	Receive(ctx context.Context, h StreamHandler) error
	Kind() string
}

// NewStreamReceiver builds the receiver configured by the stream kind.
func NewStreamReceiver(logger *zap.Logger, config *Config) (StreamReceiver, func() error, error) {
	noop := func() error { return nil }
	switch config.Stream.Kind {
	case StreamKindWebsocket, "":
		return NewWebsocketReceiver(logger, &config.Stream), noop, nil
	case StreamKindRedis:
		client, err := GetRedisClient(&config.Redis)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to redis server: %w", err)
		}
		return NewRedisReceiver(logger, client, config.Redis.Channel), client.Close, nil
	case StreamKindKafka:
		r := NewKafkaReceiver(logger, &config.Kafka)
		return r, r.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown stream kind %q", config.Stream.Kind)
	}
}
