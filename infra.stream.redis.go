package main

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var _ StreamReceiver = (*redisReceiver)(nil)

// redisReceiver reads shelf messages published on a redis channel.
type redisReceiver struct {
	logger  *zap.Logger
	client  *redis.Client
	channel string
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(config.Host, config.Port),
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		PoolSize:     config.PoolSize,
		PoolTimeout:  config.PoolTimeout,
		Password:     config.Password,
		Username:     config.Username,
		DB:           config.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// NewRedisReceiver provides a pub/sub based receiver.
func NewRedisReceiver(logger *zap.Logger, client *redis.Client, channel string) StreamReceiver {
	return &redisReceiver{
		logger:  logger,
		client:  client,
		channel: channel,
	}
}

func (rr *redisReceiver) Kind() string {
	return StreamKindRedis
}

// Receive subscribes to the channel and hands every published message
// to the handler until the context is done or the subscription ends.
func (rr *redisReceiver) Receive(ctx context.Context, h StreamHandler) error {
	pubsub := rr.client.Subscribe(ctx, rr.channel)
	defer pubsub.Close()

	// wait for the subscription confirmation.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("redis: failed to subscribe to %s: %w", rr.channel, err)
	}
	h.Connected(rr.Kind(), rr.channel)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			h.Disconnected(rr.Kind(), rr.channel, nil)
			return nil
		case msg, ok := <-ch:
			if !ok {
				h.Disconnected(rr.Kind(), rr.channel, errors.New("subscription closed"))
				return nil
			}
			h.HandlePayload(ctx, []byte(msg.Payload))
		}
	}
}
