package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/amirasaad/payconsole/pkg/eventbus"
	"github.com/redis/go-redis/v9"
)

// RedisEventBus publishes events on a single Redis stream and consumes them
// through a consumer group. Every console instance should use its own group
// so that each one sees every invalidation.
type RedisEventBus struct {
	client   *redis.Client
	stream   string
	group    string
	consumer string
	logger   *slog.Logger

	handlers map[eventbus.EventType][]eventbus.HandlerFunc
	mu       sync.RWMutex

	startOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewWithRedis creates a Redis-backed event bus on an existing client.
func NewWithRedis(client *redis.Client, stream, group string, logger *slog.Logger) (*RedisEventBus, error) {
	if client == nil || stream == "" || group == "" {
		return nil, fmt.Errorf("redis event bus: client, stream, and group are required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := client.Ping(ctx).Err(); err != nil {
		cancel()
		return nil, fmt.Errorf("redis event bus: connection failed: %w", err)
	}
	// BUSYGROUP is expected when the group already exists
	_ = client.XGroupCreateMkStream(ctx, stream, group, "$").Err()

	host, _ := os.Hostname()
	return &RedisEventBus{
		client:   client,
		stream:   stream,
		group:    group,
		consumer: fmt.Sprintf("consumer-%s-%d", host, time.Now().UnixNano()),
		logger:   logger.With("component", "redis-event-bus"),
		handlers: make(map[eventbus.EventType][]eventbus.HandlerFunc),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Emit publishes an event to the Redis stream.
func (b *RedisEventBus) Emit(ctx context.Context, event eventbus.Event) error {
	envBytes, err := encodeEnvelope(event)
	if err != nil {
		b.logger.Error("failed to encode event", "error", err, "type", event.Type())
		return fmt.Errorf("redis event bus: %w", err)
	}

	if err := b.client.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		Values: map[string]any{"event": string(envBytes)},
	}).Err(); err != nil {
		b.logger.Error("failed to emit event", "error", err, "type", event.Type())
		return fmt.Errorf("redis event bus: emit failed: %w", err)
	}

	b.logger.Debug("event emitted", "type", event.Type())
	return nil
}

// Register adds a handler and starts the consumer loop on first use.
func (b *RedisEventBus) Register(eventType eventbus.EventType, handler eventbus.HandlerFunc) {
	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.mu.Unlock()

	b.startOnce.Do(func() {
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.consume()
		}()
	})
	b.logger.Info("handler registered", "event_type", eventType, "consumer", b.consumer)
}

// Close stops the consumer loop. The client is owned by the caller.
func (b *RedisEventBus) Close() error {
	b.cancel()
	b.wg.Wait()
	return nil
}

func (b *RedisEventBus) consume() {
	for {
		if b.ctx.Err() != nil {
			return
		}
		res, err := b.client.XReadGroup(b.ctx, &redis.XReadGroupArgs{
			Group:    b.group,
			Consumer: b.consumer,
			Streams:  []string{b.stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if b.ctx.Err() != nil {
				return
			}
			b.logger.Error("error reading from stream", "error", err, "consumer", b.consumer)
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				b.handleMessage(msg)
			}
		}
	}
}

func (b *RedisEventBus) handleMessage(msg redis.XMessage) {
	defer func() {
		if err := b.client.XAck(b.ctx, b.stream, b.group, msg.ID).Err(); err != nil {
			b.logger.Error("failed to acknowledge message", "error", err, "msg_id", msg.ID)
		}
	}()

	raw, ok := msg.Values["event"].(string)
	if !ok {
		return
	}
	eventType, evt, err := decodeEnvelope([]byte(raw))
	if err != nil {
		b.logger.Error("failed to decode event", "error", err, "msg_id", msg.ID)
		b.pushToDLQ(msg.Values)
		return
	}

	b.mu.RLock()
	handlers := append([]eventbus.HandlerFunc{}, b.handlers[eventType]...)
	b.mu.RUnlock()
	if len(handlers) == 0 {
		return
	}

	if !runHandlers(b.ctx, b.logger, eventType, evt, handlers, msg.ID) {
		b.pushToDLQ(msg.Values)
	}
}

// pushToDLQ copies the raw message to "<stream>-DLQ" for inspection.
func (b *RedisEventBus) pushToDLQ(values map[string]any) {
	dlqStream := b.stream + "-DLQ"
	if err := b.client.XAdd(b.ctx, &redis.XAddArgs{
		Stream: dlqStream,
		Values: values,
	}).Err(); err != nil {
		b.logger.Error("failed to push to DLQ", "error", err, "stream", dlqStream)
		return
	}
	b.logger.Warn("event pushed to DLQ", "stream", dlqStream)
}

var _ eventbus.Bus = (*RedisEventBus)(nil)
