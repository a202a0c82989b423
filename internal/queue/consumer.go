package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"trackerbot.app/relay/common/logger"
)

type ConsumerConfig struct {
	Stream    string
	Group     string
	Consumer  string
	DLQStream string
	BatchSize int64
	// Block is passed to XREADGROUP. Negative omits BLOCK and returns immediately.
	Block       time.Duration
	MaxAttempts int
	// RequeueDelay is waited before a failed task is appended again.
	RequeueDelay time.Duration
}

// Message is a decoded task together with its stream bookkeeping.
type Message struct {
	ID         string
	TaskType   TaskType
	TelegramID string
	Attempt    int
	TraceID    string
	Raw        redis.XMessage
}

// MessageProcessor processes a queue message.
type MessageProcessor func(ctx context.Context, msg Message) error

// RedisConsumer reads tasks through a consumer group. Entries it reads stay pending
// until acked; a crashed worker's entries are recovered by the reclaimer.
type RedisConsumer struct {
	client redis.UniversalClient
	cfg    ConsumerConfig
}

func NewRedisConsumer(ctx context.Context, client redis.UniversalClient, cfg ConsumerConfig) (*RedisConsumer, error) {
	// "0" so tasks enqueued before the first worker started are still delivered.
	err := client.XGroupCreateMkStream(ctx, cfg.Stream, cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("creating consumer group %s: %w", cfg.Group, err)
	}
	return &RedisConsumer{client: client, cfg: cfg}, nil
}

func (c *RedisConsumer) Config() ConsumerConfig {
	return c.cfg
}

// Read returns the next batch of never-delivered tasks. Malformed entries are logged and acked.
func (c *RedisConsumer) Read(ctx context.Context) ([]Message, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "tracker.queue.consumer"})

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		Streams:  []string{c.cfg.Stream, ">"},
		Count:    c.cfg.BatchSize,
		Block:    c.cfg.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return []Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading from stream: %w", err)
	}

	messages := make([]Message, 0)
	for _, stream := range streams {
		for _, entry := range stream.Messages {
			msg, parseErr := ParseMessage(entry)
			if parseErr != nil {
				slog.ErrorContext(ctx, "dropping malformed task",
					"error", parseErr,
					"raw_message_id", entry.ID,
					"stream", c.cfg.Stream)
				_ = c.Ack(ctx, Message{ID: entry.ID, Raw: entry})
				continue
			}
			messages = append(messages, msg)
		}
	}

	if len(messages) > 0 {
		slog.DebugContext(ctx, "read tasks", "count", len(messages), "consumer", c.cfg.Consumer)
	}
	return messages, nil
}

func (c *RedisConsumer) Ack(ctx context.Context, msg Message) error {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, msg.ID).Err(); err != nil {
		return fmt.Errorf("xack %s: %w", c.cfg.Stream, err)
	}
	return nil
}

// Requeue acks the message and appends a copy with the attempt counter bumped.
func (c *RedisConsumer) Requeue(ctx context.Context, msg Message, errMsg string) error {
	values := encodeFields(msg.TaskType, msg.TelegramID, msg.TraceID, msg.Attempt+1)
	if errMsg != "" {
		values[fieldLastError] = errMsg
	}

	if c.cfg.RequeueDelay > 0 {
		timer := time.NewTimer(c.cfg.RequeueDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	if err := c.forward(ctx, msg, c.cfg.Stream, values); err != nil {
		return fmt.Errorf("requeue: %w", err)
	}
	slog.InfoContext(ctx, "task requeued", "next_attempt", msg.Attempt+1, "reason", errMsg)
	return nil
}

// SendDLQ acks the message and parks a copy on the dead letter stream.
func (c *RedisConsumer) SendDLQ(ctx context.Context, msg Message, errMsg string) error {
	values := encodeFields(msg.TaskType, msg.TelegramID, msg.TraceID, msg.Attempt)
	values[fieldError] = errMsg

	if err := c.forward(ctx, msg, c.cfg.DLQStream, values); err != nil {
		return fmt.Errorf("dead letter: %w", err)
	}
	slog.ErrorContext(ctx, "task moved to dead letter stream",
		"final_error", errMsg,
		"dlq_stream", c.cfg.DLQStream)
	return nil
}

// forward acks msg, then appends values to stream. A failure between the two drops the copy.
func (c *RedisConsumer) forward(ctx context.Context, msg Message, stream string, values map[string]any) error {
	if err := c.Ack(ctx, msg); err != nil {
		return err
	}
	if err := c.client.XAdd(ctx, &redis.XAddArgs{Stream: stream, Values: values}).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", stream, err)
	}
	return nil
}
