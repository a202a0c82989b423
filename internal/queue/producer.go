package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

type Producer interface {
	Enqueue(ctx context.Context, task Task) (string, error)
	Close() error
}

type redisProducer struct {
	client redis.UniversalClient
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client redis.UniversalClient, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

// Enqueue appends the task to the stream and returns the stream entry ID.
func (p *redisProducer) Enqueue(ctx context.Context, task Task) (string, error) {
	if err := validateTask(task.TaskType, task.TelegramID); err != nil {
		return "", err
	}

	traceID := ""
	if task.TraceID != nil {
		traceID = *task.TraceID
	}
	if sc := trace.SpanContextFromContext(ctx); traceID == "" && sc.IsValid() {
		traceID = sc.TraceID().String()
	}
	fields := encodeFields(task.TaskType, task.TelegramID, traceID, task.Attempt)

	id, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Result()
	if err != nil {
		return "", fmt.Errorf("enqueue task: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued task",
		"message_id", id,
		"task_type", task.TaskType,
		"telegram_id", task.TelegramID,
		"attempt", fields[fieldAttempt])
	return id, nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
