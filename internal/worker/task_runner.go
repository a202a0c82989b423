package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"trackerbot.app/relay/internal/queue"
	"trackerbot.app/relay/internal/service"
)

const statusStreamMaxLen = 2000

type TaskRunnerConfig struct {
	Cycles  CycleRunner
	Digests DigestSender
	// Redis and StatusStream are optional. When both are set every finished task is
	// summarised on the status stream.
	Redis        redis.UniversalClient
	StatusStream string
}

// TaskRunner dispatches queue messages to the tracker services.
type TaskRunner struct {
	cycles       CycleRunner
	digests      DigestSender
	redis        redis.UniversalClient
	statusStream string
}

func NewTaskRunner(cfg TaskRunnerConfig) *TaskRunner {
	return &TaskRunner{
		cycles:       cfg.Cycles,
		digests:      cfg.Digests,
		redis:        cfg.Redis,
		statusStream: cfg.StatusStream,
	}
}

func (r *TaskRunner) Handle(ctx context.Context, msg queue.Message) error {
	switch msg.TaskType {
	case queue.TaskTypeNewIssueScan:
		return r.handleScan(ctx, msg)
	case queue.TaskTypeReviewDigest:
		return r.handleDigest(ctx, msg)
	default:
		return fmt.Errorf("unsupported task type %q", msg.TaskType)
	}
}

func (r *TaskRunner) handleScan(ctx context.Context, msg queue.Message) error {
	result, err := r.cycles.RunCycle(ctx)
	if errors.Is(err, service.ErrCycleInProgress) {
		slog.InfoContext(ctx, "scan skipped, another cycle holds the lock")
		r.emitStatus(ctx, msg, "info", "skipped", nil)
		return nil
	}
	if err != nil {
		r.emitStatus(ctx, msg, "error", err.Error(), nil)
		return fmt.Errorf("running reconciliation cycle: %w", err)
	}

	r.emitStatus(ctx, msg, "info", "completed", map[string]any{
		"cycle_id":     result.CycleID,
		"repositories": result.Repositories,
		"new_issues":   len(result.NewIssues),
		"recipients":   len(result.Recipients),
		"sent":         result.Delivery.Sent,
		"failed":       len(result.Delivery.Failed),
		"skipped":      len(result.Skipped),
		"seeded":       result.Seeded,
	})
	return nil
}

func (r *TaskRunner) handleDigest(ctx context.Context, msg queue.Message) error {
	count, err := r.digests.SendDigest(ctx, msg.TelegramID)
	if errors.Is(err, service.ErrSubscriberNotFound) {
		slog.WarnContext(ctx, "digest requested for unknown subscriber")
		r.emitStatus(ctx, msg, "warn", "subscriber not found", nil)
		return nil
	}
	if err != nil {
		r.emitStatus(ctx, msg, "error", err.Error(), nil)
		return fmt.Errorf("sending review digest: %w", err)
	}

	r.emitStatus(ctx, msg, "info", "completed", map[string]any{"pull_requests": count})
	return nil
}

func (r *TaskRunner) emitStatus(ctx context.Context, msg queue.Message, level string, message string, fields map[string]any) {
	if r.redis == nil || r.statusStream == "" {
		return
	}
	values := map[string]any{
		"message_id": msg.ID,
		"task_type":  string(msg.TaskType),
		"level":      level,
		"message":    message,
		"ts":         time.Now().UTC().Format(time.RFC3339Nano),
	}
	if msg.TelegramID != "" {
		values["telegram_id"] = msg.TelegramID
	}
	for key, value := range fields {
		values[key] = value
	}
	err := r.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: r.statusStream,
		MaxLen: statusStreamMaxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		slog.WarnContext(ctx, "failed to write task status",
			"error", err,
			"stream", r.statusStream,
			"message_id", msg.ID)
	}
}
