package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"trackerbot.app/relay/common/logger"
	"trackerbot.app/relay/internal/queue"
)

type RedisReclaimerConfig struct {
	Stream   string
	Group    string
	Consumer string
	// MinIdle is how long an entry must sit unacked before another consumer may take it.
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64
}

// FailureHandler decides what happens to a message whose processing failed.
type FailureHandler func(ctx context.Context, msg queue.Message, err error)

// RedisReclaimer takes over tasks that a worker read but never acked, usually
// because the process died mid-cycle.
type RedisReclaimer struct {
	client    redis.UniversalClient
	cfg       RedisReclaimerConfig
	consumer  Consumer
	processor queue.MessageProcessor
	onFailure FailureHandler

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewRedisReclaimer(
	client redis.UniversalClient,
	cfg RedisReclaimerConfig,
	consumer Consumer,
	processor queue.MessageProcessor,
	onFailure FailureHandler,
) *RedisReclaimer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	return &RedisReclaimer{
		client:    client,
		cfg:       cfg,
		consumer:  consumer,
		processor: processor,
		onFailure: onFailure,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run reclaims on every tick until Stop is called or ctx ends.
func (r *RedisReclaimer) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "tracker.worker.reclaimer"})
	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "reclaimer started", "interval", r.cfg.Interval, "min_idle", r.cfg.MinIdle)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			if _, err := r.ReclaimOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "reclaim pass failed", "error", err)
			}
		}
	}
}

func (r *RedisReclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

// ReclaimOnce claims up to BatchSize idle entries with XAUTOCLAIM and processes them.
// It returns how many entries this call took over.
func (r *RedisReclaimer) ReclaimOnce(ctx context.Context) (int, error) {
	claimed, _, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   r.cfg.Stream,
		Group:    r.cfg.Group,
		Consumer: r.cfg.Consumer,
		MinIdle:  r.cfg.MinIdle,
		Start:    "0-0",
		Count:    r.cfg.BatchSize,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("xautoclaim: %w", err)
	}
	if len(claimed) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "claimed stale tasks", "count", len(claimed))
	for _, entry := range claimed {
		r.retake(ctx, entry)
	}
	return len(claimed), nil
}

func (r *RedisReclaimer) retake(ctx context.Context, entry redis.XMessage) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: logger.Ptr(entry.ID)})

	msg, err := queue.ParseMessage(entry)
	if err != nil {
		slog.ErrorContext(ctx, "acking unparseable reclaimed entry", "error", err)
		_ = r.consumer.Ack(ctx, queue.Message{ID: entry.ID, Raw: entry})
		return
	}

	start := time.Now()
	if err := r.processor(ctx, msg); err != nil {
		if r.onFailure != nil {
			r.onFailure(ctx, msg, err)
			return
		}
		// Left pending; the next pass picks it up again once it is idle.
		slog.ErrorContext(ctx, "reclaimed task failed", "error", err)
		return
	}

	slog.InfoContext(ctx, "reclaimed task processed", "duration_ms", time.Since(start).Milliseconds())
}
