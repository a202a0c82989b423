package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"trackerbot.app/relay/common/logger"
	"trackerbot.app/relay/internal/model"
	"trackerbot.app/relay/internal/queue"
)

// SubscriberLister is the slice of service.SubscriberService the scheduler needs.
type SubscriberLister interface {
	List(ctx context.Context) ([]model.Subscriber, error)
}

type Config struct {
	ScanInterval   time.Duration
	DigestInterval time.Duration
}

// Scheduler enqueues periodic scan and digest tasks.
// Ticks only produce tasks; the worker does the work.
type Scheduler struct {
	producer    queue.Producer
	subscribers SubscriberLister
	cfg         Config

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func New(producer queue.Producer, subscribers SubscriberLister, cfg Config) *Scheduler {
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = 5 * time.Minute
	}
	if cfg.DigestInterval <= 0 {
		cfg.DigestInterval = time.Hour
	}
	return &Scheduler{
		producer:    producer,
		subscribers: subscribers,
		cfg:         cfg,
	}
}

// Start launches the ticker loops. A scan is enqueued immediately.
// A stopped scheduler can be started again.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	stopCh := make(chan struct{})
	s.stopCh = stopCh
	s.mu.Unlock()

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "tracker.scheduler",
	})

	slog.InfoContext(ctx, "scheduler starting",
		"scan_interval", s.cfg.ScanInterval,
		"digest_interval", s.cfg.DigestInterval)

	s.wg.Add(2)
	go s.loop(ctx, stopCh, s.cfg.ScanInterval, true, func(ctx context.Context) {
		if err := s.EnqueueScan(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to enqueue scan", "error", err)
		}
	})
	go s.loop(ctx, stopCh, s.cfg.DigestInterval, false, func(ctx context.Context) {
		if _, err := s.EnqueueDigests(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to enqueue digests", "error", err)
		}
	})
}

// Stop halts both loops and waits for them to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stopCh := s.stopCh
	s.mu.Unlock()

	close(stopCh)
	s.wg.Wait()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context, stopCh <-chan struct{}, interval time.Duration, immediate bool, tick func(context.Context)) {
	defer s.wg.Done()

	if immediate {
		tick(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tick(ctx)
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) EnqueueScan(ctx context.Context) error {
	if _, err := s.producer.Enqueue(ctx, queue.NewScanTask()); err != nil {
		return fmt.Errorf("enqueueing scan: %w", err)
	}
	return nil
}

// EnqueueDigests enqueues one review digest per subscriber that has notifications
// enabled and returns how many were queued. A failed enqueue does not stop the rest.
func (s *Scheduler) EnqueueDigests(ctx context.Context) (int, error) {
	subs, err := s.subscribers.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing subscribers: %w", err)
	}

	queued := 0
	for _, sub := range subs {
		if !sub.NotifyAboutNewIssues {
			continue
		}
		if _, err := s.producer.Enqueue(ctx, queue.NewDigestTask(sub.TelegramID)); err != nil {
			slog.WarnContext(ctx, "failed to enqueue digest",
				"telegram_id", sub.TelegramID,
				"error", err)
			continue
		}
		queued++
	}

	slog.DebugContext(ctx, "enqueued review digests", "count", queued)
	return queued, nil
}
