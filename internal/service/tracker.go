package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"trackerbot.app/relay/common/id"
	"trackerbot.app/relay/common/logger"
	"trackerbot.app/relay/internal/cache"
	"trackerbot.app/relay/internal/model"
	"trackerbot.app/relay/internal/notify"
	"trackerbot.app/relay/internal/service/issue_tracker"
	"trackerbot.app/relay/internal/store"
	"trackerbot.app/relay/internal/tracker"
)

var (
	// ErrCycleInProgress is returned when another reconciliation cycle holds the lock.
	ErrCycleInProgress = errors.New("reconciliation cycle already in progress")
	// ErrNotificationsDisabled is returned by operations that deliver messages
	// when no Telegram bot is configured.
	ErrNotificationsDisabled = errors.New("telegram notifications are not configured")
)

const cycleLockKey = "lock:" + cache.SnapshotKey

type CycleResult struct {
	NewIssues    model.Snapshot
	Recipients   model.SubscriberRepos
	Delivery     notify.DeliveryReport
	// Skipped lists repositories whose issues could not be fetched this cycle.
	Skipped      []string
	CycleID      int64
	Repositories int
	// Seeded is true when this cycle stored the first baseline and sent nothing.
	Seeded       bool
}

type TrackerService interface {
	RunCycle(ctx context.Context) (*CycleResult, error)
}

type TrackerConfig struct {
	// LockTTL bounds one repository fetch. The cycle lock is extended by
	// LockTTL before every fetch and before the snapshot is saved.
	LockTTL     time.Duration
	Parallelism int
}

type trackerService struct {
	subscribers store.SubscriberStore
	repos       store.RepositoryStore
	source      issue_tracker.IssueTrackerService
	snapshots   *cache.SnapshotCache
	locker      *cache.Locker
	dispatcher  *notify.Dispatcher
	cfg         TrackerConfig
}

func NewTrackerService(
	subscribers store.SubscriberStore,
	repos store.RepositoryStore,
	source issue_tracker.IssueTrackerService,
	snapshots *cache.SnapshotCache,
	locker *cache.Locker,
	dispatcher *notify.Dispatcher,
	cfg TrackerConfig,
) TrackerService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 1
	}
	return &trackerService{
		subscribers: subscribers,
		repos:       repos,
		source:      source,
		snapshots:   snapshots,
		locker:      locker,
		dispatcher:  dispatcher,
		cfg:         cfg,
	}
}

// RunCycle fetches the open issues of every subscribed repository, compares
// them with the cached snapshot and notifies subscribers of new issues.
func (s *trackerService) RunCycle(ctx context.Context) (*CycleResult, error) {
	if s.dispatcher == nil {
		return nil, ErrNotificationsDisabled
	}

	cycleID := id.New()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		CycleID:   &cycleID,
		Component: "tracker.service.cycle",
	})

	lock, err := s.locker.Acquire(ctx, cycleLockKey, s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLockHeld) {
			return nil, ErrCycleInProgress
		}
		return nil, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			slog.WarnContext(ctx, "failed to release cycle lock", "error", err)
		}
	}()

	subs, err := s.subscribers.ListSubscribed(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing subscribed subscribers: %w", err)
	}

	userIDs := make([]int64, 0, len(subs))
	for _, sub := range subs {
		userIDs = append(userIDs, sub.UserID)
	}

	var repos []model.Repository
	if len(userIDs) > 0 {
		repos, err = s.repos.ListByUsers(ctx, userIDs)
		if err != nil {
			return nil, fmt.Errorf("listing subscribed repositories: %w", err)
		}
	}

	current, skipped, err := s.fetchSnapshot(ctx, lock, repos)
	if err != nil {
		return nil, err
	}
	result := &CycleResult{
		CycleID:      cycleID,
		Repositories: len(current),
		Skipped:      skipped,
		NewIssues:    model.Snapshot{},
		Recipients:   model.SubscriberRepos{},
	}

	seeded, err := s.snapshots.Seeded(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking snapshot baseline: %w", err)
	}
	if err := lock.Extend(ctx, s.cfg.LockTTL); err != nil {
		return nil, fmt.Errorf("keeping cycle lock: %w", err)
	}
	if !seeded {
		if err := s.snapshots.Save(ctx, current); err != nil {
			return nil, fmt.Errorf("seeding snapshot: %w", err)
		}
		if err := s.snapshots.MarkSeeded(ctx); err != nil {
			return nil, fmt.Errorf("marking snapshot seeded: %w", err)
		}
		result.Seeded = true
		slog.InfoContext(ctx, "seeded issue snapshot", "repositories", len(current))
		return result, nil
	}

	previous, _, err := s.snapshots.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading previous snapshot: %w", err)
	}

	// Repositories without history are baselined silently.
	comparable := model.Snapshot{}
	for repo, titles := range current {
		if _, ok := previous[repo]; ok {
			comparable[repo] = titles
		}
	}
	result.NewIssues = tracker.DiffSnapshots(comparable, previous)

	// A failed fetch must not look like an empty repository next cycle.
	next := current.Clone()
	for _, repo := range skipped {
		if titles, ok := previous[repo]; ok {
			next[repo] = titles
		}
	}
	if err := s.snapshots.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	result.Recipients = recipientsFor(subs, repos, result.NewIssues)
	if len(result.Recipients) > 0 {
		result.Delivery = s.dispatcher.NotifyNewIssues(ctx, result.Recipients, result.NewIssues)
	}

	slog.InfoContext(ctx, "reconciliation cycle completed",
		"repositories", result.Repositories,
		"skipped", len(result.Skipped),
		"repositories_with_new_issues", len(result.NewIssues),
		"recipients", len(result.Recipients))

	return result, nil
}

// fetchSnapshot collects open issue titles per repository. Repositories whose
// fetch fails are reported as skipped instead of aborting the cycle. Losing the
// cycle lock does abort it.
func (s *trackerService) fetchSnapshot(ctx context.Context, lock *cache.Lock, repos []model.Repository) (model.Snapshot, []string, error) {
	refs := map[string]model.RepositoryRef{}
	for _, r := range repos {
		refs[r.FullName()] = model.RepositoryRef{Author: r.Author, Name: r.Name}
	}

	var (
		mu      sync.Mutex
		skipped []string
	)
	builder := tracker.NewSnapshotBuilder()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Parallelism)
	for name, ref := range refs {
		g.Go(func() error {
			repoCtx := logger.WithLogFields(gctx, logger.LogFields{Repository: &name})
			if err := lock.Extend(repoCtx, s.cfg.LockTTL); err != nil {
				return fmt.Errorf("keeping cycle lock: %w", err)
			}
			issues, err := s.source.ListOpenIssues(repoCtx, ref)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.WarnContext(repoCtx, "skipping repository, failed to list issues", "error", err)
				skipped = append(skipped, name)
				return nil
			}
			builder.Add(name, tracker.OpenIssueTitles(issues))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	slices.Sort(skipped)
	return builder.Build(), skipped, nil
}

// recipientsFor maps each subscriber to the repositories they own that gained issues.
func recipientsFor(subs []model.Subscriber, repos []model.Repository, newIssues model.Snapshot) model.SubscriberRepos {
	owned := map[int64][]string{}
	for _, r := range repos {
		name := r.FullName()
		if _, ok := newIssues[name]; ok {
			owned[r.UserID] = append(owned[r.UserID], name)
		}
	}

	recipients := model.SubscriberRepos{}
	for _, sub := range subs {
		names := owned[sub.UserID]
		if len(names) == 0 {
			continue
		}
		names = slices.Clone(names)
		slices.Sort(names)
		recipients[sub.TelegramID] = slices.Compact(names)
	}
	return recipients
}
