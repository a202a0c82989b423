package service

import (
	"trackerbot.app/relay/core/config"
	"trackerbot.app/relay/internal/cache"
	"trackerbot.app/relay/internal/notify"
	"trackerbot.app/relay/internal/service/issue_tracker"
	"trackerbot.app/relay/internal/store"
	"trackerbot.app/relay/internal/tracker"
)

// Deps are the collaborators shared by every service.
// Dispatcher may be nil for processes that never send messages.
type Deps struct {
	Stores     *store.Stores
	TxRunner   TxRunner
	Source     issue_tracker.IssueTrackerService
	Snapshots  *cache.SnapshotCache
	Locker     *cache.Locker
	Dispatcher *notify.Dispatcher
	Clock      tracker.Clock
}

type Services struct {
	deps     Deps
	tracker  config.TrackerConfig
	linkBase string
}

func NewServices(deps Deps, trackerCfg config.TrackerConfig, telegramCfg config.TelegramConfig) *Services {
	return &Services{
		deps:     deps,
		tracker:  trackerCfg,
		linkBase: telegramCfg.SupportLinkBase,
	}
}

func (s *Services) Tracker() TrackerService {
	return NewTrackerService(
		s.deps.Stores.Subscribers(),
		s.deps.Stores.Repositories(),
		s.deps.Source,
		s.deps.Snapshots,
		s.deps.Locker,
		s.deps.Dispatcher,
		TrackerConfig{
			LockTTL:     s.tracker.LockTTL,
			Parallelism: s.tracker.DeliveryParallel,
		},
	)
}

func (s *Services) Issues() IssueService {
	return NewIssueService(
		s.deps.Stores.Subscribers(),
		s.deps.Stores.Repositories(),
		s.deps.Source,
		s.tracker.StaleIssueDays,
		s.deps.Clock,
	)
}

func (s *Services) Reviews() ReviewService {
	return NewReviewService(
		s.deps.Stores.Subscribers(),
		s.deps.Stores.Repositories(),
		s.deps.Source,
		s.deps.Dispatcher,
	)
}

func (s *Services) Subscribers() SubscriberService {
	return NewSubscriberService(s.deps.Stores.Subscribers(), s.deps.TxRunner)
}

func (s *Services) Support() SupportService {
	return NewSupportService(
		s.deps.Stores.Subscribers(),
		s.deps.Stores.Repositories(),
		s.deps.Stores.Supports(),
		s.linkBase,
	)
}
