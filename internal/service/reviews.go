package service

import (
	"context"
	"log/slog"

	"trackerbot.app/relay/common/logger"
	"trackerbot.app/relay/internal/model"
	"trackerbot.app/relay/internal/notify"
	"trackerbot.app/relay/internal/service/issue_tracker"
	"trackerbot.app/relay/internal/store"
)

type ReviewService interface {
	// Digest lists every open pull request with at least one review across the subscriber's repositories.
	Digest(ctx context.Context, telegramID string) ([]model.PullRequestReviews, error)
	// SendDigest delivers the digest to the subscriber. Nothing is sent when it is empty.
	SendDigest(ctx context.Context, telegramID string) (int, error)
}

type reviewService struct {
	subscribers store.SubscriberStore
	repos       store.RepositoryStore
	source      issue_tracker.IssueTrackerService
	dispatcher  *notify.Dispatcher
}

func NewReviewService(
	subscribers store.SubscriberStore,
	repos store.RepositoryStore,
	source issue_tracker.IssueTrackerService,
	dispatcher *notify.Dispatcher,
) ReviewService {
	return &reviewService{
		subscribers: subscribers,
		repos:       repos,
		source:      source,
		dispatcher:  dispatcher,
	}
}

func (s *reviewService) Digest(ctx context.Context, telegramID string) ([]model.PullRequestReviews, error) {
	repos, err := repositoriesOf(ctx, s.subscribers, s.repos, telegramID)
	if err != nil {
		return nil, err
	}

	digest := []model.PullRequestReviews{}
	for _, r := range repos {
		ref := model.RepositoryRef{Author: r.Author, Name: r.Name}
		pulls, err := s.source.ListOpenPullRequests(ctx, ref)
		if err != nil {
			slog.WarnContext(ctx, "failed to list pull requests", "repository", ref.FullName(), "error", err)
			continue
		}

		for _, pr := range pulls {
			reviews, err := s.source.ListReviews(ctx, ref, pr.Number)
			if err != nil {
				slog.WarnContext(ctx, "failed to list reviews",
					"repository", ref.FullName(),
					"pull_number", pr.Number,
					"error", err)
				continue
			}
			if len(reviews) == 0 {
				continue
			}
			digest = append(digest, model.PullRequestReviews{
				Repository:  ref.FullName(),
				PullRequest: pr,
				Reviews:     reviews,
			})
		}
	}
	return digest, nil
}

func (s *reviewService) SendDigest(ctx context.Context, telegramID string) (int, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{TelegramID: &telegramID})

	digest, err := s.Digest(ctx, telegramID)
	if err != nil {
		return 0, err
	}
	if len(digest) == 0 {
		slog.DebugContext(ctx, "no reviews to report")
		return 0, nil
	}

	if s.dispatcher == nil {
		return 0, ErrNotificationsDisabled
	}
	if err := s.dispatcher.Send(ctx, telegramID, notify.ReviewDigestMessage(digest)); err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "review digest sent", "pull_requests", len(digest))
	return len(digest), nil
}
