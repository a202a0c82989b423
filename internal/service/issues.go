package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"trackerbot.app/relay/internal/model"
	"trackerbot.app/relay/internal/service/issue_tracker"
	"trackerbot.app/relay/internal/store"
	"trackerbot.app/relay/internal/tracker"
)

var (
	ErrSubscriberNotFound  = errors.New("subscriber not found")
	ErrIssueUnavailable    = errors.New("issue could not be fetched")
	ErrInvalidLabelPattern = errors.New("invalid label pattern")
)

type RepositoryStaleIssues struct {
	Repository model.RepositoryRef `json:"repository"`
	Issues     []model.StaleIssue  `json:"issues"`
}

type RepositoryIssues struct {
	Repository model.RepositoryRef `json:"repository"`
	Issues     []model.Issue       `json:"issues"`
}

type IssueService interface {
	MissedDeadlines(ctx context.Context, telegramID string) ([]RepositoryStaleIssues, error)
	AvailableIssues(ctx context.Context, telegramID string) ([]RepositoryIssues, error)
	Deadline(ctx context.Context, repo model.RepositoryRef, number int) (tracker.DeadlineStatus, error)
	// ContributorIssues lists issues assigned to username. An empty labelPattern disables label filtering.
	ContributorIssues(ctx context.Context, username string, openOnly bool, labelPattern string) ([]model.Issue, error)
}

type issueService struct {
	subscribers store.SubscriberStore
	repos       store.RepositoryStore
	source      issue_tracker.IssueTrackerService
	matcher     *tracker.Matcher
	deadlines   *tracker.Deadlines
}

func NewIssueService(
	subscribers store.SubscriberStore,
	repos store.RepositoryStore,
	source issue_tracker.IssueTrackerService,
	staleDays int,
	clock tracker.Clock,
) IssueService {
	resolver := tracker.NewResolver(source)
	return &issueService{
		subscribers: subscribers,
		repos:       repos,
		source:      source,
		matcher:     tracker.NewMatcher(source, resolver, staleDays, clock),
		deadlines:   tracker.NewDeadlines(resolver, repos, clock),
	}
}

func (s *issueService) MissedDeadlines(ctx context.Context, telegramID string) ([]RepositoryStaleIssues, error) {
	repos, err := repositoriesOf(ctx, s.subscribers, s.repos, telegramID)
	if err != nil {
		return nil, err
	}

	out := make([]RepositoryStaleIssues, 0, len(repos))
	for _, r := range repos {
		ref := model.RepositoryRef{Author: r.Author, Name: r.Name}
		out = append(out, RepositoryStaleIssues{
			Repository: ref,
			Issues:     s.matcher.IssuesWithoutPullRequests(ctx, ref),
		})
	}
	return out, nil
}

func (s *issueService) AvailableIssues(ctx context.Context, telegramID string) ([]RepositoryIssues, error) {
	repos, err := repositoriesOf(ctx, s.subscribers, s.repos, telegramID)
	if err != nil {
		return nil, err
	}

	out := make([]RepositoryIssues, 0, len(repos))
	for _, r := range repos {
		ref := model.RepositoryRef{Author: r.Author, Name: r.Name}
		out = append(out, RepositoryIssues{
			Repository: ref,
			Issues:     s.matcher.AvailableIssues(ctx, ref),
		})
	}
	return out, nil
}

func (s *issueService) Deadline(ctx context.Context, repo model.RepositoryRef, number int) (tracker.DeadlineStatus, error) {
	issue, err := s.source.GetIssue(ctx, repo, number)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch issue for deadline",
			"repository", repo.FullName(),
			"issue_number", number,
			"error", err)
		return tracker.DeadlineStatus{}, fmt.Errorf("%w: %s#%d", ErrIssueUnavailable, repo.FullName(), number)
	}
	return s.deadlines.ForIssue(ctx, *issue)
}

func (s *issueService) ContributorIssues(ctx context.Context, username string, openOnly bool, labelPattern string) ([]model.Issue, error) {
	var re *regexp.Regexp
	if labelPattern != "" {
		var err error
		re, err = regexp.Compile("(?i)" + labelPattern)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLabelPattern, err)
		}
	}

	issues, err := s.source.SearchAssignedIssues(ctx, username)
	if err != nil {
		slog.WarnContext(ctx, "failed to search contributor issues", "username", username, "error", err)
		return []model.Issue{}, nil
	}

	out := []model.Issue{}
	for _, issue := range issues {
		if openOnly && !issue.IsOpen() {
			continue
		}
		if re != nil && !anyLabelMatches(issue.Labels, re) {
			continue
		}
		out = append(out, issue)
	}
	return out, nil
}

func anyLabelMatches(labels []string, re *regexp.Regexp) bool {
	for _, l := range labels {
		if re.MatchString(l) {
			return true
		}
	}
	return false
}

// repositoriesOf returns the repositories owned by the user linked to telegramID.
func repositoriesOf(ctx context.Context, subscribers store.SubscriberStore, repos store.RepositoryStore, telegramID string) ([]model.Repository, error) {
	sub, err := subscribers.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("getting subscriber: %w", err)
	}

	owned, err := repos.ListByUser(ctx, sub.UserID)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}
	return owned, nil
}
