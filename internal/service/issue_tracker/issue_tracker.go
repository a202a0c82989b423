package issue_tracker

import (
	"context"

	"trackerbot.app/relay/internal/model"
)

// IssueTrackerService reads issues, pull requests and reviews from the remote tracker.
// Implementations return errors; callers decide whether a failure degrades to "no data".
type IssueTrackerService interface {
	ListOpenIssues(ctx context.Context, repo model.RepositoryRef) ([]model.Issue, error)
	GetIssue(ctx context.Context, repo model.RepositoryRef, number int) (*model.Issue, error)
	ListOpenPullRequests(ctx context.Context, repo model.RepositoryRef) ([]model.PullRequest, error)
	ListReviews(ctx context.Context, repo model.RepositoryRef, number int) ([]model.Review, error)
	// ListIssueEvents follows an issue's events_url as returned by the tracker.
	ListIssueEvents(ctx context.Context, eventsURL string) ([]model.IssueEvent, error)
	SearchAssignedIssues(ctx context.Context, username string) ([]model.Issue, error)
}
