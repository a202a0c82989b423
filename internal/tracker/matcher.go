package tracker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"trackerbot.app/relay/internal/model"
)

const resolveParallelism = 4

type IssueSource interface {
	ListOpenIssues(ctx context.Context, repo model.RepositoryRef) ([]model.Issue, error)
	ListOpenPullRequests(ctx context.Context, repo model.RepositoryRef) ([]model.PullRequest, error)
}

// Matcher pairs assigned issues with open pull requests by the same author.
type Matcher struct {
	source    IssueSource
	resolver  *Resolver
	now       Clock
	threshold int
}

// NewMatcher builds a Matcher that flags issues assigned at least thresholdDays ago.
func NewMatcher(source IssueSource, resolver *Resolver, thresholdDays int, clock Clock) *Matcher {
	if clock == nil {
		clock = SystemClock
	}
	return &Matcher{
		source:    source,
		resolver:  resolver,
		now:       clock,
		threshold: thresholdDays,
	}
}

// DaysSinceAssignment returns whole days elapsed since the assignment, or 0
// when it is missing or its timestamp cannot be parsed.
func DaysSinceAssignment(info model.AssignmentInfo, now time.Time) int {
	assignedAt, ok := info.AssignedTime()
	if !ok || now.Before(assignedAt) {
		return 0
	}
	return int(now.Sub(assignedAt) / (24 * time.Hour))
}

// IssuesWithoutPullRequests returns open assigned issues whose assignee has
// no open pull request after the threshold. Fetch failures yield no results.
func (m *Matcher) IssuesWithoutPullRequests(ctx context.Context, repo model.RepositoryRef) []model.StaleIssue {
	issues, err := m.source.ListOpenIssues(ctx, repo)
	if err != nil {
		slog.WarnContext(ctx, "failed to list issues", "repository", repo.FullName(), "error", err)
		return nil
	}

	var assigned []model.Issue
	for _, issue := range issues {
		if issue.IsOpen() && issue.AssigneeLogin() != "" && issue.IsTrueIssue() {
			assigned = append(assigned, issue)
		}
	}
	if len(assigned) == 0 {
		return nil
	}

	assignments := m.resolveAll(ctx, assigned)

	pulls, err := m.source.ListOpenPullRequests(ctx, repo)
	if err != nil {
		slog.WarnContext(ctx, "failed to list pull requests", "repository", repo.FullName(), "error", err)
		pulls = nil
	}
	authors := make(map[string]struct{}, len(pulls))
	for _, pr := range pulls {
		if pr.Author != "" {
			authors[pr.Author] = struct{}{}
		}
	}

	now := m.now()
	var stale []model.StaleIssue
	for i, issue := range assigned {
		days := DaysSinceAssignment(assignments[i], now)
		if days < m.threshold {
			continue
		}
		if _, ok := authors[issue.AssigneeLogin()]; ok {
			continue
		}
		stale = append(stale, model.StaleIssue{
			Issue:               issue,
			Assignment:          assignments[i],
			DaysSinceAssignment: days,
		})
	}

	return stale
}

// resolveAll resolves assignments concurrently, preserving input order.
// The resolver never fails, so one issue's fetch error cannot affect the others.
func (m *Matcher) resolveAll(ctx context.Context, issues []model.Issue) []model.AssignmentInfo {
	out := make([]model.AssignmentInfo, len(issues))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveParallelism)
	for i, issue := range issues {
		g.Go(func() error {
			out[i] = m.resolver.Resolve(gctx, issue)
			return nil
		})
	}
	_ = g.Wait()

	return out
}

// AvailableIssues returns open issues nobody is assigned to.
func (m *Matcher) AvailableIssues(ctx context.Context, repo model.RepositoryRef) []model.Issue {
	issues, err := m.source.ListOpenIssues(ctx, repo)
	if err != nil {
		slog.WarnContext(ctx, "failed to list issues", "repository", repo.FullName(), "error", err)
		return nil
	}

	var available []model.Issue
	for _, issue := range issues {
		if issue.IsOpen() && issue.Assignee == nil && issue.IsTrueIssue() {
			available = append(available, issue)
		}
	}
	return available
}
