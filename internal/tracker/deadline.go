package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"trackerbot.app/relay/internal/model"
	"trackerbot.app/relay/internal/store"
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

func SystemClock() time.Time {
	return time.Now().UTC()
}

type DeadlineKind string

const (
	DeadlineNotAssigned        DeadlineKind = "not_assigned"
	DeadlineRepositoryNotFound DeadlineKind = "repository_not_found"
	DeadlineRemaining          DeadlineKind = "remaining"
	DeadlinePassed             DeadlineKind = "passed"
)

type DeadlineStatus struct {
	Kind     DeadlineKind `json:"kind"`
	Deadline time.Time    `json:"deadline,omitzero"`
	Days     int          `json:"days"`
	Hours    int          `json:"hours"`
}

func (s DeadlineStatus) String() string {
	switch s.Kind {
	case DeadlineNotAssigned:
		return "This issue is not assigned."
	case DeadlineRepositoryNotFound:
		return "Repository details not found."
	case DeadlineRemaining:
		return fmt.Sprintf("Time remaining: %d days, %d hours", s.Days, s.Hours)
	case DeadlinePassed:
		return "Deadline has passed."
	default:
		return string(s.Kind)
	}
}

// EvaluateDeadline compares now against assignedAt+limit.
// Reaching the deadline exactly counts as passed.
func EvaluateDeadline(assignedAt time.Time, limit time.Duration, now time.Time) DeadlineStatus {
	deadline := assignedAt.Add(limit)
	if !now.Before(deadline) {
		return DeadlineStatus{Kind: DeadlinePassed, Deadline: deadline}
	}

	remaining := deadline.Sub(now)
	day := 24 * time.Hour
	return DeadlineStatus{
		Kind:     DeadlineRemaining,
		Deadline: deadline,
		Days:     int(remaining / day),
		Hours:    int((remaining % day) / time.Hour),
	}
}

// RepositoryFromURL extracts owner and name from an issue's repository_url,
// e.g. https://api.github.com/repos/octo/hello.
func RepositoryFromURL(raw string) (model.RepositoryRef, bool) {
	if raw == "" {
		return model.RepositoryRef{}, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return model.RepositoryRef{}, false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return model.RepositoryRef{}, false
	}
	return model.RepositoryRef{Author: parts[len(parts)-2], Name: parts[len(parts)-1]}, true
}

type RepositoryLookup interface {
	GetByAuthorAndName(ctx context.Context, author, name string) (*model.Repository, error)
}

// Deadlines reports how long an issue's assignee has left.
type Deadlines struct {
	resolver *Resolver
	repos    RepositoryLookup
	now      Clock
}

func NewDeadlines(resolver *Resolver, repos RepositoryLookup, clock Clock) *Deadlines {
	if clock == nil {
		clock = SystemClock
	}
	return &Deadlines{resolver: resolver, repos: repos, now: clock}
}

// ForIssue evaluates the deadline of a single issue. Lookup errors other than
// not-found are returned to the caller.
func (d *Deadlines) ForIssue(ctx context.Context, issue model.Issue) (DeadlineStatus, error) {
	assignedAt, ok := d.resolver.Resolve(ctx, issue).AssignedTime()
	if !ok {
		return DeadlineStatus{Kind: DeadlineNotAssigned}, nil
	}

	ref, ok := RepositoryFromURL(issue.RepositoryURL)
	if !ok {
		return DeadlineStatus{Kind: DeadlineRepositoryNotFound}, nil
	}

	repo, err := d.repos.GetByAuthorAndName(ctx, ref.Author, ref.Name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return DeadlineStatus{Kind: DeadlineRepositoryNotFound}, nil
		}
		return DeadlineStatus{}, fmt.Errorf("looking up repository %s: %w", ref.FullName(), err)
	}

	return EvaluateDeadline(assignedAt, repo.Deadline(), d.now()), nil
}
