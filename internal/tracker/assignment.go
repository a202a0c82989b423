package tracker

import (
	"context"
	"log/slog"

	"trackerbot.app/relay/internal/model"
)

const eventAssigned = "assigned"

// EventSource fetches an issue's event timeline.
type EventSource interface {
	ListIssueEvents(ctx context.Context, eventsURL string) ([]model.IssueEvent, error)
}

// ResolveAssignment returns the last "assigned" event in list order.
// Zero assigned events yields the zero AssignmentInfo.
func ResolveAssignment(events []model.IssueEvent) model.AssignmentInfo {
	var info model.AssignmentInfo
	for _, e := range events {
		if e.Event != eventAssigned {
			continue
		}
		info = model.AssignmentInfo{Assignee: e.Assignee, AssignedAt: e.CreatedAt}
	}
	return info
}

type Resolver struct {
	events EventSource
}

func NewResolver(events EventSource) *Resolver {
	return &Resolver{events: events}
}

// Resolve fetches the issue timeline and resolves its current assignment.
// Fetch failures are logged and reported as "never assigned".
func (r *Resolver) Resolve(ctx context.Context, issue model.Issue) model.AssignmentInfo {
	if issue.EventsURL == "" {
		return model.AssignmentInfo{}
	}

	events, err := r.events.ListIssueEvents(ctx, issue.EventsURL)
	if err != nil {
		slog.WarnContext(ctx, "failed to fetch issue events",
			"issue_number", issue.Number,
			"error", err)
		return model.AssignmentInfo{}
	}

	return ResolveAssignment(events)
}
