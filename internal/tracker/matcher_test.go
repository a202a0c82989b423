package tracker_test

import (
	"context"
	"errors"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trackerbot.app/relay/internal/model"
	"trackerbot.app/relay/internal/tracker"
)

var _ = Describe("Matcher", func() {
	var (
		ctx     context.Context
		now     time.Time
		source  *mockIssueSource
		events  *mockEventSource
		matcher *tracker.Matcher
		repo    model.RepositoryRef
		// assignedAgo maps events url to how long ago the issue was assigned.
		assignedAgo map[string]time.Duration
	)

	login := func(s string) *string { return &s }
	issueAssignedTo := func(number int, assignee string) model.Issue {
		return model.Issue{
			Number:    number,
			Title:     "issue",
			State:     model.IssueStateOpen,
			Assignee:  login(assignee),
			EventsURL: "events/" + assignee,
		}
	}

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
		repo = model.RepositoryRef{Author: "octo", Name: "hello"}
		assignedAgo = map[string]time.Duration{}

		source = &mockIssueSource{}
		events = &mockEventSource{
			listIssueEventsFn: func(_ context.Context, url string) ([]model.IssueEvent, error) {
				ago, ok := assignedAgo[url]
				if !ok {
					return nil, nil
				}
				return []model.IssueEvent{{
					Event:     "assigned",
					Assignee:  strings.TrimPrefix(url, "events/"),
					CreatedAt: now.Add(-ago).Format(model.TimestampLayout),
				}}, nil
			},
		}
		matcher = tracker.NewMatcher(source, tracker.NewResolver(events), 1, func() time.Time { return now })
	})

	Describe("IssuesWithoutPullRequests", func() {
		It("flags at 25 hours but not at 23 hours", func() {
			assignedAgo["events/alice"] = 23 * time.Hour
			assignedAgo["events/bob"] = 25 * time.Hour
			source.listOpenIssuesFn = func(_ context.Context, _ model.RepositoryRef) ([]model.Issue, error) {
				return []model.Issue{issueAssignedTo(1, "alice"), issueAssignedTo(2, "bob")}, nil
			}

			stale := matcher.IssuesWithoutPullRequests(ctx, repo)
			Expect(stale).To(HaveLen(1))
			Expect(stale[0].Issue.Number).To(Equal(2))
			Expect(stale[0].DaysSinceAssignment).To(Equal(1))
			Expect(stale[0].Assignment.Assignee).To(Equal("bob"))
		})

		It("does not flag assignees with an open pull request", func() {
			assignedAgo["events/alice"] = 72 * time.Hour
			assignedAgo["events/bob"] = 72 * time.Hour
			source.listOpenIssuesFn = func(_ context.Context, _ model.RepositoryRef) ([]model.Issue, error) {
				return []model.Issue{issueAssignedTo(1, "alice"), issueAssignedTo(2, "bob")}, nil
			}
			source.listOpenPullRequestsFn = func(_ context.Context, _ model.RepositoryRef) ([]model.PullRequest, error) {
				return []model.PullRequest{{Number: 9, Author: "alice"}}, nil
			}

			stale := matcher.IssuesWithoutPullRequests(ctx, repo)
			Expect(stale).To(HaveLen(1))
			Expect(stale[0].Issue.AssigneeLogin()).To(Equal("bob"))
			Expect(stale[0].DaysSinceAssignment).To(Equal(3))
		})

		It("ignores unassigned issues, drafts, pull requests and closed issues", func() {
			assignedAgo["events/alice"] = 72 * time.Hour
			draft := issueAssignedTo(2, "alice")
			draft.Draft = true
			pr := issueAssignedTo(3, "alice")
			pr.IsPullRequest = true
			closed := issueAssignedTo(4, "alice")
			closed.State = model.IssueStateClosed

			source.listOpenIssuesFn = func(_ context.Context, _ model.RepositoryRef) ([]model.Issue, error) {
				return []model.Issue{{Number: 1, State: model.IssueStateOpen}, draft, pr, closed}, nil
			}

			Expect(matcher.IssuesWithoutPullRequests(ctx, repo)).To(BeEmpty())
			Expect(events.callCount()).To(BeZero())
		})

		It("keeps evaluating other issues when one event fetch fails", func() {
			assignedAgo["events/bob"] = 48 * time.Hour
			assignedAgo["events/carol"] = 48 * time.Hour
			inner := events.listIssueEventsFn
			events.listIssueEventsFn = func(ctx context.Context, url string) ([]model.IssueEvent, error) {
				if url == "events/alice" {
					return nil, errors.New("timeout")
				}
				return inner(ctx, url)
			}
			source.listOpenIssuesFn = func(_ context.Context, _ model.RepositoryRef) ([]model.Issue, error) {
				return []model.Issue{
					issueAssignedTo(1, "alice"),
					issueAssignedTo(2, "bob"),
					issueAssignedTo(3, "carol"),
				}, nil
			}

			stale := matcher.IssuesWithoutPullRequests(ctx, repo)
			numbers := []int{}
			for _, s := range stale {
				numbers = append(numbers, s.Issue.Number)
			}
			Expect(numbers).To(Equal([]int{2, 3}))
		})

		It("honours a configured threshold", func() {
			matcher = tracker.NewMatcher(source, tracker.NewResolver(events), 3, func() time.Time { return now })
			assignedAgo["events/alice"] = 49 * time.Hour
			source.listOpenIssuesFn = func(_ context.Context, _ model.RepositoryRef) ([]model.Issue, error) {
				return []model.Issue{issueAssignedTo(1, "alice")}, nil
			}

			Expect(matcher.IssuesWithoutPullRequests(ctx, repo)).To(BeEmpty())
		})

		It("returns nothing when issues cannot be listed", func() {
			source.listOpenIssuesFn = func(_ context.Context, _ model.RepositoryRef) ([]model.Issue, error) {
				return nil, errors.New("bad gateway")
			}

			Expect(matcher.IssuesWithoutPullRequests(ctx, repo)).To(BeEmpty())
		})
	})

	Describe("AvailableIssues", func() {
		It("returns open unassigned true issues", func() {
			draft := model.Issue{Number: 3, State: model.IssueStateOpen, Draft: true}
			source.listOpenIssuesFn = func(_ context.Context, _ model.RepositoryRef) ([]model.Issue, error) {
				return []model.Issue{
					{Number: 1, State: model.IssueStateOpen},
					issueAssignedTo(2, "alice"),
					draft,
					{Number: 4, State: model.IssueStateOpen, IsPullRequest: true},
				}, nil
			}

			available := matcher.AvailableIssues(ctx, repo)
			Expect(available).To(HaveLen(1))
			Expect(available[0].Number).To(Equal(1))
		})
	})
})

var _ = Describe("DaysSinceAssignment", func() {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	It("counts whole days", func() {
		info := model.AssignmentInfo{AssignedAt: now.Add(-47 * time.Hour).Format(model.TimestampLayout)}
		Expect(tracker.DaysSinceAssignment(info, now)).To(Equal(1))
	})

	It("is zero when unassigned or unparsable", func() {
		Expect(tracker.DaysSinceAssignment(model.AssignmentInfo{}, now)).To(BeZero())
		Expect(tracker.DaysSinceAssignment(model.AssignmentInfo{AssignedAt: "yesterday"}, now)).To(BeZero())
	})
})
