package issue_tracker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"trackerbot.app/relay/internal/model"
)

const (
	perPage  = 100
	maxPages = 10
)

// Config carries the credentials and endpoint for the GitHub API.
type Config struct {
	Token         string
	BaseURL       string // Optional: defaults to https://api.github.com/
	// MaxTries bounds attempts for transient failures. Zero means 3.
	MaxTries      uint
	// RetryInterval is the initial backoff. Zero means 200ms.
	RetryInterval time.Duration
}

type IssuesService interface {
	ListByRepo(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
	Get(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error)
}

type PullRequestsService interface {
	List(ctx context.Context, owner, repo string, opts *github.PullRequestListOptions) ([]*github.PullRequest, *github.Response, error)
	ListReviews(ctx context.Context, owner, repo string, number int, opts *github.ListOptions) ([]*github.PullRequestReview, *github.Response, error)
}

type SearchService interface {
	Issues(ctx context.Context, query string, opts *github.SearchOptions) (*github.IssuesSearchResult, *github.Response, error)
}

type gitHubIssueTrackerService struct {
	client       *github.Client
	issues       IssuesService
	pullRequests PullRequestsService
	search       SearchService
	cfg          Config
}

var _ IssueTrackerService = (*gitHubIssueTrackerService)(nil)

func NewGitHubIssueTrackerService(cfg Config) (IssueTrackerService, error) {
	var httpClient *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	client := github.NewClient(httpClient)
	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("parsing github base url: %w", err)
		}
		client.BaseURL = base
	}

	if cfg.MaxTries == 0 {
		cfg.MaxTries = 3
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = 200 * time.Millisecond
	}

	return &gitHubIssueTrackerService{
		client:       client,
		issues:       client.Issues,
		pullRequests: client.PullRequests,
		search:       client.Search,
		cfg:          cfg,
	}, nil
}

func (s *gitHubIssueTrackerService) ListOpenIssues(ctx context.Context, repo model.RepositoryRef) ([]model.Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var out []model.Issue
	for page := 0; page < maxPages; page++ {
		issues, resp, err := retry(ctx, s.cfg, func() ([]*github.Issue, *github.Response, error) {
			return s.issues.ListByRepo(ctx, repo.Author, repo.Name, opts)
		})
		if err != nil {
			return nil, fmt.Errorf("listing issues for %s: %w", repo.FullName(), err)
		}
		for _, issue := range issues {
			if issue != nil {
				out = append(out, mapIssue(issue))
			}
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		// IssueListByRepoOptions also embeds ListCursorOptions, which has its own Page.
		opts.ListOptions.Page = resp.NextPage
	}

	return out, nil
}

func (s *gitHubIssueTrackerService) GetIssue(ctx context.Context, repo model.RepositoryRef, number int) (*model.Issue, error) {
	issue, _, err := retry(ctx, s.cfg, func() (*github.Issue, *github.Response, error) {
		return s.issues.Get(ctx, repo.Author, repo.Name, number)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching issue %s#%d: %w", repo.FullName(), number, err)
	}
	mapped := mapIssue(issue)
	return &mapped, nil
}

func (s *gitHubIssueTrackerService) ListOpenPullRequests(ctx context.Context, repo model.RepositoryRef) ([]model.PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var out []model.PullRequest
	for page := 0; page < maxPages; page++ {
		pulls, resp, err := retry(ctx, s.cfg, func() ([]*github.PullRequest, *github.Response, error) {
			return s.pullRequests.List(ctx, repo.Author, repo.Name, opts)
		})
		if err != nil {
			return nil, fmt.Errorf("listing pull requests for %s: %w", repo.FullName(), err)
		}
		for _, pr := range pulls {
			if pr == nil {
				continue
			}
			out = append(out, model.PullRequest{
				Title:  pr.GetTitle(),
				State:  pr.GetState(),
				Author: pr.GetUser().GetLogin(),
				Number: pr.GetNumber(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}

	return out, nil
}

func (s *gitHubIssueTrackerService) ListReviews(ctx context.Context, repo model.RepositoryRef, number int) ([]model.Review, error) {
	reviews, _, err := retry(ctx, s.cfg, func() ([]*github.PullRequestReview, *github.Response, error) {
		return s.pullRequests.ListReviews(ctx, repo.Author, repo.Name, number, &github.ListOptions{PerPage: perPage})
	})
	if err != nil {
		return nil, fmt.Errorf("listing reviews for %s#%d: %w", repo.FullName(), number, err)
	}

	out := make([]model.Review, 0, len(reviews))
	for _, r := range reviews {
		if r == nil {
			continue
		}
		out = append(out, model.Review{
			Reviewer: r.GetUser().GetLogin(),
			State:    model.ReviewState(r.GetState()),
		})
	}
	return out, nil
}

// rawIssueEvent keeps created_at as the literal string so a missing field stays "".
type rawIssueEvent struct {
	Event    string `json:"event"`
	Assignee *struct {
		Login string `json:"login"`
	} `json:"assignee"`
	CreatedAt string `json:"created_at"`
}

func (s *gitHubIssueTrackerService) ListIssueEvents(ctx context.Context, eventsURL string) ([]model.IssueEvent, error) {
	if err := s.sameHost(eventsURL); err != nil {
		return nil, err
	}

	raw, _, err := retry(ctx, s.cfg, func() ([]rawIssueEvent, *github.Response, error) {
		req, err := s.client.NewRequest(http.MethodGet, eventsURL, nil)
		if err != nil {
			return nil, nil, backoff.Permanent(err)
		}
		var events []rawIssueEvent
		resp, err := s.client.Do(ctx, req, &events)
		return events, resp, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing issue events: %w", err)
	}

	events := make([]model.IssueEvent, 0, len(raw))
	for _, e := range raw {
		event := model.IssueEvent{Event: e.Event, CreatedAt: e.CreatedAt}
		if e.Assignee != nil {
			event.Assignee = e.Assignee.Login
		}
		events = append(events, event)
	}
	return events, nil
}

func (s *gitHubIssueTrackerService) SearchAssignedIssues(ctx context.Context, username string) ([]model.Issue, error) {
	query := "assignee:" + username
	result, _, err := retry(ctx, s.cfg, func() (*github.IssuesSearchResult, *github.Response, error) {
		return s.search.Issues(ctx, query, &github.SearchOptions{ListOptions: github.ListOptions{PerPage: perPage}})
	})
	if err != nil {
		return nil, fmt.Errorf("searching issues assigned to %s: %w", username, err)
	}

	out := make([]model.Issue, 0, len(result.Issues))
	for _, issue := range result.Issues {
		if issue != nil {
			out = append(out, mapIssue(issue))
		}
	}
	return out, nil
}

// sameHost refuses to send credentials to hosts other than the configured API.
func (s *gitHubIssueTrackerService) sameHost(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing events url: %w", err)
	}
	if u.IsAbs() && u.Host != s.client.BaseURL.Host {
		return fmt.Errorf("events url host %q does not match api host %q", u.Host, s.client.BaseURL.Host)
	}
	return nil
}

func mapIssue(issue *github.Issue) model.Issue {
	labels := make([]string, 0, len(issue.Labels))
	for _, l := range issue.Labels {
		if l != nil && l.GetName() != "" {
			labels = append(labels, l.GetName())
		}
	}

	var assignee *string
	if login := issue.GetAssignee().GetLogin(); login != "" {
		assignee = &login
	}

	return model.Issue{
		Assignee:      assignee,
		Title:         issue.GetTitle(),
		State:         model.IssueState(issue.GetState()),
		HTMLURL:       issue.GetHTMLURL(),
		EventsURL:     issue.GetEventsURL(),
		RepositoryURL: issue.GetRepositoryURL(),
		Labels:        labels,
		Number:        issue.GetNumber(),
		Draft:         issue.GetDraft(),
		IsPullRequest: issue.IsPullRequest(),
	}
}

// retry runs fn with exponential backoff, retrying only transient failures.
func retry[T any](ctx context.Context, cfg Config, fn func() (T, *github.Response, error)) (T, *github.Response, error) {
	var resp *github.Response

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.RetryInterval

	out, err := backoff.Retry(ctx, func() (T, error) {
		var (
			v   T
			err error
		)
		v, resp, err = fn()
		if err != nil && !isTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(cfg.MaxTries))

	return out, resp, err
}

func isTransient(err error) bool {
	var abuse *github.AbuseRateLimitError
	if errors.As(err, &abuse) {
		return true
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode >= http.StatusInternalServerError
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
