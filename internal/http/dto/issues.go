package dto

import (
	"time"

	"trackerbot.app/relay/internal/model"
	"trackerbot.app/relay/internal/service"
	"trackerbot.app/relay/internal/tracker"
)

type MissedDeadlinesResponse struct {
	Repositories []service.RepositoryStaleIssues `json:"repositories"`
}

type AvailableIssuesResponse struct {
	Repositories []service.RepositoryIssues `json:"repositories"`
}

type ContributorIssuesResponse struct {
	Username string        `json:"username"`
	Issues   []model.Issue `json:"issues"`
}

type ReviewDigestResponse struct {
	PullRequests []model.PullRequestReviews `json:"pull_requests"`
}

type SupportResponse struct {
	Contacts []service.SupportContact `json:"contacts"`
}

type DeadlineResponse struct {
	Repository string               `json:"repository"`
	Number     int                  `json:"number"`
	Kind       tracker.DeadlineKind `json:"kind"`
	Deadline   *time.Time           `json:"deadline,omitempty"`
	Days       int                  `json:"days"`
	Hours      int                  `json:"hours"`
	Message    string               `json:"message"`
}

func ToDeadlineResponse(repo model.RepositoryRef, number int, s tracker.DeadlineStatus) DeadlineResponse {
	resp := DeadlineResponse{
		Repository: repo.FullName(),
		Number:     number,
		Kind:       s.Kind,
		Days:       s.Days,
		Hours:      s.Hours,
		Message:    s.String(),
	}
	if !s.Deadline.IsZero() {
		d := s.Deadline
		resp.Deadline = &d
	}
	return resp
}

type ScanResponse struct {
	MessageID string `json:"message_id"`
}
