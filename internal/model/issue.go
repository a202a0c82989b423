package model

import "time"

type IssueState string

const (
	IssueStateOpen   IssueState = "open"
	IssueStateClosed IssueState = "closed"
)

// Issue is an issue (or a pull request surfaced through the issues API) as fetched
// from the tracker. It is never persisted; only titles are cached.
type Issue struct {
	Assignee      *string    `json:"assignee,omitempty"`
	Title         string     `json:"title"`
	State         IssueState `json:"state"`
	HTMLURL       string     `json:"html_url"`
	EventsURL     string     `json:"events_url"`
	RepositoryURL string     `json:"repository_url"`
	Labels        []string   `json:"labels,omitempty"`
	Number        int        `json:"number"`
	Draft         bool       `json:"draft"`
	IsPullRequest bool       `json:"is_pull_request"`
}

func (i Issue) IsOpen() bool {
	return i.State == IssueStateOpen
}

// AssigneeLogin returns the assignee login or "" when unassigned.
func (i Issue) AssigneeLogin() string {
	if i.Assignee == nil {
		return ""
	}
	return *i.Assignee
}

// IsTrueIssue reports whether the entry is an issue rather than a pull request or draft.
func (i Issue) IsTrueIssue() bool {
	return !i.Draft && !i.IsPullRequest
}

// IssueEvent is one entry of an issue's event timeline.
// Missing fields decode to empty strings.
type IssueEvent struct {
	Event     string `json:"event"`
	Assignee  string `json:"assignee"`
	CreatedAt string `json:"created_at"`
}

// AssignmentInfo is the latest assignment of an issue. The zero value means
// the issue was never assigned or its timeline could not be fetched.
type AssignmentInfo struct {
	Assignee   string `json:"assignee,omitempty"`
	AssignedAt string `json:"assigned_at,omitempty"`
}

// AssignedTime parses AssignedAt. ok is false when it is empty or malformed.
func (a AssignmentInfo) AssignedTime() (t time.Time, ok bool) {
	if a.AssignedAt == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(TimestampLayout, a.AssignedAt)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// TimestampLayout is the ISO-8601 form the tracker uses for event timestamps.
const TimestampLayout = "2006-01-02T15:04:05Z"

// StaleIssue is an assigned issue whose assignee has not opened a pull request in time.
type StaleIssue struct {
	Issue               Issue          `json:"issue"`
	Assignment          AssignmentInfo `json:"assignment"`
	DaysSinceAssignment int            `json:"days_since_assignment"`
}
