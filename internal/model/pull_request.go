package model

type PullRequest struct {
	Title  string `json:"title"`
	State  string `json:"state"`
	Author string `json:"author"`
	Number int    `json:"number"`
}

type ReviewState string

const (
	ReviewStateApproved         ReviewState = "APPROVED"
	ReviewStateChangesRequested ReviewState = "CHANGES_REQUESTED"
	ReviewStateCommented        ReviewState = "COMMENTED"
)

type Review struct {
	Reviewer string      `json:"reviewer"`
	State    ReviewState `json:"state"`
}

// PullRequestReviews groups the reviews left on one open pull request.
type PullRequestReviews struct {
	Repository  string      `json:"repository"`
	PullRequest PullRequest `json:"pull_request"`
	Reviews     []Review    `json:"reviews"`
}
