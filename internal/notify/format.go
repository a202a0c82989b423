package notify

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf16"

	"trackerbot.app/relay/internal/model"
)

const rule = "-------------------------------"

// MaxMessageLength is the Telegram limit on a message text, in UTF-16 code units.
const MaxMessageLength = 4096

// IssueLink renders an issue title as a link to the issue.
func IssueLink(issue model.Issue) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(issue.HTMLURL), html.EscapeString(issue.Title))
}

func newIssuesHeader(repo string) string {
	return fmt.Sprintf("There are new issues in %s!\n", html.EscapeString(repo))
}

func titleQuote(title string) string {
	return "<blockquote>" + html.EscapeString(title) + "</blockquote>"
}

// NewIssuesMessages renders the new titles of repos as messages of at most
// limit UTF-16 code units each. Repository blocks are separated by a newline
// and only split between titles; a continued block repeats its header.
func NewIssuesMessages(repos []string, newIssues model.Snapshot, limit int) []string {
	var (
		out   []string
		b     strings.Builder
		units int
	)
	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
			units = 0
		}
	}
	write := func(s string, n int) {
		b.WriteString(s)
		units += n
	}

	for _, repo := range repos {
		titles := newIssues[repo]
		if len(titles) == 0 {
			continue
		}
		header := newIssuesHeader(repo)
		headerLen := textLength(header)

		for i, title := range titles {
			quote := titleQuote(title)
			quoteLen := textLength(quote)
			if i == 0 {
				opening := headerLen + quoteLen
				if units > 0 {
					opening++
				}
				if units+opening > limit {
					flush()
				}
				if units > 0 {
					write("\n", 1)
				}
				write(header, headerLen)
			} else if units+quoteLen > limit {
				flush()
				write(header, headerLen)
			}
			write(quote, quoteLen)
		}
	}
	flush()
	return out
}

func textLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

func repoHeader(repo model.RepositoryRef) string {
	return fmt.Sprintf("Repository: <b>%s</b>\n", html.EscapeString(repo.FullName()))
}

// MissedDeadlinesMessage renders the stale issues of one repository.
func MissedDeadlinesMessage(repo model.RepositoryRef, stale []model.StaleIssue) string {
	var b strings.Builder
	b.WriteString(repoHeader(repo))
	if len(stale) == 0 {
		b.WriteString("No missed deadlines.\n")
		return "<blockquote>" + b.String() + "</blockquote>"
	}
	for _, s := range stale {
		fmt.Fprintf(&b, "%s\nAssignee: <b>%s</b>\nDays since assignment: %d\n\n",
			IssueLink(s.Issue), html.EscapeString(s.Issue.AssigneeLogin()), s.DaysSinceAssignment)
	}
	return "<blockquote>" + b.String() + "</blockquote>"
}

// AvailableIssuesMessage renders the unassigned issues of one repository.
func AvailableIssuesMessage(repo model.RepositoryRef, issues []model.Issue) string {
	var b strings.Builder
	b.WriteString(repoHeader(repo))
	if len(issues) == 0 {
		b.WriteString("No issues.\n")
		return b.String()
	}
	for _, issue := range issues {
		fmt.Fprintf(&b, "- %s\n", IssueLink(issue))
	}
	return b.String()
}

// ReviewDigestMessage renders reviews left on open pull requests.
func ReviewDigestMessage(digest []model.PullRequestReviews) string {
	banner := strings.Repeat("=", 50)

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n<b>Revisions and Approvals</b>\n%s\n\n", banner, banner)
	for _, d := range digest {
		b.WriteString(rule)
		fmt.Fprintf(&b, "Repo: <b>%s</b>\nPull Request: <b>%s</b>\n<b>Reviews:</b>\n",
			html.EscapeString(d.Repository), html.EscapeString(d.PullRequest.Title))
		for _, r := range d.Reviews {
			fmt.Fprintf(&b, "User: <b>%s</b>\nState: %s\n\n", html.EscapeString(r.Reviewer), html.EscapeString(string(r.State)))
		}
		b.WriteString(rule)
	}
	return b.String()
}

// ContributorIssuesMessage renders the issues assigned to a contributor.
func ContributorIssuesMessage(issues []model.Issue) string {
	if len(issues) == 0 {
		return "No issues.\n"
	}
	var b strings.Builder
	b.WriteString("Issues assigned:\n")
	for _, issue := range issues {
		fmt.Fprintf(&b, "- Issue: %s\n", IssueLink(issue))
	}
	return b.String()
}

// SupportMessage renders the support contact of one repository, if any.
func SupportMessage(repo model.RepositoryRef, link string) string {
	if link == "" {
		return repoHeader(repo) + "No support contact for this repository.\n"
	}
	return fmt.Sprintf("%sSupport: <a href=\"%s\">%s</a>\n", repoHeader(repo), html.EscapeString(link), html.EscapeString(link))
}
