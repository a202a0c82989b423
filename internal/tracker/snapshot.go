package tracker

import "trackerbot.app/relay/internal/model"

// DiffSnapshots reports, per repository in current, the titles that appeared
// since previous. Only growth is detected: when a repository gained d titles,
// the first d titles of current are reported, which assumes the source lists
// newest issues first. Repositories missing from previous count as empty.
func DiffSnapshots(current, previous model.Snapshot) model.Snapshot {
	diff := model.Snapshot{}
	for repo, titles := range current {
		added := len(titles) - len(previous[repo])
		if added <= 0 {
			continue
		}
		diff[repo] = append([]string(nil), titles[:added]...)
	}
	return diff
}

// SnapshotBuilder accumulates per-repository titles during a cycle.
type SnapshotBuilder struct {
	snapshot model.Snapshot
}

func NewSnapshotBuilder() *SnapshotBuilder {
	return &SnapshotBuilder{snapshot: model.Snapshot{}}
}

func (b *SnapshotBuilder) Add(repo string, titles []string) *SnapshotBuilder {
	b.snapshot[repo] = append([]string(nil), titles...)
	return b
}

// Build returns a copy; later Adds do not affect it.
func (b *SnapshotBuilder) Build() model.Snapshot {
	return b.snapshot.Clone()
}

// OpenIssueTitles keeps titles of open issues that are neither drafts nor pull requests, in source order.
func OpenIssueTitles(issues []model.Issue) []string {
	titles := make([]string, 0, len(issues))
	for _, issue := range issues {
		if issue.IsOpen() && issue.IsTrueIssue() {
			titles = append(titles, issue.Title)
		}
	}
	return titles
}
