package model

// Snapshot maps a repository name to the titles of its open issues, in API order.
type Snapshot map[string][]string

// Clone returns a deep copy so callers cannot mutate a shared snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for repo, titles := range s {
		out[repo] = append([]string(nil), titles...)
	}
	return out
}
