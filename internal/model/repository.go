package model

import (
	"fmt"
	"time"
)

// DefaultTimeLimit is the assignment deadline applied when a repository has none configured.
const DefaultTimeLimit = 24 * time.Hour

// Repository is a GitHub repository registered by a user for tracking.
type Repository struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `json:"name"`
	Author    string    `json:"author"`
	Link      string    `json:"link"`
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	// TimeLimit is the number of seconds an assignee has before the deadline passes.
	TimeLimit int64 `json:"time_limit"`
}

func (r Repository) FullName() string {
	return fmt.Sprintf("%s/%s", r.Author, r.Name)
}

func (r Repository) Deadline() time.Duration {
	return time.Duration(r.TimeLimit) * time.Second
}

// RepositoryRef identifies a repository on the issue source without a stored record.
type RepositoryRef struct {
	Author string `json:"author"`
	Name   string `json:"name"`
}

func (r RepositoryRef) FullName() string {
	return fmt.Sprintf("%s/%s", r.Author, r.Name)
}
