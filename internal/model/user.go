package model

import "time"

type Role string

const (
	RoleContributor Role = "contributor"
	RoleProjectLead Role = "project_lead"
)

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u User) IsProjectLead() bool {
	return u.Role == RoleProjectLead
}
