package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"trackerbot.app/relay/core/db"
	"trackerbot.app/relay/internal/model"
)

type userStore struct {
	queries db.Querier
}

func newUserStore(queries db.Querier) UserStore {
	return &userStore{queries: queries}
}

const getUserSQL = `SELECT id, email, role, is_active, is_admin, created_at, updated_at FROM users WHERE id = $1`

func (s *userStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	err := s.queries.QueryRow(ctx, getUserSQL, id).Scan(
		&u.ID, &u.Email, &role, &u.IsActive, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}
