package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"trackerbot.app/relay/core/db"
	"trackerbot.app/relay/internal/model"
)

type repositoryStore struct {
	queries db.Querier
}

func newRepositoryStore(queries db.Querier) RepositoryStore {
	return &repositoryStore{queries: queries}
}

const repositoryColumns = `id, user_id, name, author, link, time_limit, created_at, updated_at`

func (s *repositoryStore) GetByID(ctx context.Context, id int64) (*model.Repository, error) {
	row := s.queries.QueryRow(ctx,
		`SELECT `+repositoryColumns+` FROM repositories WHERE id = $1`, id)
	return scanRepository(row)
}

// GetByAuthorAndName returns the first registration of author/name. A repository
// can be registered by several users; deadlines come from the oldest registration.
func (s *repositoryStore) GetByAuthorAndName(ctx context.Context, author, name string) (*model.Repository, error) {
	row := s.queries.QueryRow(ctx,
		`SELECT `+repositoryColumns+` FROM repositories WHERE author = $1 AND name = $2 ORDER BY id LIMIT 1`,
		author, name)
	return scanRepository(row)
}

func (s *repositoryStore) ListByUser(ctx context.Context, userID int64) ([]model.Repository, error) {
	return s.list(ctx,
		`SELECT `+repositoryColumns+` FROM repositories WHERE user_id = $1 ORDER BY id`, userID)
}

func (s *repositoryStore) ListByUsers(ctx context.Context, userIDs []int64) ([]model.Repository, error) {
	if len(userIDs) == 0 {
		return []model.Repository{}, nil
	}
	return s.list(ctx,
		`SELECT `+repositoryColumns+` FROM repositories WHERE user_id = ANY($1) ORDER BY id`, userIDs)
}

func (s *repositoryStore) list(ctx context.Context, sql string, args ...any) ([]model.Repository, error) {
	rows, err := s.queries.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying repositories: %w", err)
	}

	repos, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Repository, error) {
		repo, err := scanRepository(row)
		if err != nil {
			return model.Repository{}, err
		}
		return *repo, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning repositories: %w", err)
	}
	return repos, nil
}

func scanRepository(row pgx.Row) (*model.Repository, error) {
	var r model.Repository
	err := row.Scan(&r.ID, &r.UserID, &r.Name, &r.Author, &r.Link, &r.TimeLimit, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}
