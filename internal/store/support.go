package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"trackerbot.app/relay/core/db"
	"trackerbot.app/relay/internal/model"
)

type supportStore struct {
	queries db.Querier
}

func newSupportStore(queries db.Querier) SupportStore {
	return &supportStore{queries: queries}
}

func (s *supportStore) GetByRepository(ctx context.Context, userID, repositoryID int64) (*model.Support, error) {
	var sup model.Support
	err := s.queries.QueryRow(ctx,
		`SELECT id, user_id, repository_id, telegram_username
		 FROM supports WHERE user_id = $1 AND repository_id = $2 ORDER BY id LIMIT 1`,
		userID, repositoryID,
	).Scan(&sup.ID, &sup.UserID, &sup.RepositoryID, &sup.TelegramUsername)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sup, nil
}
