package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"trackerbot.app/relay/core/db"
	"trackerbot.app/relay/internal/model"
)

type subscriberStore struct {
	queries db.Querier
}

func newSubscriberStore(queries db.Querier) SubscriberStore {
	return &subscriberStore{queries: queries}
}

const subscriberColumns = `id, user_id, telegram_id, notify_about_new_issues, created_at, updated_at`

func (s *subscriberStore) GetByTelegramID(ctx context.Context, telegramID string) (*model.Subscriber, error) {
	row := s.queries.QueryRow(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE telegram_id = $1`, telegramID)
	return scanSubscriber(row)
}

func (s *subscriberStore) GetByUserAndTelegramID(ctx context.Context, userID int64, telegramID string) (*model.Subscriber, error) {
	row := s.queries.QueryRow(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE user_id = $1 AND telegram_id = $2`,
		userID, telegramID)
	return scanSubscriber(row)
}

func (s *subscriberStore) ListSubscribed(ctx context.Context) ([]model.Subscriber, error) {
	return s.list(ctx,
		`SELECT `+subscriberColumns+` FROM subscribers WHERE notify_about_new_issues ORDER BY id`)
}

func (s *subscriberStore) ListAll(ctx context.Context) ([]model.Subscriber, error) {
	return s.list(ctx, `SELECT `+subscriberColumns+` FROM subscribers ORDER BY id`)
}

func (s *subscriberStore) Create(ctx context.Context, sub *model.Subscriber) error {
	row := s.queries.QueryRow(ctx,
		`INSERT INTO subscribers (id, user_id, telegram_id, notify_about_new_issues)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+subscriberColumns,
		sub.ID, sub.UserID, sub.TelegramID, sub.NotifyAboutNewIssues)
	created, err := scanSubscriber(row)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	*sub = *created
	return nil
}

func (s *subscriberStore) SetNotify(ctx context.Context, id int64, notify bool) error {
	tag, err := s.queries.Exec(ctx,
		`UPDATE subscribers SET notify_about_new_issues = $2, updated_at = now() WHERE id = $1`, id, notify)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *subscriberStore) list(ctx context.Context, sql string, args ...any) ([]model.Subscriber, error) {
	rows, err := s.queries.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying subscribers: %w", err)
	}

	subs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Subscriber, error) {
		sub, err := scanSubscriber(row)
		if err != nil {
			return model.Subscriber{}, err
		}
		return *sub, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning subscribers: %w", err)
	}
	return subs, nil
}

func scanSubscriber(row pgx.Row) (*model.Subscriber, error) {
	var sub model.Subscriber
	err := row.Scan(&sub.ID, &sub.UserID, &sub.TelegramID, &sub.NotifyAboutNewIssues, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
