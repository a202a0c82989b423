package store

import (
	"context"
	"errors"

	"trackerbot.app/relay/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness constraint
var ErrConflict = errors.New("conflict")

// UserStore defines the contract for user data access
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// RepositoryStore defines the contract for tracked repository data access
type RepositoryStore interface {
	GetByID(ctx context.Context, id int64) (*model.Repository, error)
	GetByAuthorAndName(ctx context.Context, author, name string) (*model.Repository, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Repository, error)
	ListByUsers(ctx context.Context, userIDs []int64) ([]model.Repository, error)
}

// SubscriberStore defines the contract for Telegram subscriber data access
type SubscriberStore interface {
	GetByTelegramID(ctx context.Context, telegramID string) (*model.Subscriber, error)
	GetByUserAndTelegramID(ctx context.Context, userID int64, telegramID string) (*model.Subscriber, error)
	ListSubscribed(ctx context.Context) ([]model.Subscriber, error)
	ListAll(ctx context.Context) ([]model.Subscriber, error)
	Create(ctx context.Context, sub *model.Subscriber) error
	SetNotify(ctx context.Context, id int64, notify bool) error
}

// SupportStore defines the contract for support contact data access
type SupportStore interface {
	GetByRepository(ctx context.Context, userID, repositoryID int64) (*model.Support, error)
}
