package service

import (
	"context"

	"trackerbot.app/relay/core/db"
	"trackerbot.app/relay/internal/store"
)

// StoreProvider is the store set available inside a transaction. Linking a subscriber
// checks the user and writes the subscriber row atomically, so only those two are exposed.
type StoreProvider interface {
	Users() store.UserStore
	Subscribers() store.SubscriberStore
}

type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

func NewTxRunner(database *db.DB) TxRunner {
	return &dbTxRunner{db: database}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q db.Querier) error {
		return fn(store.NewStores(q))
	})
}
