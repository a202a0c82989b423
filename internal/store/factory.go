package store

import (
	"trackerbot.app/relay/core/db"
)

type Stores struct {
	queries db.Querier
}

func NewStores(queries db.Querier) *Stores {
	return &Stores{queries: queries}
}

func (s *Stores) Users() UserStore {
	return newUserStore(s.queries)
}

func (s *Stores) Repositories() RepositoryStore {
	return newRepositoryStore(s.queries)
}

func (s *Stores) Subscribers() SubscriberStore {
	return newSubscriberStore(s.queries)
}

func (s *Stores) Supports() SupportStore {
	return newSupportStore(s.queries)
}
