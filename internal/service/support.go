package service

import (
	"context"
	"errors"
	"fmt"

	"trackerbot.app/relay/internal/model"
	"trackerbot.app/relay/internal/store"
)

// SupportContact is a repository's support contact. Handle and Link are empty when none is configured.
type SupportContact struct {
	Repository model.RepositoryRef `json:"repository"`
	Handle     string              `json:"handle,omitempty"`
	Link       string              `json:"link,omitempty"`
}

type SupportService interface {
	Contacts(ctx context.Context, telegramID string) ([]SupportContact, error)
}

type supportService struct {
	subscribers store.SubscriberStore
	repos       store.RepositoryStore
	supports    store.SupportStore
	linkBase    string
}

func NewSupportService(subscribers store.SubscriberStore, repos store.RepositoryStore, supports store.SupportStore, linkBase string) SupportService {
	return &supportService{
		subscribers: subscribers,
		repos:       repos,
		supports:    supports,
		linkBase:    linkBase,
	}
}

func (s *supportService) Contacts(ctx context.Context, telegramID string) ([]SupportContact, error) {
	repos, err := repositoriesOf(ctx, s.subscribers, s.repos, telegramID)
	if err != nil {
		return nil, err
	}

	contacts := make([]SupportContact, 0, len(repos))
	for _, r := range repos {
		contact := SupportContact{Repository: model.RepositoryRef{Author: r.Author, Name: r.Name}}

		support, err := s.supports.GetByRepository(ctx, r.UserID, r.ID)
		switch {
		case err == nil:
			contact.Handle = support.Handle()
			contact.Link = support.Link(s.linkBase)
		case errors.Is(err, store.ErrNotFound):
		default:
			return nil, fmt.Errorf("getting support for %s: %w", r.FullName(), err)
		}

		contacts = append(contacts, contact)
	}
	return contacts, nil
}
