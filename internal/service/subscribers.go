package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"trackerbot.app/relay/common/id"
	"trackerbot.app/relay/internal/model"
	"trackerbot.app/relay/internal/store"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrTelegramIDInUse   = errors.New("telegram id is linked to another user")
	ErrUserAlreadyLinked = errors.New("user is linked to another telegram id")
)

type SubscriberService interface {
	// Link connects a user to a Telegram chat. Linking the same pair again returns the existing subscriber.
	Link(ctx context.Context, userID int64, telegramID string) (*model.Subscriber, error)
	// ToggleNotifications flips the new-issue subscription and returns the updated subscriber.
	ToggleNotifications(ctx context.Context, telegramID string) (*model.Subscriber, error)
	List(ctx context.Context) ([]model.Subscriber, error)
}

type subscriberService struct {
	subscribers store.SubscriberStore
	txRunner    TxRunner
}

func NewSubscriberService(subscribers store.SubscriberStore, txRunner TxRunner) SubscriberService {
	return &subscriberService{subscribers: subscribers, txRunner: txRunner}
}

func (s *subscriberService) Link(ctx context.Context, userID int64, telegramID string) (*model.Subscriber, error) {
	if telegramID == "" {
		return nil, fmt.Errorf("telegram_id is required")
	}

	var linked *model.Subscriber
	err := s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		if _, err := stores.Users().GetByID(ctx, userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("getting user: %w", err)
		}

		existing, err := stores.Subscribers().GetByUserAndTelegramID(ctx, userID, telegramID)
		if err == nil {
			linked = existing
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("getting subscriber: %w", err)
		}

		if _, err := stores.Subscribers().GetByTelegramID(ctx, telegramID); err == nil {
			return ErrTelegramIDInUse
		} else if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("getting subscriber: %w", err)
		}

		sub := &model.Subscriber{
			ID:         id.New(),
			UserID:     userID,
			TelegramID: telegramID,
		}
		if err := stores.Subscribers().Create(ctx, sub); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return ErrUserAlreadyLinked
			}
			return fmt.Errorf("creating subscriber: %w", err)
		}
		linked = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "subscriber linked", "subscriber_id", linked.ID, "user_id", userID)
	return linked, nil
}

func (s *subscriberService) ToggleNotifications(ctx context.Context, telegramID string) (*model.Subscriber, error) {
	sub, err := s.subscribers.GetByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("getting subscriber: %w", err)
	}

	notify := !sub.NotifyAboutNewIssues
	if err := s.subscribers.SetNotify(ctx, sub.ID, notify); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSubscriberNotFound
		}
		return nil, fmt.Errorf("updating subscription: %w", err)
	}
	sub.NotifyAboutNewIssues = notify

	slog.InfoContext(ctx, "subscription toggled", "subscriber_id", sub.ID, "notify_about_new_issues", notify)
	return sub, nil
}

func (s *subscriberService) List(ctx context.Context) ([]model.Subscriber, error) {
	subs, err := s.subscribers.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing subscribers: %w", err)
	}
	return subs, nil
}
