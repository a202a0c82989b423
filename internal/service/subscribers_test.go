package service_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trackerbot.app/relay/internal/model"
	"trackerbot.app/relay/internal/service"
	"trackerbot.app/relay/internal/store"
)

var _ = Describe("SubscriberService", func() {
	var (
		ctx      context.Context
		users    *mockUserStore
		subs     *mockSubscriberStore
		txRunner *mockTxRunner
		svc      service.SubscriberService
	)

	BeforeEach(func() {
		ctx = context.Background()
		users = &mockUserStore{}
		subs = &mockSubscriberStore{}
		txRunner = &mockTxRunner{provider: &mockStoreProvider{users: users, subscribers: subs}}
		svc = service.NewSubscriberService(subs, txRunner)
	})

	Describe("Link", func() {
		It("creates a subscriber with a generated ID inside a transaction", func() {
			var created *model.Subscriber
			subs.createFn = func(_ context.Context, sub *model.Subscriber) error {
				created = sub
				return nil
			}

			sub, err := svc.Link(ctx, 7, "100")
			Expect(err).NotTo(HaveOccurred())
			Expect(sub.ID).NotTo(BeZero())
			Expect(sub.UserID).To(Equal(int64(7)))
			Expect(sub.NotifyAboutNewIssues).To(BeFalse())
			Expect(created).To(Equal(sub))
			Expect(txRunner.calls).To(Equal(1))
		})

		It("returns the existing link", func() {
			existing := &model.Subscriber{ID: 3, UserID: 7, TelegramID: "100"}
			subs.getByUserAndTelegramIDFn = func(_ context.Context, _ int64, _ string) (*model.Subscriber, error) {
				return existing, nil
			}
			subs.createFn = func(_ context.Context, _ *model.Subscriber) error {
				Fail("should not create a duplicate subscriber")
				return nil
			}

			sub, err := svc.Link(ctx, 7, "100")
			Expect(err).NotTo(HaveOccurred())
			Expect(sub).To(Equal(existing))
		})

		It("rejects a telegram id linked to someone else", func() {
			subs.getByTelegramIDFn = func(_ context.Context, _ string) (*model.Subscriber, error) {
				return &model.Subscriber{ID: 3, UserID: 8, TelegramID: "100"}, nil
			}

			_, err := svc.Link(ctx, 7, "100")
			Expect(err).To(MatchError(service.ErrTelegramIDInUse))
		})

		It("maps a uniqueness conflict on the user", func() {
			subs.createFn = func(_ context.Context, _ *model.Subscriber) error {
				return store.ErrConflict
			}

			_, err := svc.Link(ctx, 7, "100")
			Expect(err).To(MatchError(service.ErrUserAlreadyLinked))
		})

		It("reports unknown users", func() {
			users.getByIDFn = func(_ context.Context, _ int64) (*model.User, error) {
				return nil, store.ErrNotFound
			}

			_, err := svc.Link(ctx, 7, "100")
			Expect(err).To(MatchError(service.ErrUserNotFound))
		})
	})

	Describe("ToggleNotifications", func() {
		It("flips the subscription flag", func() {
			subs.getByTelegramIDFn = func(_ context.Context, _ string) (*model.Subscriber, error) {
				return &model.Subscriber{ID: 3, UserID: 7, TelegramID: "100"}, nil
			}
			var stored bool
			subs.setNotifyFn = func(_ context.Context, id int64, notify bool) error {
				Expect(id).To(Equal(int64(3)))
				stored = notify
				return nil
			}

			sub, err := svc.ToggleNotifications(ctx, "100")
			Expect(err).NotTo(HaveOccurred())
			Expect(sub.NotifyAboutNewIssues).To(BeTrue())
			Expect(stored).To(BeTrue())
		})

		It("reports unknown subscribers", func() {
			_, err := svc.ToggleNotifications(ctx, "100")
			Expect(err).To(MatchError(service.ErrSubscriberNotFound))
		})
	})
})
