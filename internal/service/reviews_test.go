package service_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trackerbot.app/relay/internal/model"
	"trackerbot.app/relay/internal/notify"
	"trackerbot.app/relay/internal/service"
	"trackerbot.app/relay/internal/store"
)

var _ = Describe("ReviewService", func() {
	var (
		ctx    context.Context
		subs   *mockSubscriberStore
		repos  *mockRepositoryStore
		source *mockIssueSource
		sender *mockSender
		svc    service.ReviewService
	)

	BeforeEach(func() {
		ctx = context.Background()
		subs = &mockSubscriberStore{
			getByTelegramIDFn: func(_ context.Context, telegramID string) (*model.Subscriber, error) {
				if telegramID != "100" {
					return nil, store.ErrNotFound
				}
				return &model.Subscriber{ID: 1, UserID: 7, TelegramID: telegramID}, nil
			},
		}
		repos = &mockRepositoryStore{
			listByUserFn: func(_ context.Context, _ int64) ([]model.Repository, error) {
				return []model.Repository{
					{ID: 10, UserID: 7, Author: "octo", Name: "hello"},
					{ID: 11, UserID: 7, Author: "octo", Name: "broken"},
				}, nil
			},
		}
		source = &mockIssueSource{
			listOpenPullRequestsFn: func(_ context.Context, repo model.RepositoryRef) ([]model.PullRequest, error) {
				if repo.Name == "broken" {
					return nil, errors.New("bad gateway")
				}
				return []model.PullRequest{
					{Number: 1, Title: "Reviewed", Author: "alice"},
					{Number: 2, Title: "Unreviewed", Author: "bob"},
				}, nil
			},
			listReviewsFn: func(_ context.Context, _ model.RepositoryRef, number int) ([]model.Review, error) {
				if number == 1 {
					return []model.Review{{Reviewer: "carol", State: model.ReviewStateChangesRequested}}, nil
				}
				return nil, nil
			},
		}
		sender = &mockSender{}
		svc = service.NewReviewService(subs, repos, source, notify.NewDispatcher(sender, 1))
	})

	It("collects open pull requests with reviews", func() {
		digest, err := svc.Digest(ctx, "100")
		Expect(err).NotTo(HaveOccurred())
		Expect(digest).To(HaveLen(1))
		Expect(digest[0].Repository).To(Equal("octo/hello"))
		Expect(digest[0].PullRequest.Title).To(Equal("Reviewed"))
		Expect(digest[0].Reviews).To(HaveLen(1))
	})

	It("refuses to send without a Telegram bot", func() {
		quiet := service.NewReviewService(subs, repos, source, nil)

		_, err := quiet.SendDigest(ctx, "100")
		Expect(err).To(MatchError(service.ErrNotificationsDisabled))
	})

	It("sends the digest to the subscriber", func() {
		n, err := svc.SendDigest(ctx, "100")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(1))
		Expect(sender.messages()["100"]).To(ContainSubstring("State: CHANGES_REQUESTED"))
	})

	It("sends nothing when there are no reviews", func() {
		source.listReviewsFn = func(_ context.Context, _ model.RepositoryRef, _ int) ([]model.Review, error) {
			return nil, nil
		}

		n, err := svc.SendDigest(ctx, "100")
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(BeZero())
		Expect(sender.messages()).To(BeEmpty())
	})

	It("reports unknown subscribers", func() {
		_, err := svc.SendDigest(ctx, "999")
		Expect(err).To(MatchError(service.ErrSubscriberNotFound))
	})
})
