package worker_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trackerbot.app/relay/internal/queue"
	"trackerbot.app/relay/internal/worker"
)

var _ = Describe("Worker", func() {
	var (
		ctx      context.Context
		consumer *mockConsumer
		handler  *mockHandler
		w        *worker.Worker
	)

	scan := queue.Message{ID: "1-0", TaskType: queue.TaskTypeNewIssueScan, Attempt: 1}

	BeforeEach(func() {
		ctx = context.Background()
		consumer = &mockConsumer{}
		handler = &mockHandler{}
		w = worker.New(consumer, handler, worker.Config{MaxAttempts: 3})
	})

	Describe("ProcessMessage", func() {
		It("acks after the handler succeeds", func() {
			Expect(w.ProcessMessage(ctx, scan)).To(Succeed())
			Expect(consumer.ackedIDs()).To(ConsistOf("1-0"))
		})

		It("leaves failed messages unacked", func() {
			handler.HandleFn = func(ctx context.Context, msg queue.Message) error {
				return errors.New("github down")
			}

			Expect(w.ProcessMessage(ctx, scan)).To(MatchError("github down"))
			Expect(consumer.ackedIDs()).To(BeEmpty())
		})

		It("turns a panic into an error", func() {
			handler.HandleFn = func(ctx context.Context, msg queue.Message) error {
				panic("nil map")
			}

			Expect(w.ProcessMessage(ctx, scan)).To(MatchError(ContainSubstring("panic: nil map")))
		})

		It("still succeeds when the ack fails", func() {
			consumer.ackErr = errors.New("redis gone")
			Expect(w.ProcessMessage(ctx, scan)).To(Succeed())
		})
	})

	Describe("HandleFailedMessage", func() {
		It("requeues below the attempt limit", func() {
			w.HandleFailedMessage(ctx, scan, errors.New("boom"))
			Expect(consumer.requeued).To(ConsistOf("1-0"))
			Expect(consumer.dead).To(BeEmpty())
		})

		It("dead-letters at the attempt limit", func() {
			last := scan
			last.Attempt = 3

			w.HandleFailedMessage(ctx, last, errors.New("boom"))
			Expect(consumer.dead).To(ConsistOf("1-0"))
			Expect(consumer.requeued).To(BeEmpty())
		})
	})

	Describe("Run", func() {
		It("processes batches until stopped", func() {
			failing := queue.Message{ID: "2-0", TaskType: queue.TaskTypeReviewDigest, TelegramID: "9", Attempt: 1}
			consumer.batches = [][]queue.Message{{scan, failing}}
			handler.HandleFn = func(ctx context.Context, msg queue.Message) error {
				if msg.ID == "2-0" {
					return errors.New("telegram down")
				}
				return nil
			}

			done := make(chan error, 1)
			go func() { done <- w.Run(ctx) }()

			Eventually(consumer.ackedIDs).Should(ConsistOf("1-0"))
			w.Stop()
			Eventually(done).Should(Receive(BeNil()))

			consumer.mu.Lock()
			defer consumer.mu.Unlock()
			Expect(consumer.requeued).To(ConsistOf("2-0"))
		})

		It("returns when the context is cancelled", func() {
			runCtx, cancel := context.WithCancel(ctx)
			done := make(chan error, 1)
			go func() { done <- w.Run(runCtx) }()

			cancel()
			Eventually(done, time.Second).Should(Receive(MatchError(context.Canceled)))
		})
	})
})
