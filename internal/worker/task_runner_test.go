package worker_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"trackerbot.app/relay/internal/model"
	"trackerbot.app/relay/internal/notify"
	"trackerbot.app/relay/internal/queue"
	"trackerbot.app/relay/internal/service"
	"trackerbot.app/relay/internal/worker"
)

var _ = Describe("TaskRunner", func() {
	const statusStream = "tracker_status"

	var (
		ctx     context.Context
		mr      *miniredis.Miniredis
		client  *redis.Client
		cycles  *mockCycleRunner
		digests *mockDigestSender
		runner  *worker.TaskRunner
	)

	scan := queue.Message{ID: "1-0", TaskType: queue.TaskTypeNewIssueScan, Attempt: 1}
	digest := queue.Message{ID: "2-0", TaskType: queue.TaskTypeReviewDigest, TelegramID: "42", Attempt: 1}

	statuses := func() []redis.XMessage {
		entries, err := client.XRange(ctx, statusStream, "-", "+").Result()
		Expect(err).NotTo(HaveOccurred())
		return entries
	}

	BeforeEach(func() {
		ctx = context.Background()
		mr = miniredis.RunT(GinkgoT())
		client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		DeferCleanup(client.Close)

		cycles = &mockCycleRunner{}
		digests = &mockDigestSender{}
		runner = worker.NewTaskRunner(worker.TaskRunnerConfig{
			Cycles:       cycles,
			Digests:      digests,
			Redis:        client,
			StatusStream: statusStream,
		})
	})

	It("runs a cycle and publishes its summary", func() {
		cycles.RunCycleFn = func(ctx context.Context) (*service.CycleResult, error) {
			return &service.CycleResult{
				CycleID:      7,
				Repositories: 2,
				NewIssues:    model.Snapshot{"acme/api": {"Crash"}},
				Recipients:   model.SubscriberRepos{"42": {"acme/api"}},
				Delivery:     notify.DeliveryReport{Sent: 1},
			}, nil
		}

		Expect(runner.Handle(ctx, scan)).To(Succeed())

		entries := statuses()
		Expect(entries).To(HaveLen(1))
		Expect(entries[0].Values).To(HaveKeyWithValue("task_type", "new_issue_scan"))
		Expect(entries[0].Values).To(HaveKeyWithValue("cycle_id", "7"))
		Expect(entries[0].Values).To(HaveKeyWithValue("new_issues", "1"))
		Expect(entries[0].Values).To(HaveKeyWithValue("sent", "1"))
	})

	It("treats a held cycle lock as done", func() {
		cycles.RunCycleFn = func(ctx context.Context) (*service.CycleResult, error) {
			return nil, service.ErrCycleInProgress
		}

		Expect(runner.Handle(ctx, scan)).To(Succeed())
		Expect(statuses()[0].Values).To(HaveKeyWithValue("message", "skipped"))
	})

	It("returns other cycle failures for retry", func() {
		cycles.RunCycleFn = func(ctx context.Context) (*service.CycleResult, error) {
			return nil, fmt.Errorf("listing subscribers: %w", errors.New("db down"))
		}

		err := runner.Handle(ctx, scan)
		Expect(err).To(MatchError(ContainSubstring("running reconciliation cycle")))
		Expect(statuses()[0].Values).To(HaveKeyWithValue("level", "error"))
	})

	It("sends a digest to the message's chat", func() {
		var got string
		digests.SendDigestFn = func(ctx context.Context, telegramID string) (int, error) {
			got = telegramID
			return 3, nil
		}

		Expect(runner.Handle(ctx, digest)).To(Succeed())
		Expect(got).To(Equal("42"))
		Expect(statuses()[0].Values).To(HaveKeyWithValue("pull_requests", "3"))
		Expect(statuses()[0].Values).To(HaveKeyWithValue("telegram_id", "42"))
	})

	It("drops digests for unknown subscribers", func() {
		digests.SendDigestFn = func(ctx context.Context, telegramID string) (int, error) {
			return 0, service.ErrSubscriberNotFound
		}

		Expect(runner.Handle(ctx, digest)).To(Succeed())
	})

	It("returns digest delivery failures", func() {
		digests.SendDigestFn = func(ctx context.Context, telegramID string) (int, error) {
			return 0, errors.New("telegram down")
		}

		Expect(runner.Handle(ctx, digest)).To(MatchError(ContainSubstring("sending review digest")))
	})

	It("rejects unknown task types", func() {
		Expect(runner.Handle(ctx, queue.Message{TaskType: "issue_event"})).
			To(MatchError(ContainSubstring("unsupported task type")))
	})

	It("logs status stream failures without failing the task", func() {
		var buf bytes.Buffer
		previous := slog.Default()
		slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
		DeferCleanup(slog.SetDefault, previous)

		cycles.RunCycleFn = func(ctx context.Context) (*service.CycleResult, error) {
			return &service.CycleResult{CycleID: 3}, nil
		}
		mr.SetError("READONLY replica")

		Expect(runner.Handle(ctx, scan)).To(Succeed())
		Expect(buf.String()).To(ContainSubstring("failed to write task status"))
		Expect(buf.String()).To(ContainSubstring("READONLY replica"))
		Expect(buf.String()).To(ContainSubstring("stream=tracker_status"))
	})

	It("works without a status stream", func() {
		quiet := worker.NewTaskRunner(worker.TaskRunnerConfig{Cycles: &mockCycleRunner{
			RunCycleFn: func(ctx context.Context) (*service.CycleResult, error) {
				return &service.CycleResult{}, nil
			},
		}})

		Expect(quiet.Handle(ctx, scan)).To(Succeed())
		Expect(statuses()).To(BeEmpty())
	})
})
