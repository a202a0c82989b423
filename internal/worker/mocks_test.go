package worker_test

import (
	"context"
	"sync"
	"time"

	"trackerbot.app/relay/internal/queue"
	"trackerbot.app/relay/internal/service"
)

type mockConsumer struct {
	mu       sync.Mutex
	batches  [][]queue.Message
	acked    []string
	requeued []string
	dead     []string
	ackErr   error
}

func (m *mockConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	m.mu.Lock()
	if len(m.batches) > 0 {
		batch := m.batches[0]
		m.batches = m.batches[1:]
		m.mu.Unlock()
		return batch, nil
	}
	m.mu.Unlock()
	time.Sleep(time.Millisecond)
	return nil, nil
}

func (m *mockConsumer) Ack(ctx context.Context, msg queue.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ackErr != nil {
		return m.ackErr
	}
	m.acked = append(m.acked, msg.ID)
	return nil
}

func (m *mockConsumer) Requeue(ctx context.Context, msg queue.Message, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requeued = append(m.requeued, msg.ID)
	return nil
}

func (m *mockConsumer) SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dead = append(m.dead, msg.ID)
	return nil
}

func (m *mockConsumer) ackedIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acked...)
}

type mockHandler struct {
	HandleFn func(ctx context.Context, msg queue.Message) error
}

func (m *mockHandler) Handle(ctx context.Context, msg queue.Message) error {
	if m.HandleFn != nil {
		return m.HandleFn(ctx, msg)
	}
	return nil
}

type mockCycleRunner struct {
	RunCycleFn func(ctx context.Context) (*service.CycleResult, error)
}

func (m *mockCycleRunner) RunCycle(ctx context.Context) (*service.CycleResult, error) {
	return m.RunCycleFn(ctx)
}

type mockDigestSender struct {
	SendDigestFn func(ctx context.Context, telegramID string) (int, error)
}

func (m *mockDigestSender) SendDigest(ctx context.Context, telegramID string) (int, error) {
	return m.SendDigestFn(ctx, telegramID)
}
