package worker

import (
	"context"

	"trackerbot.app/relay/internal/queue"
	"trackerbot.app/relay/internal/service"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// TaskHandler executes the work a message describes.
type TaskHandler interface {
	Handle(ctx context.Context, msg queue.Message) error
}

// CycleRunner is the slice of service.TrackerService the worker drives.
type CycleRunner interface {
	RunCycle(ctx context.Context) (*service.CycleResult, error)
}

type DigestSender interface {
	SendDigest(ctx context.Context, telegramID string) (int, error)
}
