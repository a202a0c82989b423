package notify

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"trackerbot.app/relay/common/logger"
	"trackerbot.app/relay/internal/model"
)

// DeliveryReport summarizes a fan-out. Failed maps chat IDs to the delivery error.
type DeliveryReport struct {
	Failed  map[string]error
	Sent    int
	Skipped int
}

type Dispatcher struct {
	sender      Sender
	parallelism int
}

func NewDispatcher(sender Sender, parallelism int) *Dispatcher {
	if parallelism <= 0 {
		parallelism = 1
	}
	return &Dispatcher{sender: sender, parallelism: parallelism}
}

// NotifyNewIssues sends each recipient one digest covering all of their
// repositories with new issues, split into several messages when it exceeds
// MaxMessageLength. A failed delivery is logged and recorded but never stops
// delivery to other recipients.
func (d *Dispatcher) NotifyNewIssues(ctx context.Context, recipients model.SubscriberRepos, newIssues model.Snapshot) DeliveryReport {
	report := DeliveryReport{Failed: map[string]error{}}

	chatIDs := make([]string, 0, len(recipients))
	for chatID := range recipients {
		chatIDs = append(chatIDs, chatID)
	}
	sort.Strings(chatIDs)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.parallelism)

	for _, chatID := range chatIDs {
		texts := NewIssuesMessages(recipients[chatID], newIssues, MaxMessageLength)
		if len(texts) == 0 {
			report.Skipped++
			continue
		}

		g.Go(func() error {
			sendCtx := logger.WithLogFields(gctx, logger.LogFields{TelegramID: &chatID})
			var err error
			for _, text := range texts {
				if err = d.sender.Send(sendCtx, chatID, text); err != nil {
					break
				}
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.ErrorContext(sendCtx, "failed to deliver new issue notification", "error", err)
				report.Failed[chatID] = err
				return nil
			}
			report.Sent++
			return nil
		})
	}
	_ = g.Wait()

	slog.InfoContext(ctx, "new issue notifications dispatched",
		"sent", report.Sent,
		"failed", len(report.Failed),
		"skipped", report.Skipped)

	return report
}

// Send delivers a single message, returning the delivery error.
func (d *Dispatcher) Send(ctx context.Context, chatID, text string) error {
	return d.sender.Send(ctx, chatID, text)
}
