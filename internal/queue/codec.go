package queue

import (
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Stream entry field names.
const (
	fieldTaskType   = "task_type"
	fieldAttempt    = "attempt"
	fieldTelegramID = "telegram_id"
	fieldTraceID    = "trace_id"
	fieldLastError  = "last_error"
	fieldError      = "error"
)

// encodeFields renders a task as stream entry values. Empty optional fields are omitted.
func encodeFields(taskType TaskType, telegramID, traceID string, attempt int) map[string]any {
	if attempt <= 0 {
		attempt = 1
	}
	values := map[string]any{
		fieldTaskType: string(taskType),
		fieldAttempt:  attempt,
	}
	if telegramID != "" {
		values[fieldTelegramID] = telegramID
	}
	if traceID != "" {
		values[fieldTraceID] = traceID
	}
	return values
}

// ParseMessage decodes a stream entry. Entries that fail here can never succeed and
// are acked by the consumer instead of being retried.
func ParseMessage(msg redis.XMessage) (Message, error) {
	taskType := TaskType(stringField(msg.Values, fieldTaskType))
	telegramID := stringField(msg.Values, fieldTelegramID)
	if err := validateTask(taskType, telegramID); err != nil {
		return Message{}, err
	}

	attempt := 1
	if raw, ok := msg.Values[fieldAttempt]; ok {
		n, err := strconv.Atoi(fmt.Sprint(raw))
		if err != nil {
			return Message{}, fmt.Errorf("parsing %s: %w", fieldAttempt, err)
		}
		if n > 0 {
			attempt = n
		}
	}

	return Message{
		ID:         msg.ID,
		TaskType:   taskType,
		TelegramID: telegramID,
		Attempt:    attempt,
		TraceID:    stringField(msg.Values, fieldTraceID),
		Raw:        msg,
	}, nil
}

func validateTask(taskType TaskType, telegramID string) error {
	switch taskType {
	case "":
		return fmt.Errorf("missing task_type")
	case TaskTypeNewIssueScan:
		return nil
	case TaskTypeReviewDigest:
		if telegramID == "" {
			return fmt.Errorf("missing telegram_id")
		}
		return nil
	default:
		return fmt.Errorf("unknown task_type %q", taskType)
	}
}

func stringField(values map[string]any, key string) string {
	raw, ok := values[key]
	if !ok {
		return ""
	}
	return fmt.Sprint(raw)
}
