package queue

type TaskType string

const (
	// TaskTypeNewIssueScan runs one reconciliation cycle over every subscribed repository.
	TaskTypeNewIssueScan TaskType = "new_issue_scan"
	// TaskTypeReviewDigest sends the pull request review digest to one subscriber.
	TaskTypeReviewDigest TaskType = "review_digest"
)

type Task struct {
	TaskType   TaskType
	TelegramID string
	TraceID    *string
	Attempt    int
}

// NewScanTask builds the task that triggers a reconciliation cycle.
func NewScanTask() Task {
	return Task{TaskType: TaskTypeNewIssueScan}
}

func NewDigestTask(telegramID string) Task {
	return Task{TaskType: TaskTypeReviewDigest, TelegramID: telegramID}
}
