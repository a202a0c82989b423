package logger

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// LogFields are attached to a context once and added to every record logged with it.
type LogFields struct {
	CycleID    *int64
	MessageID  *string
	TaskType   *string
	Repository *string // owner/name
	TelegramID *string
	Component  string // e.g. "tracker.worker"
}

// WithLogFields merges fields into those already on ctx. Set values win over existing ones.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := GetLogFields(ctx)
	if fields.CycleID != nil {
		merged.CycleID = fields.CycleID
	}
	if fields.MessageID != nil {
		merged.MessageID = fields.MessageID
	}
	if fields.TaskType != nil {
		merged.TaskType = fields.TaskType
	}
	if fields.Repository != nil {
		merged.Repository = fields.Repository
	}
	if fields.TelegramID != nil {
		merged.TelegramID = fields.TelegramID
	}
	if fields.Component != "" {
		merged.Component = fields.Component
	}
	return context.WithValue(ctx, contextKey{}, merged)
}

func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(contextKey{}).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func (f LogFields) attrs() []slog.Attr {
	var attrs []slog.Attr
	if f.CycleID != nil {
		attrs = append(attrs, slog.Int64("cycle_id", *f.CycleID))
	}
	if f.MessageID != nil {
		attrs = append(attrs, slog.String("message_id", *f.MessageID))
	}
	if f.TaskType != nil {
		attrs = append(attrs, slog.String("task_type", *f.TaskType))
	}
	if f.Repository != nil {
		attrs = append(attrs, slog.String("repository", *f.Repository))
	}
	if f.TelegramID != nil {
		attrs = append(attrs, slog.String("telegram_id", *f.TelegramID))
	}
	if f.Component != "" {
		attrs = append(attrs, slog.String("component", f.Component))
	}
	return attrs
}

// Ptr returns a pointer to v, for filling LogFields inline.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate cuts s to maxLen bytes and appends "..." when it was longer.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
