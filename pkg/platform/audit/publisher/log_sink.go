package publisher

import (
	"context"
	"log/slog"

	audit "storefront/pkg/platform/audit"
)

// LogSink writes each event as a structured log line tagged log_type=audit.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Append(ctx context.Context, event audit.Event) error {
	args := []any{
		"event", event.Action,
		"log_type", "audit",
		"category", string(event.Category),
		"tenant_id", event.TenantID.String(),
		"subject", event.Subject,
	}
	if !event.UserID.IsNil() {
		args = append(args, "user_id", event.UserID.String())
	}
	if event.Reason != "" {
		args = append(args, "reason", event.Reason)
	}
	if event.RequestID != "" {
		args = append(args, "request_id", event.RequestID)
	}
	for k, v := range event.Details {
		args = append(args, k, v)
	}
	s.logger.InfoContext(ctx, event.Action, args...)
	return nil
}
