package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent is one activity-trail entry as it is mirrored to the process log
type AuditEvent struct {
	Timestamp time.Time
	Username  string
	Action    string
	Details   string
	IPAddress string
	Failure   bool
}

// AuditLogger mirrors activity-trail entries into structured logs
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogEvent writes the event at info level, or warn level for failures
func (al *AuditLogger) LogEvent(ctx context.Context, event AuditEvent) {
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	attrs := []slog.Attr{
		slog.String("audit_type", "activity"),
		slog.String("action", event.Action),
		slog.String("username", event.Username),
		slog.String("timestamp", ts.UTC().Format(time.RFC3339)),
	}

	if event.Details != "" {
		attrs = append(attrs, slog.String("details", event.Details))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}

	level := slog.LevelInfo
	if event.Failure {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}
