package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent is a security-relevant event worth a structured audit line.
type AuditEvent struct {
	EventType     string
	Username      string
	Email         string
	ClientAddr    string
	Success       bool
	FailureReason string
}

// AuditLogger emits structured audit records for login, reset and account
// events on top of the application logger.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger}
}

// LogAuthAttempt records a login attempt outcome. Emails are masked before
// they reach the log stream.
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "auth"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.Username != "" {
		attrs = append(attrs, slog.String("username", event.Username))
	}
	if event.ClientAddr != "" {
		attrs = append(attrs, slog.String("client_addr", event.ClientAddr))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	al.log(event.Success, attrs)
}

// LogResetEvent records password-reset request and confirmation outcomes.
func (al *AuditLogger) LogResetEvent(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", "password_reset"),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.Email != "" {
		attrs = append(attrs, slog.String("email", SanitizedEmail(event.Email)))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	al.log(event.Success, attrs)
}

// LogAccountAction records account lifecycle events such as admin creation.
func (al *AuditLogger) LogAccountAction(eventType, username, clientAddr string) {
	attrs := []slog.Attr{
		slog.String("audit_type", "account"),
		slog.String("event_type", eventType),
		slog.String("username", username),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if clientAddr != "" {
		attrs = append(attrs, slog.String("client_addr", clientAddr))
	}

	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "audit", attrs...)
}

func (al *AuditLogger) log(success bool, attrs []slog.Attr) {
	level := slog.LevelWarn
	if success {
		level = slog.LevelInfo
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}
