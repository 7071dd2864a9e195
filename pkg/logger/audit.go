package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType string
	IPAddress string
	UserAgent string
	Details   string
}

// AuditLogger writes security events as JSON lines to a daily-rotated file.
// The file sink is independent of the database event log, so an attacker who
// gains delete access to the security_log table cannot erase the file trail.
type AuditLogger struct {
	logger *slog.Logger
	closer io.Closer
}

// NewAuditLogger opens a rotating file sink under dir. Files rotate daily and
// are kept for retention.
func NewAuditLogger(dir string, retention time.Duration) (*AuditLogger, error) {
	writer, err := rotatelogs.New(
		filepath.Join(dir, "security-%Y-%m-%d.log"),
		rotatelogs.WithRotationTime(24*time.Hour),
		rotatelogs.WithMaxAge(retention),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log sink: %w", err)
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: slog.LevelInfo})

	return &AuditLogger{
		logger: slog.New(handler),
		closer: writer,
	}, nil
}

// NewAuditLoggerWithWriter builds an audit logger over an arbitrary writer.
// Used in tests and when file logging is disabled.
func NewAuditLoggerWithWriter(w io.Writer) *AuditLogger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	return &AuditLogger{logger: slog.New(handler)}
}

// Log writes one audit event line.
func (al *AuditLogger) Log(event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("event_type", event.EventType),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", TruncateUserAgent(event.UserAgent)))
	}
	if event.Details != "" {
		attrs = append(attrs, slog.String("details", event.Details))
	}

	al.logger.LogAttrs(context.Background(), slog.LevelInfo, "security_event", attrs...)
}

// Close releases the file sink.
func (al *AuditLogger) Close() error {
	if al.closer == nil {
		return nil
	}
	return al.closer.Close()
}
