package bootstrap

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Laktab-Noureddine-code/NessRH/internal/shared/contextutil"
)

// StdoutAuditLogger writes audit entries to the process log. It is the
// only sink in use; a durable store can implement AuditLogger later.
type StdoutAuditLogger struct{}

func NewStdoutAuditLogger() *StdoutAuditLogger {
	return &StdoutAuditLogger{}
}

func (l *StdoutAuditLogger) Log(ctx context.Context, entry AuditLog) {
	fields := []zap.Field{
		zap.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		zap.String("action", entry.Action),
		zap.String("message", entry.Message),
		zap.Any("meta", entry.Meta),
	}
	if rid := contextutil.GetRequestID(ctx); rid != "" {
		fields = append(fields, zap.String("request_id", rid))
	}
	zap.L().Named("audit").Info("audit event", fields...)
}
