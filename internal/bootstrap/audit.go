package bootstrap

import "context"

// AuditLog is a security-relevant event: logins, logouts, registrations,
// company deletions, contract terminations, shutdowns.
type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
