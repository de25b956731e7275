package security

import (
	"time"

	"go.uber.org/zap"
)

// AuditEntry is a compliance log record; the user id is pseudonymised
type AuditEntry struct {
	UserID           string    `json:"user_id"`
	Action           string    `json:"action"`
	Resource         string    `json:"resource"`
	Timestamp        time.Time `json:"timestamp"`
	ComplianceStatus string    `json:"compliance_status"`
}

// Auditor writes audit entries to a dedicated logger
type Auditor struct {
	log *zap.Logger
}

// NewAuditor creates an auditor logging under the "audit" name
func NewAuditor(log *zap.Logger) *Auditor {
	return &Auditor{log: log.Named("audit")}
}

// Record builds and logs an audit entry
func (a *Auditor) Record(userID, action, resource string, at time.Time) AuditEntry {
	entry := AuditEntry{
		UserID:           HashID(userID),
		Action:           action,
		Resource:         resource,
		Timestamp:        at,
		ComplianceStatus: "LOGGED",
	}
	a.log.Info("audit",
		zap.String("user_id", entry.UserID),
		zap.String("action", entry.Action),
		zap.String("resource", entry.Resource),
		zap.Time("timestamp", entry.Timestamp),
		zap.String("compliance_status", entry.ComplianceStatus),
	)
	return entry
}
