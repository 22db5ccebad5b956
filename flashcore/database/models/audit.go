package models

import (
	"time"

	"github.com/uptrace/bun"
)

// NotificationAudit is the durable record of one outbound send attempt,
// pass or fail. The in-memory ring buffer in the notify package holds the
// hot window; this table is the permanent journal.
type NotificationAudit struct {
	bun.BaseModel `bun:"table:notification_audits,alias:na"`

	ID               string            `bun:"id,pk" json:"id"`
	Timestamp        time.Time         `bun:"ts,notnull" json:"timestamp"`
	UserID           string            `bun:"user_id,notnull" json:"user_id"`
	NotificationType string            `bun:"notification_type,notnull" json:"notification_type"`
	Title            string            `bun:"title" json:"title"`
	Body             string            `bun:"body" json:"body"`
	RecipientCount   int               `bun:"recipient_count,notnull" json:"recipient_count"`
	Success          bool              `bun:"success,notnull" json:"success"`
	DeliveredCount   int               `bun:"delivered_count,notnull" json:"delivered_count"`
	FailedCount      int               `bun:"failed_count,notnull" json:"failed_count"`
	Metadata         map[string]string `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
}

// NotificationReport records a user-filed abuse report against a previously
// sent notification. HighPriority marks reasons an operator pipeline should
// escalate; nothing in this core notifies operators directly.
type NotificationReport struct {
	bun.BaseModel `bun:"table:notification_reports,alias:nr"`

	ID           string    `bun:"id,pk" json:"id"`
	AuditID      string    `bun:"audit_id,notnull" json:"audit_id"`
	ReporterID   string    `bun:"reporter_id,notnull" json:"reporter_id"`
	Reason       string    `bun:"reason,notnull" json:"reason"`
	HighPriority bool      `bun:"high_priority,notnull" json:"high_priority"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"created_at"`
}
