package notify

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/venueflash/flashcore/flashcore/database/models"
	"github.com/venueflash/flashcore/flashcore/logger"
)

// AuditSink persists entries beyond the in-memory window. The bun-backed
// repository and the S3 archive both implement it.
type AuditSink interface {
	Persist(ctx context.Context, entry *models.NotificationAudit) error
}

// AuditLog journals every send attempt. The hot window lives in a
// fixed-capacity ring buffer (oldest evicted first); each append also goes
// to the durable sinks.
type AuditLog struct {
	mu      sync.RWMutex
	entries []models.NotificationAudit
	head    int
	size    int
	sinks   []AuditSink
	now     func() time.Time
}

// NewAuditLog creates a ring of the given capacity.
func NewAuditLog(capacity int, sinks ...AuditSink) *AuditLog {
	if capacity < 1 {
		capacity = 1
	}
	return &AuditLog{
		entries: make([]models.NotificationAudit, capacity),
		sinks:   sinks,
		now:     time.Now,
	}
}

// Append journals one send attempt. Missing id/timestamp are filled in.
// Sink failures are logged, never propagated: losing a durable copy must not
// block the send path.
func (l *AuditLog) Append(ctx context.Context, entry models.NotificationAudit) models.NotificationAudit {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = l.now()
	}

	l.mu.Lock()
	l.entries[l.head] = entry
	l.head = (l.head + 1) % len(l.entries)
	if l.size < len(l.entries) {
		l.size++
	}
	l.mu.Unlock()

	for _, sink := range l.sinks {
		if err := sink.Persist(ctx, &entry); err != nil {
			logger.LogError("Audit sink persist failed", err,
				"audit_id", entry.ID,
				"notification_type", entry.NotificationType)
		}
	}
	return entry
}

// Export returns the buffered window oldest-first.
func (l *AuditLog) Export() []models.NotificationAudit {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.NotificationAudit, 0, l.size)
	start := l.head - l.size
	if start < 0 {
		start += len(l.entries)
	}
	for i := 0; i < l.size; i++ {
		out = append(out, l.entries[(start+i)%len(l.entries)])
	}
	return out
}

// ByUser returns buffered entries for one user, oldest-first.
func (l *AuditLog) ByUser(userID string) []models.NotificationAudit {
	return l.filter(func(e *models.NotificationAudit) bool {
		return e.UserID == userID
	})
}

// ByType returns buffered entries of one notification type, oldest-first.
func (l *AuditLog) ByType(notificationType string) []models.NotificationAudit {
	return l.filter(func(e *models.NotificationAudit) bool {
		return e.NotificationType == notificationType
	})
}

// ByTimeRange returns buffered entries with from <= ts < to, oldest-first.
func (l *AuditLog) ByTimeRange(from, to time.Time) []models.NotificationAudit {
	return l.filter(func(e *models.NotificationAudit) bool {
		return !e.Timestamp.Before(from) && e.Timestamp.Before(to)
	})
}

// Len reports how many entries the window currently holds.
func (l *AuditLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.size
}

func (l *AuditLog) filter(keep func(*models.NotificationAudit) bool) []models.NotificationAudit {
	all := l.Export()
	out := all[:0]
	for _, e := range all {
		if keep(&e) {
			out = append(out, e)
		}
	}
	return out
}
