package notify

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/venueflash/flashcore/flashcore/database/models"
)

// ReportSink persists abuse reports.
type ReportSink interface {
	PersistReport(ctx context.Context, report *models.NotificationReport) error
}

// ReportTracker records user-filed abuse reports against previously sent
// notifications. High-priority reasons are marked for an operator pipeline
// to escalate; this core only raises the signal, it never pages anyone.
type ReportTracker struct {
	mu      sync.Mutex
	reports []models.NotificationReport
	sink    ReportSink
	now     func() time.Time
}

func NewReportTracker(sink ReportSink) *ReportTracker {
	return &ReportTracker{sink: sink, now: time.Now}
}

// highPriorityReasons triggers the escalation flag.
var highPriorityReasons = []string{"harassment", "spam", "abuse", "threat"}

// TrackNotificationReport records one report and returns it. The
// distinguished warning for high-priority reasons is the only escalation
// side effect.
func (t *ReportTracker) TrackNotificationReport(ctx context.Context, auditID, reporterID, reason string) (*models.NotificationReport, error) {
	report := &models.NotificationReport{
		ID:           uuid.NewString(),
		AuditID:      auditID,
		ReporterID:   reporterID,
		Reason:       reason,
		HighPriority: isHighPriority(reason),
		CreatedAt:    t.now(),
	}

	t.mu.Lock()
	t.reports = append(t.reports, *report)
	t.mu.Unlock()

	if t.sink != nil {
		if err := t.sink.PersistReport(ctx, report); err != nil {
			return nil, err
		}
	}

	if report.HighPriority {
		slog.Warn("High-priority notification report filed",
			slog.String("type", "notify"),
			slog.String("report_id", report.ID),
			slog.String("audit_id", auditID),
			slog.String("reason", reason),
		)
	} else {
		slog.Info("Notification report filed",
			slog.String("type", "notify"),
			slog.String("report_id", report.ID),
			slog.String("audit_id", auditID),
		)
	}
	return report, nil
}

// Reports returns all reports tracked in this process.
func (t *ReportTracker) Reports() []models.NotificationReport {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]models.NotificationReport, len(t.reports))
	copy(out, t.reports)
	return out
}

func isHighPriority(reason string) bool {
	r := strings.ToLower(reason)
	for _, hp := range highPriorityReasons {
		if strings.Contains(r, hp) {
			return true
		}
	}
	return false
}
