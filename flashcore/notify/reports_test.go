package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/venueflash/flashcore/flashcore/database/models"
)

type memoryReportSink struct {
	persisted []models.NotificationReport
	err       error
}

func (s *memoryReportSink) PersistReport(_ context.Context, report *models.NotificationReport) error {
	if s.err != nil {
		return s.err
	}
	s.persisted = append(s.persisted, *report)
	return nil
}

func TestReportTracker_TrackNotificationReport(t *testing.T) {
	tests := []struct {
		name             string
		reason           string
		wantHighPriority bool
	}{
		{"harassment escalates", "harassment in message body", true},
		{"spam escalates", "this is Spam", true},
		{"threat escalates", "contains a threat", true},
		{"mundane complaint does not", "too many notifications", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &memoryReportSink{}
			tracker := NewReportTracker(sink)

			report, err := tracker.TrackNotificationReport(context.Background(), "audit-1", "u9", tt.reason)
			if err != nil {
				t.Fatalf("TrackNotificationReport() error = %v", err)
			}
			if report.HighPriority != tt.wantHighPriority {
				t.Errorf("HighPriority = %v, want %v", report.HighPriority, tt.wantHighPriority)
			}
			if report.AuditID != "audit-1" || report.ReporterID != "u9" {
				t.Errorf("report = %+v, want audit-1/u9", report)
			}
			if len(sink.persisted) != 1 {
				t.Errorf("sink received %d reports, want 1", len(sink.persisted))
			}
			if got := tracker.Reports(); len(got) != 1 || got[0].ID != report.ID {
				t.Errorf("Reports() = %+v, want the tracked report", got)
			}
		})
	}
}

func TestReportTracker_SinkFailurePropagates(t *testing.T) {
	sink := &memoryReportSink{err: errors.New("db down")}
	tracker := NewReportTracker(sink)

	_, err := tracker.TrackNotificationReport(context.Background(), "audit-1", "u1", "spam")
	if err == nil {
		t.Fatal("TrackNotificationReport() error = nil, want sink failure")
	}
}
