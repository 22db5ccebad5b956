package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/venueflash/flashcore/flashcore/database/models"
)

// AuditRepository is the durable side of the notification audit journal.
// It implements notify.AuditSink, notify.ReportSink, and services.AuditSource.
type AuditRepository interface {
	Persist(ctx context.Context, entry *models.NotificationAudit) error
	PersistReport(ctx context.Context, report *models.NotificationReport) error
	GetByUser(ctx context.Context, userID string, limit int) ([]*models.NotificationAudit, error)
	GetByType(ctx context.Context, notificationType string, limit int) ([]*models.NotificationAudit, error)
	GetByTimeRange(ctx context.Context, from, to time.Time) ([]*models.NotificationAudit, error)
}

type auditRepository struct {
	db *bun.DB
}

func NewAuditRepository(db *bun.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Persist(ctx context.Context, entry *models.NotificationAudit) error {
	if _, err := r.db.NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("failed to persist audit entry: %w", err)
	}
	return nil
}

func (r *auditRepository) PersistReport(ctx context.Context, report *models.NotificationReport) error {
	if _, err := r.db.NewInsert().Model(report).Exec(ctx); err != nil {
		return fmt.Errorf("failed to persist notification report: %w", err)
	}
	return nil
}

func (r *auditRepository) GetByUser(ctx context.Context, userID string, limit int) ([]*models.NotificationAudit, error) {
	var entries []*models.NotificationAudit
	err := r.db.NewSelect().
		Model(&entries).
		Where("user_id = ?", userID).
		Order("ts DESC").
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to query audits by user: %w", err)
	}
	return entries, nil
}

func (r *auditRepository) GetByType(ctx context.Context, notificationType string, limit int) ([]*models.NotificationAudit, error) {
	var entries []*models.NotificationAudit
	err := r.db.NewSelect().
		Model(&entries).
		Where("notification_type = ?", notificationType).
		Order("ts DESC").
		Limit(limit).
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to query audits by type: %w", err)
	}
	return entries, nil
}

func (r *auditRepository) GetByTimeRange(ctx context.Context, from, to time.Time) ([]*models.NotificationAudit, error) {
	var entries []*models.NotificationAudit
	err := r.db.NewSelect().
		Model(&entries).
		Where("ts >= ?", from).
		Where("ts < ?", to).
		Order("ts ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to query audits by time range: %w", err)
	}
	return entries, nil
}
