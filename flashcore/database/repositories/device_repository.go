package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/venueflash/flashcore/flashcore/database/models"
)

// DeviceRepository tracks registered push targets per user.
type DeviceRepository interface {
	Register(ctx context.Context, device *models.Device) error
	DevicesForUser(ctx context.Context, userID string) ([]*models.Device, error)
	UsersWithDevices(ctx context.Context) ([]string, error)
	Remove(ctx context.Context, token string) error
}

type deviceRepository struct {
	db *bun.DB
}

func NewDeviceRepository(db *bun.DB) DeviceRepository {
	return &deviceRepository{db: db}
}

func (r *deviceRepository) Register(ctx context.Context, device *models.Device) error {
	now := time.Now()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.LastSeenAt = now

	_, err := r.db.NewInsert().
		Model(device).
		On("CONFLICT (token) DO UPDATE").
		Set("user_id = EXCLUDED.user_id").
		Set("last_seen_at = EXCLUDED.last_seen_at").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (r *deviceRepository) DevicesForUser(ctx context.Context, userID string) ([]*models.Device, error) {
	var devices []*models.Device
	err := r.db.NewSelect().
		Model(&devices).
		Where("user_id = ?", userID).
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

func (r *deviceRepository) UsersWithDevices(ctx context.Context) ([]string, error) {
	var userIDs []string
	err := r.db.NewSelect().
		Model((*models.Device)(nil)).
		ColumnExpr("DISTINCT user_id").
		Scan(ctx, &userIDs)

	if err != nil {
		return nil, fmt.Errorf("failed to list users with devices: %w", err)
	}
	return userIDs, nil
}

func (r *deviceRepository) Remove(ctx context.Context, token string) error {
	_, err := r.db.NewDelete().
		Model((*models.Device)(nil)).
		Where("token = ?", token).
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to remove device: %w", err)
	}
	return nil
}
