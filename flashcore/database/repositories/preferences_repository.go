package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/uptrace/bun"
	"github.com/venueflash/flashcore/flashcore/database/models"
	"github.com/venueflash/flashcore/flashcore/utils"
)

// PreferencesRepository reads and writes per-user notification preferences.
// Missing rows resolve to the defaults; a user only gets a row once they
// change something.
type PreferencesRepository interface {
	PreferencesForUser(ctx context.Context, userID string) (models.NotificationPreferences, error)
	Update(ctx context.Context, userID string, prefs models.NotificationPreferences) error
}

type preferencesRepository struct {
	db    *bun.DB
	cache sync.Map
}

type prefsCacheEntry struct {
	prefs     models.NotificationPreferences
	expiresAt time.Time
}

func NewPreferencesRepository(db *bun.DB) PreferencesRepository {
	return &preferencesRepository{db: db}
}

func (r *preferencesRepository) PreferencesForUser(ctx context.Context, userID string) (models.NotificationPreferences, error) {
	if entry, ok := r.cache.Load(userID); ok {
		cached := entry.(prefsCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.prefs, nil
		}
		r.cache.Delete(userID)
	}

	row := new(models.UserPreferences)
	err := r.db.NewSelect().
		Model(row).
		Where("user_id = ?", userID).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultPreferences(), nil
	}
	if err != nil {
		return models.NotificationPreferences{}, fmt.Errorf("failed to get preferences: %w", err)
	}

	r.cache.Store(userID, prefsCacheEntry{
		prefs:     row.Notifications,
		expiresAt: time.Now().Add(utils.CacheExpiration),
	})
	return row.Notifications, nil
}

func (r *preferencesRepository) Update(ctx context.Context, userID string, prefs models.NotificationPreferences) error {
	row := &models.UserPreferences{
		UserID:        userID,
		Notifications: prefs,
		UpdatedAt:     time.Now(),
	}

	_, err := r.db.NewInsert().
		Model(row).
		On("CONFLICT (user_id) DO UPDATE").
		Set("notifications = EXCLUDED.notifications").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}

	r.cache.Delete(userID)
	return nil
}
