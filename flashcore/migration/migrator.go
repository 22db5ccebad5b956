// Package migration imports offers, claims, and preferences from the legacy
// MongoDB deployment into Postgres. One-shot, run from the daemon via flag.
package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/venueflash/flashcore/flashcore/database/models"
)

type Migrator struct {
	pgDB      *bun.DB
	mongoURI  string
	mongoName string
	batchSize int
	stats     Stats
}

type Stats struct {
	Offers      int
	Claims      int
	Preferences int
	StartTime   time.Time
}

func NewMigrator(pgDB *bun.DB, mongoURI, mongoName string) *Migrator {
	return &Migrator{
		pgDB:      pgDB,
		mongoURI:  mongoURI,
		mongoName: mongoName,
		batchSize: 1000,
	}
}

// SetBatchSize overrides the default insert batch size (useful behind
// poolers with statement timeouts).
func (m *Migrator) SetBatchSize(size int) {
	if size > 0 {
		m.batchSize = size
	}
}

// Run migrates all three collections. Inserts are idempotent (conflicts on
// primary key are skipped) so a failed run can be retried.
func (m *Migrator) Run(ctx context.Context) (Stats, error) {
	m.stats = Stats{StartTime: time.Now()}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(m.mongoURI))
	if err != nil {
		return m.stats, fmt.Errorf("failed to connect to legacy mongo: %w", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(m.mongoName)

	if err := m.migrateOffers(ctx, db); err != nil {
		return m.stats, err
	}
	if err := m.migrateClaims(ctx, db); err != nil {
		return m.stats, err
	}
	if err := m.migratePreferences(ctx, db); err != nil {
		return m.stats, err
	}

	slog.Info("Legacy import finished",
		slog.String("type", "sys"),
		slog.Int("offers", m.stats.Offers),
		slog.Int("claims", m.stats.Claims),
		slog.Int("preferences", m.stats.Preferences),
		slog.Duration("took", time.Since(m.stats.StartTime)),
	)
	return m.stats, nil
}

type legacyOffer struct {
	ID           string    `bson:"_id"`
	VenueID      string    `bson:"venueId"`
	Title        string    `bson:"title"`
	Description  string    `bson:"description"`
	MaxClaims    int       `bson:"maxClaims"`
	ClaimedCount int       `bson:"claimedCount"`
	StartTime    time.Time `bson:"startTime"`
	EndTime      time.Time `bson:"endTime"`
	CreatedAt    time.Time `bson:"createdAt"`
}

func (m *Migrator) migrateOffers(ctx context.Context, db *mongo.Database) error {
	cursor, err := db.Collection("offers").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to read legacy offers: %w", err)
	}
	defer cursor.Close(ctx)

	batch := make([]*models.Offer, 0, m.batchSize)
	for cursor.Next(ctx) {
		var legacy legacyOffer
		if err := cursor.Decode(&legacy); err != nil {
			slog.Warn("Skipping undecodable legacy offer", slog.Any("error", err))
			continue
		}

		batch = append(batch, &models.Offer{
			ID:           legacy.ID,
			VenueID:      legacy.VenueID,
			Title:        legacy.Title,
			Description:  legacy.Description,
			MaxClaims:    legacy.MaxClaims,
			ClaimedCount: legacy.ClaimedCount,
			StartTime:    legacy.StartTime,
			EndTime:      legacy.EndTime,
			CreatedAt:    legacy.CreatedAt,
			UpdatedAt:    time.Now(),
		})

		if len(batch) >= m.batchSize {
			if err := m.insertOffers(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := m.insertOffers(ctx, batch); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func (m *Migrator) insertOffers(ctx context.Context, offers []*models.Offer) error {
	_, err := m.pgDB.NewInsert().
		Model(&offers).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert offer batch: %w", err)
	}
	m.stats.Offers += len(offers)
	return nil
}

type legacyClaim struct {
	ID         string     `bson:"_id"`
	OfferID    string     `bson:"offerId"`
	UserID     string     `bson:"userId"`
	Token      string     `bson:"token"`
	Status     string     `bson:"status"`
	Reason     string     `bson:"rejectionReason"`
	CreatedAt  time.Time  `bson:"createdAt"`
	ExpiresAt  time.Time  `bson:"expiresAt"`
	RedeemedAt *time.Time `bson:"redeemedAt"`
}

func (m *Migrator) migrateClaims(ctx context.Context, db *mongo.Database) error {
	cursor, err := db.Collection("claims").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to read legacy claims: %w", err)
	}
	defer cursor.Close(ctx)

	batch := make([]*models.Claim, 0, m.batchSize)
	for cursor.Next(ctx) {
		var legacy legacyClaim
		if err := cursor.Decode(&legacy); err != nil {
			slog.Warn("Skipping undecodable legacy claim", slog.Any("error", err))
			continue
		}

		batch = append(batch, &models.Claim{
			ID:              legacy.ID,
			OfferID:         legacy.OfferID,
			UserID:          legacy.UserID,
			Token:           legacy.Token,
			Status:          models.ClaimStatus(legacy.Status),
			RejectionReason: legacy.Reason,
			CreatedAt:       legacy.CreatedAt,
			ExpiresAt:       legacy.ExpiresAt,
			RedeemedAt:      legacy.RedeemedAt,
		})

		if len(batch) >= m.batchSize {
			if err := m.insertClaims(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := m.insertClaims(ctx, batch); err != nil {
			return err
		}
	}
	return cursor.Err()
}

func (m *Migrator) insertClaims(ctx context.Context, claims []*models.Claim) error {
	_, err := m.pgDB.NewInsert().
		Model(&claims).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert claim batch: %w", err)
	}
	m.stats.Claims += len(claims)
	return nil
}

type legacyPreferences struct {
	UserID        string          `bson:"_id"`
	Notifications map[string]bool `bson:"notifications"`
}

func (m *Migrator) migratePreferences(ctx context.Context, db *mongo.Database) error {
	cursor, err := db.Collection("preferences").Find(ctx, bson.D{})
	if err != nil {
		return fmt.Errorf("failed to read legacy preferences: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var legacy legacyPreferences
		if err := cursor.Decode(&legacy); err != nil {
			slog.Warn("Skipping undecodable legacy preferences", slog.Any("error", err))
			continue
		}

		prefs := models.DefaultPreferences()
		if v, ok := legacy.Notifications["offerCreated"]; ok {
			prefs.OfferCreated = v
		}
		if v, ok := legacy.Notifications["offerExpiring"]; ok {
			prefs.OfferExpiring = v
		}
		if v, ok := legacy.Notifications["claimRedeemed"]; ok {
			prefs.ClaimRedeemed = v
		}
		if v, ok := legacy.Notifications["claimExpiring"]; ok {
			prefs.ClaimExpiring = v
		}

		row := &models.UserPreferences{
			UserID:        legacy.UserID,
			Notifications: prefs,
			UpdatedAt:     time.Now(),
		}
		if _, err := m.pgDB.NewInsert().
			Model(row).
			On("CONFLICT (user_id) DO NOTHING").
			Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert preferences for %s: %w", legacy.UserID, err)
		}
		m.stats.Preferences++
	}
	return cursor.Err()
}
