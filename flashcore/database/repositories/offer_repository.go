package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/uptrace/bun"
	"github.com/venueflash/flashcore/flashcore/database/models"
)

const offerCacheSize = 4096

var ErrOfferNotFound = errors.New("offer not found")

type OfferRepository interface {
	Create(ctx context.Context, offer *models.Offer) error
	GetByID(ctx context.Context, offerID string) (*models.Offer, error)
	GetActive(ctx context.Context, now time.Time) ([]*models.Offer, error)
	GetExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.Offer, error)
	GetCreatedSince(ctx context.Context, since time.Time) ([]*models.Offer, error)
	Invalidate(offerID string)
}

type cachedOffer struct {
	offer     *models.Offer
	expiresAt time.Time
}

type offerRepository struct {
	db          *bun.DB
	cache       *lru.Cache
	cacheExpiry time.Duration
}

func NewOfferRepository(db *bun.DB, cacheExpiry time.Duration) OfferRepository {
	cache, _ := lru.New(offerCacheSize)
	return &offerRepository{
		db:          db,
		cache:       cache,
		cacheExpiry: cacheExpiry,
	}
}

func (r *offerRepository) Create(ctx context.Context, offer *models.Offer) error {
	now := time.Now()
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = now
	}
	offer.UpdatedAt = now

	if _, err := r.db.NewInsert().Model(offer).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create offer: %w", err)
	}
	return nil
}

func (r *offerRepository) GetByID(ctx context.Context, offerID string) (*models.Offer, error) {
	if entry, ok := r.cache.Get(offerID); ok {
		cached := entry.(cachedOffer)
		if time.Now().Before(cached.expiresAt) {
			cp := *cached.offer
			return &cp, nil
		}
		r.cache.Remove(offerID)
	}

	offer := new(models.Offer)
	err := r.db.NewSelect().
		Model(offer).
		Where("id = ?", offerID).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOfferNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}

	r.cache.Add(offerID, cachedOffer{offer: offer, expiresAt: time.Now().Add(r.cacheExpiry)})
	cp := *offer
	return &cp, nil
}

func (r *offerRepository) GetActive(ctx context.Context, now time.Time) ([]*models.Offer, error) {
	var offers []*models.Offer
	err := r.db.NewSelect().
		Model(&offers).
		Where("start_time <= ?", now).
		Where("end_time >= ?", now).
		Where("claimed_count < max_claims").
		Order("end_time ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list active offers: %w", err)
	}
	return offers, nil
}

func (r *offerRepository) GetExpiringBetween(ctx context.Context, from, to time.Time) ([]*models.Offer, error) {
	var offers []*models.Offer
	err := r.db.NewSelect().
		Model(&offers).
		Where("end_time > ?", from).
		Where("end_time <= ?", to).
		Order("end_time ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list expiring offers: %w", err)
	}
	return offers, nil
}

func (r *offerRepository) GetCreatedSince(ctx context.Context, since time.Time) ([]*models.Offer, error) {
	var offers []*models.Offer
	err := r.db.NewSelect().
		Model(&offers).
		Where("created_at > ?", since).
		Order("created_at ASC").
		Scan(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to list new offers: %w", err)
	}
	return offers, nil
}

func (r *offerRepository) Invalidate(offerID string) {
	r.cache.Remove(offerID)
}
