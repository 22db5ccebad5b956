package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/venueflash/flashcore/flashcore/database/models"
	"github.com/venueflash/flashcore/flashcore/logger"
	"github.com/venueflash/flashcore/flashcore/store"
)

const defaultPollInterval = 2 * time.Second

// ClaimRepository is the Postgres-backed ClaimStore. All capacity
// arbitration happens in one conditional UPDATE; the unique partial index on
// active (offer_id, user_id) pairs turns duplicate submissions into
// already_claimed conflicts.
type ClaimRepository struct {
	db           *bun.DB
	claimTTL     time.Duration
	pollInterval time.Duration
}

var _ store.ClaimStore = (*ClaimRepository)(nil)

func NewClaimRepository(db *bun.DB, claimTTL time.Duration) *ClaimRepository {
	return &ClaimRepository{
		db:           db,
		claimTTL:     claimTTL,
		pollInterval: defaultPollInterval,
	}
}

func (r *ClaimRepository) CreateClaim(ctx context.Context, offerID, userID string) (*models.Claim, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, asStoreFailure(err)
	}
	defer tx.Rollback()

	now := time.Now()

	res, err := tx.NewUpdate().
		Model((*models.Offer)(nil)).
		Set("claimed_count = claimed_count + 1").
		Set("updated_at = ?", now).
		Where("id = ?", offerID).
		Where("claimed_count < max_claims").
		Where("start_time <= ?", now).
		Where("end_time >= ?", now).
		Exec(ctx)
	if err != nil {
		return nil, asStoreFailure(err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, asStoreFailure(err)
	}
	if rows == 0 {
		return nil, r.classifyIncrementMiss(ctx, tx, offerID, now)
	}

	claim := &models.Claim{
		ID:        uuid.NewString(),
		OfferID:   offerID,
		UserID:    userID,
		Token:     uuid.NewString(),
		Status:    models.ClaimStatusActive,
		CreatedAt: now,
		ExpiresAt: now.Add(r.claimTTL),
	}

	if _, err := tx.NewInsert().Model(claim).Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.IntegrityViolation() {
			return nil, store.NewConflict(store.MsgAlreadyClaimed)
		}
		return nil, asStoreFailure(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, asStoreFailure(err)
	}
	return claim, nil
}

// classifyIncrementMiss figures out why the conditional increment matched no
// row, so the caller gets a precise conflict phrase.
func (r *ClaimRepository) classifyIncrementMiss(ctx context.Context, tx bun.Tx, offerID string, now time.Time) error {
	offer := new(models.Offer)
	err := tx.NewSelect().
		Model(offer).
		Where("id = ?", offerID).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return store.NewValidation(fmt.Sprintf("offer %s not found", offerID))
	}
	if err != nil {
		return asStoreFailure(err)
	}

	switch {
	case now.Before(offer.StartTime):
		return store.NewValidation(store.MsgOfferNotStarted)
	case now.After(offer.EndTime):
		return store.NewConflict(store.MsgOfferExpired)
	default:
		return store.NewConflict(store.MsgOfferFull)
	}
}

func (r *ClaimRepository) GetClaim(ctx context.Context, claimID string) (*models.Claim, error) {
	claim := new(models.Claim)
	err := r.db.NewSelect().
		Model(claim).
		Where("id = ?", claimID).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NewValidation(fmt.Sprintf("claim %s not found", claimID))
	}
	if err != nil {
		return nil, asStoreFailure(err)
	}
	return claim, nil
}

func (r *ClaimRepository) GetOffer(ctx context.Context, offerID string) (*models.Offer, error) {
	offer := new(models.Offer)
	err := r.db.NewSelect().
		Model(offer).
		Where("id = ?", offerID).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NewValidation(fmt.Sprintf("offer %s not found", offerID))
	}
	if err != nil {
		return nil, asStoreFailure(err)
	}
	return offer, nil
}

func (r *ClaimRepository) RedeemClaim(ctx context.Context, token string) (*models.Claim, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, asStoreFailure(err)
	}
	defer tx.Rollback()

	claim := new(models.Claim)
	err = tx.NewSelect().
		Model(claim).
		Where("token = ?", token).
		For("UPDATE").
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NewValidation(store.MsgInvalidToken)
	}
	if err != nil {
		return nil, asStoreFailure(err)
	}

	now := time.Now()
	switch {
	case claim.Status == models.ClaimStatusRedeemed:
		return nil, store.NewConflict(store.MsgAlreadyRedeemed)
	case claim.Terminal() || claim.ExpiredBy(now):
		return nil, store.NewConflict(store.MsgClaimExpired)
	}

	claim.Status = models.ClaimStatusRedeemed
	claim.RedeemedAt = &now

	if _, err := tx.NewUpdate().
		Model(claim).
		Column("status", "redeemed_at").
		WherePK().
		Exec(ctx); err != nil {
		return nil, asStoreFailure(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, asStoreFailure(err)
	}
	return claim, nil
}

func (r *ClaimRepository) UpdateClaimStatus(ctx context.Context, claimID string, status models.ClaimStatus, rejectionReason string) (*models.Claim, error) {
	claim := new(models.Claim)
	err := r.db.NewSelect().
		Model(claim).
		Where("id = ?", claimID).
		Scan(ctx)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.NewValidation(fmt.Sprintf("claim %s not found", claimID))
	}
	if err != nil {
		return nil, asStoreFailure(err)
	}

	claim.Status = status
	if status == models.ClaimStatusRejected {
		claim.RejectionReason = rejectionReason
	}

	if _, err := r.db.NewUpdate().
		Model(claim).
		Column("status", "rejection_reason").
		WherePK().
		Exec(ctx); err != nil {
		return nil, asStoreFailure(err)
	}
	return claim, nil
}

// ExpireClaims moves active claims past their window to expired, returning
// how many transitioned. Subscribers observe the change on their next poll.
func (r *ClaimRepository) ExpireClaims(ctx context.Context) (int64, error) {
	res, err := r.db.NewUpdate().
		Model((*models.Claim)(nil)).
		Set("status = ?", models.ClaimStatusExpired).
		Where("status = ?", models.ClaimStatusActive).
		Where("expires_at <= ?", time.Now()).
		Exec(ctx)

	if err != nil {
		return 0, asStoreFailure(err)
	}
	return res.RowsAffected()
}

// StartCleanupRoutine sweeps expired claims on a ticker until ctx is done.
func (r *ClaimRepository) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := r.ExpireClaims(ctx)
				if err != nil {
					logger.LogError("Failed to expire claims", err)
				} else if n > 0 {
					logger.LogSystem("Expired claims", "count", n)
				}
			}
		}
	}()
}

// SubscribeToClaim polls the claim row and emits a StatusChange whenever the
// status column moves. Store order for a single claim id is preserved by
// construction; nothing is guaranteed across claim ids.
func (r *ClaimRepository) SubscribeToClaim(ctx context.Context, claimID string) (store.Subscription, error) {
	claim, err := r.GetClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &pollingSubscription{
		ch:     make(chan store.StatusChange, 8),
		cancel: cancel,
	}

	go func() {
		defer close(sub.ch)
		last := claim.Status
		ticker := time.NewTicker(r.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-subCtx.Done():
				return
			case <-ticker.C:
				current, err := r.GetClaim(subCtx, claimID)
				if err != nil {
					continue // transient read failure; next tick retries
				}
				if current.Status != last {
					change := store.StatusChange{ClaimID: claimID, Old: last, New: current.Status}
					last = current.Status
					select {
					case sub.ch <- change:
					case <-subCtx.Done():
						return
					}
				}
			}
		}
	}()

	return sub, nil
}

type pollingSubscription struct {
	ch     chan store.StatusChange
	cancel context.CancelFunc
	once   sync.Once
}

func (s *pollingSubscription) Changes() <-chan store.StatusChange {
	return s.ch
}

func (s *pollingSubscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// asStoreFailure tags driver-level errors for the classifier and taxonomy.
func asStoreFailure(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return store.NewNetwork(err)
	}
	return &store.Failure{Kind: store.KindUnknown, Message: err.Error()}
}
