// Package lifecycle orchestrates claim submission: optimistic local update,
// store call, conflict classification, and confirm or rollback.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/venueflash/flashcore/flashcore/database/models"
	"github.com/venueflash/flashcore/flashcore/logger"
	"github.com/venueflash/flashcore/flashcore/offers/claimerr"
	"github.com/venueflash/flashcore/flashcore/offers/conflict"
	"github.com/venueflash/flashcore/flashcore/offers/optimistic"
	"github.com/venueflash/flashcore/flashcore/store"
)

type AttemptState string

const (
	AttemptIdle       AttemptState = "idle"
	AttemptSubmitting AttemptState = "submitting"
	AttemptConfirmed  AttemptState = "confirmed"
	AttemptRolledBack AttemptState = "rolled_back"
)

// OfferView is the local rendering state for one offer. The tentative count
// bump during a submit is a rendering aid only; the authoritative result
// waits for the store.
type OfferView struct {
	OfferID      string
	Title        string
	ClaimedCount int
	MaxClaims    int
	Status       models.OfferStatus
}

func viewFromOffer(offer *models.Offer, now time.Time) OfferView {
	return OfferView{
		OfferID:      offer.ID,
		Title:        offer.Title,
		ClaimedCount: offer.ClaimedCount,
		MaxClaims:    offer.MaxClaims,
		Status:       offer.StatusAt(now),
	}
}

// ClaimKey is the logical key an in-flight submit files its optimistic
// state under.
func ClaimKey(offerID, userID string) string {
	return fmt.Sprintf("claim:%s:%s", offerID, userID)
}

type Controller struct {
	store       store.ClaimStore
	coordinator *optimistic.Coordinator[OfferView]
	classifier  *conflict.Classifier
	errors      *claimerr.Service

	mu          sync.Mutex
	attempts    map[string]AttemptState
	views       map[string]OfferView
	claimStates map[string]models.ClaimStatus
	now         func() time.Time
}

func NewController(st store.ClaimStore, classifier *conflict.Classifier, errs *claimerr.Service) *Controller {
	return &Controller{
		store:       st,
		coordinator: optimistic.NewCoordinator[OfferView](),
		classifier:  classifier,
		errors:      errs,
		attempts:    make(map[string]AttemptState),
		views:       make(map[string]OfferView),
		claimStates: make(map[string]models.ClaimStatus),
		now:         time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (c *Controller) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Coordinator exposes the optimistic state for callers that render from it.
func (c *Controller) Coordinator() *optimistic.Coordinator[OfferView] {
	return c.coordinator
}

// Submit runs one claim attempt. The local offer view is bumped before the
// store call so a caller can render the updated count immediately, but
// success is only reported once the store itself resolves; a rolled-back
// attempt restores exactly the prior view.
//
// Submitting twice for the same (offer, user) while the first is in flight
// is not blocked here: the store's uniqueness guarantee surfaces the second
// attempt as already_claimed.
func (c *Controller) Submit(ctx context.Context, offerID, userID string) (*models.Claim, *claimerr.ClaimError) {
	key := ClaimKey(offerID, userID)
	started := time.Now()

	current, cerr := c.offerView(ctx, offerID)
	if cerr != nil {
		return nil, cerr
	}

	tentative := current
	tentative.ClaimedCount++
	if tentative.ClaimedCount >= tentative.MaxClaims && tentative.Status == models.OfferStatusActive {
		tentative.Status = models.OfferStatusFull
	}

	c.mu.Lock()
	c.attempts[key] = AttemptSubmitting
	c.views[offerID] = tentative
	c.mu.Unlock()

	opID := c.coordinator.Apply(key, current, tentative)

	claim, err := c.store.CreateClaim(ctx, offerID, userID)
	if err != nil {
		failure := store.AsFailure(err)
		cerr := c.classifyFailure(failure)

		if prior, ok := c.coordinator.Rollback(opID); ok {
			c.mu.Lock()
			c.views[offerID] = prior
			c.mu.Unlock()
		}
		c.mu.Lock()
		c.attempts[key] = AttemptRolledBack
		c.mu.Unlock()

		logger.LogClaim(offerID, userID, time.Since(started), cerr)
		return nil, cerr
	}

	c.coordinator.Confirm(key, opID)
	c.mu.Lock()
	c.attempts[key] = AttemptConfirmed
	c.claimStates[claim.ID] = claim.Status
	c.mu.Unlock()

	logger.LogClaim(offerID, userID, time.Since(started), nil)
	return claim, nil
}

func (c *Controller) classifyFailure(failure *store.Failure) *claimerr.ClaimError {
	if t := c.classifier.Classify(failure); t != conflict.TypeNone {
		return c.errors.ForConflict(t, failure)
	}

	switch failure.Kind {
	case store.KindNetwork:
		return c.errors.CreateError(claimerr.TypeConnectionFailed, "", failure)
	case store.KindHTTP:
		if failure.StatusCode == 401 || failure.StatusCode == 403 {
			return c.errors.CreateError(claimerr.TypeAuthFailed, "", failure)
		}
	case store.KindValidation:
		return c.errors.CreateError(claimerr.TypeInvalidClaim, failure.Message, failure)
	}
	return c.errors.CreateError(claimerr.TypeUnknown, failure.Message, failure)
}

// AttemptState returns the state of the last attempt for (offer, user).
func (c *Controller) AttemptState(offerID, userID string) AttemptState {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.attempts[ClaimKey(offerID, userID)]; ok {
		return s
	}
	return AttemptIdle
}

// OfferView returns the local view, fetching from the store when absent.
func (c *Controller) OfferView(ctx context.Context, offerID string) (OfferView, *claimerr.ClaimError) {
	return c.offerView(ctx, offerID)
}

func (c *Controller) offerView(ctx context.Context, offerID string) (OfferView, *claimerr.ClaimError) {
	c.mu.Lock()
	if view, ok := c.views[offerID]; ok {
		c.mu.Unlock()
		return view, nil
	}
	now := c.now()
	c.mu.Unlock()

	offer, err := c.store.GetOffer(ctx, offerID)
	if err != nil {
		return OfferView{}, c.classifyFailure(store.AsFailure(err))
	}

	view := viewFromOffer(offer, now)
	c.mu.Lock()
	c.views[offerID] = view
	c.mu.Unlock()
	return view, nil
}

// RefreshOffer re-reads the offer and replaces the local view.
func (c *Controller) RefreshOffer(ctx context.Context, offerID string) (OfferView, *claimerr.ClaimError) {
	offer, err := c.store.GetOffer(ctx, offerID)
	if err != nil {
		return OfferView{}, c.classifyFailure(store.AsFailure(err))
	}

	c.mu.Lock()
	view := viewFromOffer(offer, c.now())
	c.views[offerID] = view
	c.mu.Unlock()
	return view, nil
}

// CheckClaim reads a claim and applies the lazy expiry rule: an active claim
// past its window is reported expired without waiting for the sweeper.
// Terminal statuses are mapped to display errors by the taxonomy; an active,
// in-window claim yields (claim, nil).
func (c *Controller) CheckClaim(ctx context.Context, claimID string) (*models.Claim, *claimerr.ClaimError) {
	claim, err := c.store.GetClaim(ctx, claimID)
	if err != nil {
		return nil, c.classifyFailure(store.AsFailure(err))
	}

	c.mu.Lock()
	now := c.now()
	c.mu.Unlock()

	status := claim.Status
	if claim.ExpiredBy(now) {
		status = models.ClaimStatusExpired
	}

	c.mu.Lock()
	c.claimStates[claim.ID] = status
	c.mu.Unlock()

	if cerr := c.errors.HandleClaimStatus(status, claim.RejectionReason); cerr != nil {
		return claim, cerr
	}
	return claim, nil
}

// ReconcileStatus pushes an externally observed transition (from the
// realtime listener) into local state. Returns false when the status was
// already applied, so re-delivery of the same transition is a no-op.
func (c *Controller) ReconcileStatus(claimID string, status models.ClaimStatus) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.claimStates[claimID] == status {
		return false
	}
	c.claimStates[claimID] = status
	return true
}

// ClaimState returns the last known local status for a claim.
func (c *Controller) ClaimState(claimID string) (models.ClaimStatus, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.claimStates[claimID]
	return s, ok
}

// StartEvictionRoutine garbage-collects abandoned optimistic state on a
// ticker until ctx is done.
func (c *Controller) StartEvictionRoutine(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := c.coordinator.EvictOlderThan(maxAge); n > 0 {
					logger.LogSystem("Evicted abandoned optimistic updates", "count", n)
				}
			}
		}
	}()
}
