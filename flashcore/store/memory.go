package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/venueflash/flashcore/flashcore/database/models"
)

// MemoryStore is the reference in-memory ClaimStore. It backs tests and
// local development; all arbitration happens under one mutex, which gives
// the same atomicity the Postgres store gets from its conditional UPDATE.
type MemoryStore struct {
	mu            sync.Mutex
	offers        map[string]*models.Offer
	claims        map[string]*models.Claim
	claimsByToken map[string]string
	// non-terminal claim id per offer:user key
	openClaims map[string]string
	watchers   map[string][]*memorySubscription
	claimTTL   time.Duration
	now        func() time.Time
}

// NewMemoryStore creates an empty store. claimTTL bounds how long a claim
// stays redeemable after creation.
func NewMemoryStore(claimTTL time.Duration) *MemoryStore {
	return &MemoryStore{
		offers:        make(map[string]*models.Offer),
		claims:        make(map[string]*models.Claim),
		claimsByToken: make(map[string]string),
		openClaims:    make(map[string]string),
		watchers:      make(map[string][]*memorySubscription),
		claimTTL:      claimTTL,
		now:           time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// PutOffer inserts or replaces an offer.
func (s *MemoryStore) PutOffer(offer *models.Offer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *offer
	s.offers[offer.ID] = &cp
}

func openClaimKey(offerID, userID string) string {
	return offerID + ":" + userID
}

func (s *MemoryStore) CreateClaim(ctx context.Context, offerID, userID string) (*models.Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewNetwork(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	offer, ok := s.offers[offerID]
	if !ok {
		return nil, NewValidation(fmt.Sprintf("offer %s not found", offerID))
	}

	now := s.now()
	if now.Before(offer.StartTime) {
		return nil, NewValidation(MsgOfferNotStarted)
	}
	if now.After(offer.EndTime) {
		return nil, NewConflict(MsgOfferExpired)
	}
	if existing, ok := s.openClaims[openClaimKey(offerID, userID)]; ok {
		if c := s.claims[existing]; c != nil && !c.Terminal() && !c.ExpiredBy(now) {
			return nil, NewConflict(MsgAlreadyClaimed)
		}
	}
	if offer.ClaimedCount >= offer.MaxClaims {
		return nil, NewConflict(MsgOfferFull)
	}

	offer.ClaimedCount++
	offer.UpdatedAt = now

	claim := &models.Claim{
		ID:        uuid.NewString(),
		OfferID:   offerID,
		UserID:    userID,
		Token:     uuid.NewString(),
		Status:    models.ClaimStatusActive,
		CreatedAt: now,
		ExpiresAt: now.Add(s.claimTTL),
	}
	s.claims[claim.ID] = claim
	s.claimsByToken[claim.Token] = claim.ID
	s.openClaims[openClaimKey(offerID, userID)] = claim.ID

	cp := *claim
	return &cp, nil
}

func (s *MemoryStore) GetClaim(ctx context.Context, claimID string) (*models.Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewNetwork(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	claim, ok := s.claims[claimID]
	if !ok {
		return nil, NewValidation(fmt.Sprintf("claim %s not found", claimID))
	}
	cp := *claim
	return &cp, nil
}

func (s *MemoryStore) GetOffer(ctx context.Context, offerID string) (*models.Offer, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewNetwork(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	offer, ok := s.offers[offerID]
	if !ok {
		return nil, NewValidation(fmt.Sprintf("offer %s not found", offerID))
	}
	cp := *offer
	return &cp, nil
}

func (s *MemoryStore) RedeemClaim(ctx context.Context, token string) (*models.Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewNetwork(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	claimID, ok := s.claimsByToken[token]
	if !ok {
		return nil, NewValidation(MsgInvalidToken)
	}
	claim := s.claims[claimID]

	now := s.now()
	switch {
	case claim.Status == models.ClaimStatusRedeemed:
		return nil, NewConflict(MsgAlreadyRedeemed)
	case claim.Terminal() || claim.ExpiredBy(now):
		return nil, NewConflict(MsgClaimExpired)
	}

	old := claim.Status
	claim.Status = models.ClaimStatusRedeemed
	claim.RedeemedAt = &now
	delete(s.openClaims, openClaimKey(claim.OfferID, claim.UserID))
	s.notifyLocked(claim.ID, old, claim.Status)

	cp := *claim
	return &cp, nil
}

func (s *MemoryStore) UpdateClaimStatus(ctx context.Context, claimID string, status models.ClaimStatus, rejectionReason string) (*models.Claim, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewNetwork(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	claim, ok := s.claims[claimID]
	if !ok {
		return nil, NewValidation(fmt.Sprintf("claim %s not found", claimID))
	}

	old := claim.Status
	claim.Status = status
	if status == models.ClaimStatusRejected {
		claim.RejectionReason = rejectionReason
	}
	if claim.Terminal() {
		delete(s.openClaims, openClaimKey(claim.OfferID, claim.UserID))
	}
	if old != status {
		s.notifyLocked(claimID, old, status)
	}

	cp := *claim
	return &cp, nil
}

// ExpireClaims sweeps active claims past their window, returning how many
// transitioned.
func (s *MemoryStore) ExpireClaims(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, NewNetwork(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	expired := 0
	for _, claim := range s.claims {
		if claim.ExpiredBy(now) {
			old := claim.Status
			claim.Status = models.ClaimStatusExpired
			delete(s.openClaims, openClaimKey(claim.OfferID, claim.UserID))
			s.notifyLocked(claim.ID, old, claim.Status)
			expired++
		}
	}
	return expired, nil
}

func (s *MemoryStore) SubscribeToClaim(ctx context.Context, claimID string) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, NewNetwork(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.claims[claimID]; !ok {
		return nil, NewValidation(fmt.Sprintf("claim %s not found", claimID))
	}

	sub := &memorySubscription{
		store:   s,
		claimID: claimID,
		ch:      make(chan StatusChange, 8),
	}
	s.watchers[claimID] = append(s.watchers[claimID], sub)
	return sub, nil
}

func (s *MemoryStore) notifyLocked(claimID string, old, new models.ClaimStatus) {
	for _, sub := range s.watchers[claimID] {
		select {
		case sub.ch <- StatusChange{ClaimID: claimID, Old: old, New: new}:
		default:
			// Slow subscriber: drop rather than block the store.
		}
	}
}

type memorySubscription struct {
	store   *MemoryStore
	claimID string
	ch      chan StatusChange
	once    sync.Once
}

func (sub *memorySubscription) Changes() <-chan StatusChange {
	return sub.ch
}

func (sub *memorySubscription) Unsubscribe() {
	sub.once.Do(func() {
		s := sub.store
		s.mu.Lock()
		subs := s.watchers[sub.claimID]
		for i, w := range subs {
			if w == sub {
				s.watchers[sub.claimID] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		close(sub.ch)
	})
}
