package store

import (
	"context"

	"github.com/venueflash/flashcore/flashcore/database/models"
)

// StatusChange is one observed transition of a claim's status column.
// Changes for a single claim id are delivered in store order; no ordering is
// guaranteed across claim ids.
type StatusChange struct {
	ClaimID string
	Old     models.ClaimStatus
	New     models.ClaimStatus
}

// Subscription is an open change feed for one claim id. Unsubscribe is
// idempotent and stops delivery synchronously, modulo one callback already
// in flight when it is called.
type Subscription interface {
	Changes() <-chan StatusChange
	Unsubscribe()
}

// ClaimStore is the durable record of offers and claims. All capacity
// arbitration happens inside CreateClaim; callers never read-then-write a
// claim count across two calls.
type ClaimStore interface {
	// CreateClaim atomically reserves one slot on the offer for the user.
	// Failure messages use the Msg* phrases so the race classifier can
	// recognize conflicts.
	CreateClaim(ctx context.Context, offerID, userID string) (*models.Claim, error)

	GetClaim(ctx context.Context, claimID string) (*models.Claim, error)

	GetOffer(ctx context.Context, offerID string) (*models.Offer, error)

	// RedeemClaim consumes a token, transitioning the claim to redeemed.
	RedeemClaim(ctx context.Context, token string) (*models.Claim, error)

	// UpdateClaimStatus moves a claim to the given status; rejectionReason is
	// recorded only for rejected.
	UpdateClaimStatus(ctx context.Context, claimID string, status models.ClaimStatus, rejectionReason string) (*models.Claim, error)

	// SubscribeToClaim opens a change feed scoped to one claim id.
	SubscribeToClaim(ctx context.Context, claimID string) (Subscription, error)
}
