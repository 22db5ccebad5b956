package realtime

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/venueflash/flashcore/flashcore/database/models"
	"github.com/venueflash/flashcore/flashcore/offers/claimerr"
	"github.com/venueflash/flashcore/flashcore/store"
)

func newTestListener(t *testing.T) (*Listener, *store.MemoryStore, *models.Claim) {
	t.Helper()

	mem := store.NewMemoryStore(24 * time.Hour)
	now := time.Now()
	mem.PutOffer(&models.Offer{
		ID:        "o1",
		VenueID:   "venue-1",
		Title:     "Two for one",
		MaxClaims: 5,
		StartTime: now.Add(-time.Hour),
		EndTime:   now.Add(time.Hour),
	})

	claim, err := mem.CreateClaim(context.Background(), "o1", "u1")
	if err != nil {
		t.Fatalf("CreateClaim() error = %v", err)
	}
	return NewListener(mem, claimerr.NewDefaultService(nil)), mem, claim
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestListener_RedemptionFiresOnce(t *testing.T) {
	l, mem, claim := newTestListener(t)
	ctx := context.Background()

	var changes, redeemed atomic.Int32
	h, cerr := l.Subscribe(ctx, claim.ID,
		func(old, new models.ClaimStatus) { changes.Add(1) },
		func() { redeemed.Add(1) },
	)
	if cerr != nil {
		t.Fatalf("Subscribe() error = %v", cerr)
	}
	defer h.Unsubscribe()

	if _, err := mem.RedeemClaim(ctx, claim.Token); err != nil {
		t.Fatalf("RedeemClaim() error = %v", err)
	}

	waitFor(t, "redemption callback", func() bool { return redeemed.Load() == 1 })
	if changes.Load() != 1 {
		t.Errorf("onChange fired %d times, want 1", changes.Load())
	}
}

func TestListener_RedeliveredRedemptionIsNoOp(t *testing.T) {
	l, mem, claim := newTestListener(t)
	ctx := context.Background()

	var redeemed atomic.Int32
	h, cerr := l.Subscribe(ctx, claim.ID, nil, func() { redeemed.Add(1) })
	if cerr != nil {
		t.Fatalf("Subscribe() error = %v", cerr)
	}
	defer h.Unsubscribe()

	if _, err := mem.RedeemClaim(ctx, claim.Token); err != nil {
		t.Fatalf("RedeemClaim() error = %v", err)
	}
	waitFor(t, "first redemption callback", func() bool { return redeemed.Load() == 1 })

	// A reconnecting backend may replay the terminal transition. The latch
	// must swallow it.
	if _, err := mem.UpdateClaimStatus(ctx, claim.ID, models.ClaimStatusRedeemed, ""); err != nil {
		t.Fatalf("UpdateClaimStatus() error = %v", err)
	}
	if _, err := mem.UpdateClaimStatus(ctx, claim.ID, models.ClaimStatusActive, ""); err != nil {
		t.Fatalf("UpdateClaimStatus() error = %v", err)
	}
	if _, err := mem.UpdateClaimStatus(ctx, claim.ID, models.ClaimStatusRedeemed, ""); err != nil {
		t.Fatalf("UpdateClaimStatus() error = %v", err)
	}

	// Give the forwarding goroutine time to drain the replay.
	time.Sleep(50 * time.Millisecond)
	if got := redeemed.Load(); got != 1 {
		t.Errorf("onRedeemed fired %d times, want 1", got)
	}
}

func TestListener_UnsubscribeStopsDelivery(t *testing.T) {
	l, mem, claim := newTestListener(t)
	ctx := context.Background()

	var changes atomic.Int32
	h, cerr := l.Subscribe(ctx, claim.ID,
		func(old, new models.ClaimStatus) { changes.Add(1) },
		nil,
	)
	if cerr != nil {
		t.Fatalf("Subscribe() error = %v", cerr)
	}

	h.Unsubscribe()
	h.Unsubscribe() // idempotent

	if _, err := mem.UpdateClaimStatus(ctx, claim.ID, models.ClaimStatusRejected, "venue closed"); err != nil {
		t.Fatalf("UpdateClaimStatus() error = %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if got := changes.Load(); got != 0 {
		t.Errorf("onChange fired %d times after Unsubscribe, want 0", got)
	}
}

func TestListener_SubscribeUnknownClaim(t *testing.T) {
	l, _, _ := newTestListener(t)

	h, cerr := l.Subscribe(context.Background(), "no-such-claim", nil, nil)
	if h != nil {
		t.Error("Subscribe() handle != nil on failure")
	}
	if cerr == nil {
		t.Fatal("Subscribe() error = nil, want subscription_failed")
	}
	if cerr.Type != claimerr.TypeSubscriptionFailed {
		t.Errorf("error type = %q, want %q", cerr.Type, claimerr.TypeSubscriptionFailed)
	}
	if cerr.Classification != claimerr.Temporary || !cerr.Retryable {
		t.Errorf("error = %+v, want temporary retryable", cerr)
	}
}

func TestListener_ManualRefreshAfterFailedSubscribe(t *testing.T) {
	l, mem, claim := newTestListener(t)
	ctx := context.Background()

	// Redemption that happens while the feed is down must still surface
	// through the plain read path.
	if _, err := mem.RedeemClaim(ctx, claim.Token); err != nil {
		t.Fatalf("RedeemClaim() error = %v", err)
	}

	if _, cerr := l.Subscribe(ctx, "no-such-claim", nil, nil); cerr == nil {
		t.Fatal("Subscribe() error = nil, want failure")
	}

	got, err := mem.GetClaim(ctx, claim.ID)
	if err != nil {
		t.Fatalf("GetClaim() error = %v", err)
	}
	if got.Status != models.ClaimStatusRedeemed {
		t.Errorf("GetClaim() status = %q, want redeemed", got.Status)
	}
}
