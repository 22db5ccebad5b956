// Package realtime reconciles local claim state when a terminal transition
// happens out-of-band, e.g. venue staff scanning the token while the user's
// screen is open.
package realtime

import (
	"context"
	"sync"

	"github.com/venueflash/flashcore/flashcore/database/models"
	"github.com/venueflash/flashcore/flashcore/offers/claimerr"
	"github.com/venueflash/flashcore/flashcore/store"
)

// Listener opens per-claim change feeds against the store. It forwards each
// raw transition once and latches the redemption signal; callers own any
// further de-duplication of business logic.
type Listener struct {
	store  store.ClaimStore
	errors *claimerr.Service
}

func NewListener(st store.ClaimStore, errs *claimerr.Service) *Listener {
	return &Listener{store: st, errors: errs}
}

// Handle is one open subscription. Unsubscribe is idempotent and must be
// called on caller teardown; after it returns no further callback fires,
// modulo one already in flight.
type Handle struct {
	sub      store.Subscription
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu           sync.Mutex
	redeemedSent bool
}

// Subscribe opens the feed and dispatches transitions to onChange. When the
// claim first transitions into redeemed, onRedeemed fires exactly once per
// handle. The listener does not retry a failed handshake; it reports
// subscription_failed and leaves the caller on cached state, where a manual
// refresh via the store's read path still reflects redemption.
func (l *Listener) Subscribe(ctx context.Context, claimID string, onChange func(old, new models.ClaimStatus), onRedeemed func()) (*Handle, *claimerr.ClaimError) {
	sub, err := l.store.SubscribeToClaim(ctx, claimID)
	if err != nil {
		return nil, l.errors.CreateError(claimerr.TypeSubscriptionFailed, "", store.AsFailure(err))
	}

	h := &Handle{
		sub:  sub,
		stop: make(chan struct{}),
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-h.stop:
				return
			case <-ctx.Done():
				return
			case change, ok := <-sub.Changes():
				if !ok {
					return
				}
				if onChange != nil {
					onChange(change.Old, change.New)
				}
				if change.New == models.ClaimStatusRedeemed && change.Old != models.ClaimStatusRedeemed {
					h.mu.Lock()
					fire := !h.redeemedSent
					h.redeemedSent = true
					h.mu.Unlock()
					if fire && onRedeemed != nil {
						onRedeemed()
					}
				}
			}
		}
	}()

	return h, nil
}

// Unsubscribe stops delivery and releases the feed. Safe to call more than
// once.
func (h *Handle) Unsubscribe() {
	h.stopOnce.Do(func() {
		close(h.stop)
		h.sub.Unsubscribe()
	})
	h.wg.Wait()
}
