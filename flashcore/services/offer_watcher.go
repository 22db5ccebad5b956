package services

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/venueflash/flashcore/flashcore/database/models"
	"github.com/venueflash/flashcore/flashcore/database/repositories"
	"github.com/venueflash/flashcore/flashcore/logger"
	"github.com/venueflash/flashcore/flashcore/notify"
)

const expiryDedupeSize = 8192

// RecipientSource resolves who should hear about an offer event.
type RecipientSource interface {
	UsersWithDevices(ctx context.Context) ([]string, error)
}

// OfferWatcher scans for offer events (creation, near-expiry) and feeds
// them into the notification dispatcher. Redemption events flow through the
// realtime path instead; this watcher only covers the scheduled ones.
type OfferWatcher struct {
	offers     repositories.OfferRepository
	dispatcher *notify.Dispatcher
	recipients RecipientSource
	warnWindow time.Duration
	lastScan   time.Time
	// offer ids already warned about, bounded so long-running daemons
	// don't grow without limit
	warned *lru.Cache
}

func NewOfferWatcher(offers repositories.OfferRepository, dispatcher *notify.Dispatcher, recipients RecipientSource, warnWindow time.Duration) *OfferWatcher {
	warned, _ := lru.New(expiryDedupeSize)
	return &OfferWatcher{
		offers:     offers,
		dispatcher: dispatcher,
		recipients: recipients,
		warnWindow: warnWindow,
		lastScan:   time.Now(),
		warned:     warned,
	}
}

// Scan runs one pass: announce offers created since the previous pass and
// warn once per offer entering the expiry window. The creation watermark
// only advances after the pass completes, so a failed pass is retried over
// the same window instead of skipping it.
func (w *OfferWatcher) Scan(ctx context.Context) error {
	now := time.Now()

	users, err := w.recipients.UsersWithDevices(ctx)
	if err != nil {
		return err
	}

	created, err := w.offers.GetCreatedSince(ctx, w.lastScan)
	if err != nil {
		return err
	}

	expiring, err := w.offers.GetExpiringBetween(ctx, now, now.Add(w.warnWindow))
	if err != nil {
		return err
	}

	w.lastScan = now

	if len(users) == 0 {
		return nil
	}
	for _, offer := range created {
		w.announce(ctx, users, offer)
	}
	for _, offer := range expiring {
		if _, seen := w.warned.Get(offer.ID); seen {
			continue
		}
		w.warned.Add(offer.ID, struct{}{})
		w.warnExpiry(ctx, users, offer)
	}

	return nil
}

func (w *OfferWatcher) announce(ctx context.Context, users []string, offer *models.Offer) {
	title := "New offer nearby"
	body := fmt.Sprintf("%s just went live with %d slots.", offer.Title, offer.MaxClaims)
	data := map[string]string{"offer_id": offer.ID}

	if _, err := w.dispatcher.Dispatch(ctx, users, "offer_created", title, body, data); err != nil {
		logger.LogError("Offer announcement dispatch failed", err, "offer_id", offer.ID)
	}
}

func (w *OfferWatcher) warnExpiry(ctx context.Context, users []string, offer *models.Offer) {
	title := "Offer ending soon"
	body := fmt.Sprintf("%s closes at %s.", offer.Title, offer.EndTime.Format("15:04"))
	data := map[string]string{"offer_id": offer.ID}

	if _, err := w.dispatcher.Dispatch(ctx, users, "offer_expiring", title, body, data); err != nil {
		logger.LogError("Expiry warning dispatch failed", err, "offer_id", offer.ID)
	}
}

// Start scans on a ticker until ctx is done.
func (w *OfferWatcher) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := w.Scan(ctx); err != nil {
					logger.LogError("Offer scan failed", err)
				}
			}
		}
	}()
}
