package services

import (
	"context"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
	"github.com/venueflash/flashcore/flashcore/database/models"
	"github.com/venueflash/flashcore/flashcore/database/repositories"
)

// offerSearchItems implements fuzzy.Source over offer titles.
type offerSearchItems []*models.Offer

func (items offerSearchItems) Len() int {
	return len(items)
}

func (items offerSearchItems) String(i int) string {
	return strings.ToLower(items[i].Title)
}

// OfferSearchService resolves operator queries against active offer titles.
type OfferSearchService struct {
	offers repositories.OfferRepository
}

func NewOfferSearchService(offers repositories.OfferRepository) *OfferSearchService {
	return &OfferSearchService{offers: offers}
}

// Search fuzzy-matches query against active offer titles, best match first.
// An empty query returns all active offers.
func (s *OfferSearchService) Search(ctx context.Context, query string, limit int) ([]*models.Offer, error) {
	active, err := s.offers.GetActive(ctx, time.Now())
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(query) == "" {
		if limit > 0 && len(active) > limit {
			active = active[:limit]
		}
		return active, nil
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), offerSearchItems(active))

	results := make([]*models.Offer, 0, len(matches))
	for _, m := range matches {
		results = append(results, active[m.Index])
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}
