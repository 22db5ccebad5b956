// Package conflict maps ambiguous backend failures to precise conflict
// categories via ordered substring matching.
package conflict

import (
	"strings"

	"github.com/venueflash/flashcore/flashcore/store"
)

type Type string

const (
	TypeNone            Type = ""
	TypeOfferFull       Type = "offer_full"
	TypeOfferExpired    Type = "offer_expired"
	TypeAlreadyRedeemed Type = "already_redeemed"
	TypeAlreadyClaimed  Type = "already_claimed"
)

// Matcher binds one conflict type to the phrases that identify it. Matchers
// run in order, so more specific phrases must come before looser ones.
type Matcher struct {
	Type    Type
	Phrases []string
}

// DefaultMatchers covers the phrases the ClaimStore implementations emit
// plus looser fallbacks seen from proxies and older store builds.
// "maximum claims" must be checked before the bare "full" fallback.
func DefaultMatchers() []Matcher {
	return []Matcher{
		{Type: TypeAlreadyRedeemed, Phrases: []string{"already been redeemed", "already redeemed"}},
		{Type: TypeAlreadyClaimed, Phrases: []string{"already claimed", "duplicate claim"}},
		{Type: TypeOfferFull, Phrases: []string{"maximum claims", "capacity reached", "offer is full", "full"}},
		{Type: TypeOfferExpired, Phrases: []string{"offer has expired", "offer expired", "expired"}},
	}
}

// Classifier is a pure function object; it never errors, unmatched input
// yields TypeNone.
type Classifier struct {
	matchers []Matcher
}

func NewClassifier(matchers []Matcher) *Classifier {
	return &Classifier{matchers: matchers}
}

func NewDefaultClassifier() *Classifier {
	return NewClassifier(DefaultMatchers())
}

// Classify matches the failure message against the ordered matcher list and
// returns exactly one conflict type, or TypeNone when unrecognized (the
// caller then takes the generic error path).
func (c *Classifier) Classify(failure *store.Failure) Type {
	if failure == nil {
		return TypeNone
	}
	msg := strings.ToLower(failure.Message)
	for _, m := range c.matchers {
		for _, phrase := range m.Phrases {
			if strings.Contains(msg, phrase) {
				return m.Type
			}
		}
	}
	return TypeNone
}
