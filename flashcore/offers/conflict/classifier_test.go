package conflict

import (
	"testing"

	"github.com/venueflash/flashcore/flashcore/store"
)

func TestClassifier_Classify(t *testing.T) {
	tests := []struct {
		name    string
		failure *store.Failure
		want    Type
	}{
		{
			name:    "offer full canonical phrase",
			failure: store.NewConflict(store.MsgOfferFull),
			want:    TypeOfferFull,
		},
		{
			name:    "offer full loose fallback",
			failure: store.NewConflict("offer is full"),
			want:    TypeOfferFull,
		},
		{
			name:    "offer expired canonical phrase",
			failure: store.NewConflict(store.MsgOfferExpired),
			want:    TypeOfferExpired,
		},
		{
			name:    "already claimed canonical phrase",
			failure: store.NewConflict(store.MsgAlreadyClaimed),
			want:    TypeAlreadyClaimed,
		},
		{
			name:    "already redeemed canonical phrase",
			failure: store.NewConflict(store.MsgAlreadyRedeemed),
			want:    TypeAlreadyRedeemed,
		},
		{
			name:    "case insensitive",
			failure: store.NewConflict("Offer Has Reached MAXIMUM CLAIMS"),
			want:    TypeOfferFull,
		},
		{
			name:    "redeemed wins over claimed when both could match",
			failure: store.NewConflict("claim has already been redeemed"),
			want:    TypeAlreadyRedeemed,
		},
		{
			name:    "maximum claims wins over bare expired fallback",
			failure: store.NewConflict("maximum claims reached, offer expired"),
			want:    TypeOfferFull,
		},
		{
			name:    "unrecognized message",
			failure: store.NewConflict("something odd happened"),
			want:    TypeNone,
		},
		{
			name:    "nil failure",
			failure: nil,
			want:    TypeNone,
		},
	}

	c := NewDefaultClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.failure); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifier_MatcherOrderIsRespected(t *testing.T) {
	// A custom matcher list where a looser phrase shadows a stricter one
	// must resolve to whichever matcher comes first.
	c := NewClassifier([]Matcher{
		{Type: TypeOfferExpired, Phrases: []string{"expired"}},
		{Type: TypeOfferFull, Phrases: []string{"expired and full"}},
	})

	got := c.Classify(store.NewConflict("expired and full"))
	if got != TypeOfferExpired {
		t.Errorf("Classify() = %q, want %q (first matcher wins)", got, TypeOfferExpired)
	}
}
