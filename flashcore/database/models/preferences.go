package models

import (
	"time"

	"github.com/uptrace/bun"
)

// NotificationPreferences contains per-type opt-in flags. Opt-out is
// absolute: a false flag must never be overridden by otherwise-valid content.
type NotificationPreferences struct {
	OfferCreated  bool `json:"offer_created"`
	OfferExpiring bool `json:"offer_expiring"`
	ClaimRedeemed bool `json:"claim_redeemed"`
	ClaimExpiring bool `json:"claim_expiring"`
	FriendRequest bool `json:"friend_request"`
	Receipt       bool `json:"receipt"`
}

// OptedIn reports the flag for a notification type; unknown types are
// treated as opted out.
func (p NotificationPreferences) OptedIn(notificationType string) bool {
	switch notificationType {
	case "offer_created":
		return p.OfferCreated
	case "offer_expiring":
		return p.OfferExpiring
	case "claim_redeemed":
		return p.ClaimRedeemed
	case "claim_expiring":
		return p.ClaimExpiring
	case "friend_request":
		return p.FriendRequest
	case "receipt":
		return p.Receipt
	}
	return false
}

// UserPreferences is the persisted preference row for one user.
type UserPreferences struct {
	bun.BaseModel `bun:"table:user_preferences,alias:up"`

	UserID        string                  `bun:"user_id,pk" json:"user_id"`
	Notifications NotificationPreferences `bun:"notifications,type:jsonb" json:"notifications"`
	UpdatedAt     time.Time               `bun:"updated_at,notnull" json:"updated_at"`
}

// DefaultPreferences returns the flags a new user starts with.
func DefaultPreferences() NotificationPreferences {
	return NotificationPreferences{
		OfferCreated:  true,
		OfferExpiring: true,
		ClaimRedeemed: true,
		ClaimExpiring: true,
		FriendRequest: true,
		Receipt:       true,
	}
}
