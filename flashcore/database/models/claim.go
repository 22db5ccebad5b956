package models

import (
	"time"

	"github.com/uptrace/bun"
)

type ClaimStatus string

const (
	ClaimStatusActive   ClaimStatus = "active"
	ClaimStatusRedeemed ClaimStatus = "redeemed"
	ClaimStatusExpired  ClaimStatus = "expired"
	ClaimStatusRejected ClaimStatus = "rejected"
)

// Claim is a user's reservation against an offer's capacity, redeemable via
// an opaque token. At most one non-terminal claim may exist per (offer, user)
// pair; the store enforces this.
type Claim struct {
	bun.BaseModel `bun:"table:claims,alias:cl"`

	ID              string      `bun:"id,pk" json:"id"`
	OfferID         string      `bun:"offer_id,notnull" json:"offer_id"`
	UserID          string      `bun:"user_id,notnull" json:"user_id"`
	Token           string      `bun:"token,notnull,unique" json:"token"`
	Status          ClaimStatus `bun:"status,notnull,default:'active'" json:"status"`
	RejectionReason string      `bun:"rejection_reason,nullzero" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time   `bun:"created_at,notnull" json:"created_at"`
	ExpiresAt       time.Time   `bun:"expires_at,notnull" json:"expires_at"`
	RedeemedAt      *time.Time  `bun:"redeemed_at,nullzero" json:"redeemed_at,omitempty"`
}

// Terminal reports whether the claim can no longer change status.
func (c *Claim) Terminal() bool {
	switch c.Status {
	case ClaimStatusRedeemed, ClaimStatusExpired, ClaimStatusRejected:
		return true
	}
	return false
}

// ExpiredBy reports whether an active claim has outlived its window. Expiry
// is derived lazily on read; no background timer is required.
func (c *Claim) ExpiredBy(now time.Time) bool {
	return c.Status == ClaimStatusActive && now.After(c.ExpiresAt)
}
