package models

import (
	"time"

	"github.com/uptrace/bun"
)

type OfferStatus string

const (
	OfferStatusActive  OfferStatus = "active"
	OfferStatusFull    OfferStatus = "full"
	OfferStatusExpired OfferStatus = "expired"
)

// Offer is a capacity- and time-bounded promotional unit published by a venue.
// ClaimedCount is only ever mutated through the store's conditional increment;
// status is derived, never stored.
type Offer struct {
	bun.BaseModel `bun:"table:offers,alias:o"`

	ID           string    `bun:"id,pk" json:"id"`
	VenueID      string    `bun:"venue_id,notnull" json:"venue_id"`
	Title        string    `bun:"title,notnull" json:"title"`
	Description  string    `bun:"description" json:"description"`
	MaxClaims    int       `bun:"max_claims,notnull" json:"max_claims"`
	ClaimedCount int       `bun:"claimed_count,notnull,default:0" json:"claimed_count"`
	StartTime    time.Time `bun:"start_time,notnull" json:"start_time"`
	EndTime      time.Time `bun:"end_time,notnull" json:"end_time"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// StatusAt derives the offer status from capacity and the time window.
func (o *Offer) StatusAt(now time.Time) OfferStatus {
	if now.After(o.EndTime) {
		return OfferStatusExpired
	}
	if o.ClaimedCount >= o.MaxClaims {
		return OfferStatusFull
	}
	return OfferStatusActive
}

// Claimable reports whether a new claim may be accepted right now.
func (o *Offer) Claimable(now time.Time) bool {
	return !now.Before(o.StartTime) && o.StatusAt(now) == OfferStatusActive
}

// RemainingCapacity never goes below zero.
func (o *Offer) RemainingCapacity() int {
	if r := o.MaxClaims - o.ClaimedCount; r > 0 {
		return r
	}
	return 0
}
