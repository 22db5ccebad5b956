package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Device is a registered push target for one user.
type Device struct {
	bun.BaseModel `bun:"table:devices,alias:d"`

	Token      string    `bun:"token,pk" json:"token"`
	UserID     string    `bun:"user_id,notnull" json:"user_id"`
	Platform   string    `bun:"platform,notnull" json:"platform"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
	LastSeenAt time.Time `bun:"last_seen_at,notnull" json:"last_seen_at"`
}
