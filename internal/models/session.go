package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusOpen is the status of a freshly created session.
const StatusOpen = "open"

// DefaultTipPercent is applied when a session is created without a tip.
var DefaultTipPercent = decimal.RequireFromString("10.00")

// Session represents one shared expense session.
type Session struct {
	// ID is the store-assigned identifier. Realtime rooms are keyed by it.
	ID int64 `json:"id"`

	// Code is the public join code. Immutable after creation.
	Code string `json:"code"`

	// DisplayName is an optional human-readable name ("Friday dinner").
	DisplayName *string `json:"display_name"`

	// CreatorUserID is the registered user who opened the session, if any.
	CreatorUserID *int64 `json:"creator_user_id"`

	// TipPercent is the surcharge applied to the subtotal, e.g. 10.00 for 10%.
	TipPercent decimal.Decimal `json:"tip_percent"`

	// Status is free text ("open", "closed", ...).
	Status string `json:"status"`

	// CreatedAt is when the session was created.
	CreatedAt time.Time `json:"created_at"`
}

// SessionUpdate holds the mutable fields of a session. Nil fields are left
// unchanged.
type SessionUpdate struct {
	Status     *string
	TipPercent *decimal.Decimal
}

// Empty reports whether the update carries no fields.
func (u SessionUpdate) Empty() bool {
	return u.Status == nil && u.TipPercent == nil
}
