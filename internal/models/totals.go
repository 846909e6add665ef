package models

import "github.com/shopspring/decimal"

// SessionTotals is the aggregate of all items in a session.
type SessionTotals struct {
	// Subtotal is the plain sum of item amounts.
	Subtotal decimal.Decimal `json:"subtotal"`

	// TipPercent is the session's tip rate as stored.
	TipPercent decimal.Decimal `json:"tip_percent"`

	// Total is Subtotal plus tip, rounded half-up to 2 decimal places.
	Total decimal.Decimal `json:"total"`
}
