package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item is a single expense line recorded against a participant.
// Items are immutable once recorded.
type Item struct {
	ID            int64           `json:"id"`
	ParticipantID int64           `json:"participant_id"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// SessionItem is an Item listed in the context of its session.
type SessionItem struct {
	Item

	// ParticipantName is the resolved display name of the item's participant.
	ParticipantName string `json:"participant_name"`

	// SessionCode and TipPercent are copied from the owning session.
	SessionCode string          `json:"session_code"`
	TipPercent  decimal.Decimal `json:"tip_percent"`
}
