package service

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/cobill/internal/models"
)

// SessionCreatedEvent is published when Start opens a session.
type SessionCreatedEvent struct {
	Session     *models.Session     `json:"session"`
	Participant *models.Participant `json:"participant"`
}

// ParticipantJoinedEvent is published when a new participant joins.
type ParticipantJoinedEvent struct {
	Participant *models.Participant `json:"participant"`
	SessionID   int64               `json:"session_id"`
}

// ItemAddedEvent is published for every stored item.
type ItemAddedEvent struct {
	Item          *models.Item `json:"item"`
	ParticipantID int64        `json:"participant_id"`
	SessionID     int64        `json:"session_id"`
}

// TotalsUpdatedEvent carries a fresh totals snapshot of a session.
type TotalsUpdatedEvent struct {
	SessionID int64 `json:"session_id"`
	models.SessionTotals
}

// SessionUpdatedEvent carries the session state after an update.
type SessionUpdatedEvent struct {
	ID         int64           `json:"id"`
	Status     string          `json:"status"`
	TipPercent decimal.Decimal `json:"tip_percent"`
}
