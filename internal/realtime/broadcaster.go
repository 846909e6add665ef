// Package realtime publishes session events to connected clients.
//
// Clients subscribe to a room per session ("session:<id>") over a WebSocket.
// Services depend only on the Broadcaster interface; the in-process Hub
// delivers to local sockets, and RedisBroadcaster plus Relay fan events out
// across server instances.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
)

// Event types published to session rooms.
const (
	EventSessionCreated    = "session_created"
	EventParticipantJoined = "participant_joined"
	EventItemAdded         = "item_added"
	EventTotalsUpdated     = "totals_updated"
	EventSessionUpdated    = "session_updated"
)

// Broadcaster publishes an event into a room. Publish is fire-and-forget: it
// never blocks on delivery and never reports delivery failures.
type Broadcaster interface {
	Publish(ctx context.Context, room, event string, payload any)
}

// SessionRoom returns the room name for a session.
func SessionRoom(sessionID int64) string {
	return "session:" + strconv.FormatInt(sessionID, 10)
}

// Frame is the JSON envelope exchanged over the socket in both directions.
type Frame struct {
	Type    string          `json:"type"`
	Room    string          `json:"room,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func mustJSON(v any) json.RawMessage {
	if raw, ok := v.(json.RawMessage); ok {
		return raw
	}
	b, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal realtime payload", "error", err)
		return nil
	}
	return b
}
