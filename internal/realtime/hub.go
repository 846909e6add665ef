package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
	"golang.org/x/time/rate"

	"github.com/mmynk/cobill/internal/metrics"
)

// Client frame types and their replies.
const (
	FrameJoinRoom   = "join_room"
	FrameLeaveRoom  = "leave_room"
	FrameRoomJoined = "room_joined"
	FrameRoomLeft   = "room_left"
	FrameError      = "error"
)

const (
	defaultQueueSize       = 64
	defaultFramesPerSecond = 10
	maxDecodeErrors        = 3
	maxFrameBytes          = 4 << 10
	writeTimeout           = 10 * time.Second
)

var _ Broadcaster = (*Hub)(nil)

// HubConfig tunes a Hub. Zero values select defaults.
type HubConfig struct {
	// QueueSize bounds each peer's pending outbound frames.
	QueueSize int

	// FramesPerSecond limits inbound frames per connection; the burst equals
	// the rate.
	FramesPerSecond int

	// AllowedOrigins restricts the WebSocket Origin header. Empty or "*"
	// accepts any origin.
	AllowedOrigins []string
}

// Hub tracks WebSocket peers and the rooms they joined.
type Hub struct {
	cfg HubConfig

	mu     sync.RWMutex
	rooms  map[string]map[*peer]struct{}
	peers  map[*peer]struct{}
	closed bool
}

// NewHub creates an empty Hub.
func NewHub(cfg HubConfig) *Hub {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.FramesPerSecond <= 0 {
		cfg.FramesPerSecond = defaultFramesPerSecond
	}
	return &Hub{
		cfg:   cfg,
		rooms: make(map[string]map[*peer]struct{}),
		peers: make(map[*peer]struct{}),
	}
}

type peer struct {
	id    string
	conn  *websocket.Conn
	send  chan []byte
	done  chan struct{}
	rooms map[string]struct{} // guarded by Hub.mu
}

func newPeer(conn *websocket.Conn, queueSize int) *peer {
	return &peer{
		id:    uuid.NewString(),
		conn:  conn,
		send:  make(chan []byte, queueSize),
		done:  make(chan struct{}),
		rooms: make(map[string]struct{}),
	}
}

// enqueue never blocks; it reports whether the frame was queued.
func (p *peer) enqueue(data []byte) bool {
	select {
	case p.send <- data:
		return true
	default:
		return false
	}
}

func (p *peer) writeLoop() {
	defer close(p.done)
	for data := range p.send {
		_ = p.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := websocket.Message.Send(p.conn, string(data)); err != nil {
			slog.Debug("websocket write failed", "peer", p.id, "error", err)
			_ = p.conn.Close()
			// Drain so enqueue never sees a full queue from a dead writer.
			for range p.send {
			}
			return
		}
	}
}

// Publish delivers an event to every peer in room. Peers whose queue is full
// miss the event.
func (h *Hub) Publish(_ context.Context, room, event string, payload any) {
	data, err := json.Marshal(Frame{Type: event, Room: room, Payload: mustJSON(payload)})
	if err != nil {
		slog.Error("failed to encode realtime frame", "event", event, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(event).Inc()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for p := range h.rooms[room] {
		if !p.enqueue(data) {
			metrics.EventsDropped.Inc()
			slog.Warn("dropped realtime event for slow peer", "peer", p.id, "room", room, "event", event)
		}
	}
}

// RoomSize returns the number of peers subscribed to room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Handler returns the WebSocket endpoint.
func (h *Hub) Handler() http.Handler {
	return websocket.Server{
		Handshake: h.checkOrigin,
		Handler:   h.serveConn,
	}
}

// Close disconnects every peer. Subsequent connections are refused.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	conns := make([]*websocket.Conn, 0, len(h.peers))
	for p := range h.peers {
		conns = append(conns, p.conn)
	}
	h.mu.Unlock()

	for _, c := range conns {
		_ = c.Close()
	}
}

func (h *Hub) checkOrigin(cfg *websocket.Config, r *http.Request) error {
	origin := r.Header.Get("Origin")
	if len(h.cfg.AllowedOrigins) == 0 {
		return nil
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			if origin != "" {
				if u, err := url.Parse(origin); err == nil {
					cfg.Origin = u
				}
			}
			return nil
		}
	}
	return errors.New("origin not allowed")
}

func (h *Hub) register(p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.peers[p] = struct{}{}
	return true
}

// unregister removes p from every room and closes its queue.
func (h *Hub) unregister(p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range p.rooms {
		h.removeFromRoom(room, p)
	}
	delete(h.peers, p)
	close(p.send)
}

func (h *Hub) join(room string, p *peer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*peer]struct{})
		h.rooms[room] = members
	}
	members[p] = struct{}{}
	p.rooms[room] = struct{}{}
}

func (h *Hub) leave(room string, p *peer) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := p.rooms[room]; !ok {
		return false
	}
	h.removeFromRoom(room, p)
	return true
}

// removeFromRoom requires h.mu held for writing.
func (h *Hub) removeFromRoom(room string, p *peer) {
	delete(p.rooms, room)
	if members, ok := h.rooms[room]; ok {
		delete(members, p)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

type roomPayload struct {
	SessionID int64 `json:"session_id"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func (h *Hub) serveConn(conn *websocket.Conn) {
	defer conn.Close()

	p := newPeer(conn, h.cfg.QueueSize)
	if !h.register(p) {
		return
	}
	metrics.WSConnections.Inc()
	defer metrics.WSConnections.Dec()

	go p.writeLoop()
	defer func() {
		h.unregister(p)
		// Let queued replies (e.g. a rate limit error) reach the client.
		select {
		case <-p.done:
		case <-time.After(writeTimeout):
		}
	}()

	slog.Debug("websocket connected", "peer", p.id, "remote", conn.Request().RemoteAddr)
	defer slog.Debug("websocket disconnected", "peer", p.id)

	limiter := rate.NewLimiter(rate.Limit(h.cfg.FramesPerSecond), h.cfg.FramesPerSecond)
	conn.MaxPayloadBytes = maxFrameBytes
	decodeErrors := 0

	for {
		var frame Frame
		if err := websocket.JSON.Receive(conn, &frame); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			if errors.Is(err, websocket.ErrFrameTooLarge) {
				h.reply(p, FrameError, "", errorPayload{Message: "frame too large"})
				return
			}
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if !errors.As(err, &syntaxErr) && !errors.As(err, &typeErr) {
				return
			}
			decodeErrors++
			h.reply(p, FrameError, "", errorPayload{Message: "invalid frame"})
			if decodeErrors >= maxDecodeErrors {
				return
			}
			continue
		}
		decodeErrors = 0

		if !limiter.Allow() {
			h.reply(p, FrameError, "", errorPayload{Message: "rate limit exceeded"})
			return
		}

		h.handleFrame(p, frame)
	}
}

func (h *Hub) handleFrame(p *peer, frame Frame) {
	switch frame.Type {
	case FrameJoinRoom, FrameLeaveRoom:
		var payload roomPayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil || payload.SessionID <= 0 {
			h.reply(p, FrameError, "", errorPayload{Message: "session_id must be a positive integer"})
			return
		}
		room := SessionRoom(payload.SessionID)
		if frame.Type == FrameJoinRoom {
			h.join(room, p)
			h.reply(p, FrameRoomJoined, room, payload)
			return
		}
		h.leave(room, p)
		h.reply(p, FrameRoomLeft, room, payload)
	default:
		h.reply(p, FrameError, "", errorPayload{Message: "unsupported frame type"})
	}
}

func (h *Hub) reply(p *peer, frameType, room string, payload any) {
	data, err := json.Marshal(Frame{Type: frameType, Room: room, Payload: mustJSON(payload)})
	if err != nil {
		return
	}
	if !p.enqueue(data) {
		metrics.EventsDropped.Inc()
	}
}
