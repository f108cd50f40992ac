package relay

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"refractor/internal/model"
)

// Session is one live WebSocket connection owned by the relay registry.
// The write mutex serializes frames: gorilla permits only one concurrent
// writer per connection, and pong/error replies race with broadcasts.
type Session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *Session) writeJSON(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *Session) writeRaw(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Relay is the stateless fan-out server. It owns the set of live
// sessions and nothing else; a restart loses all sessions and
// in-flight envelopes.
type Relay struct {
	sessions map[*Session]bool
	mu       sync.RWMutex
	upgrader websocket.Upgrader
}

// New creates a Relay whose upgrader admits the given origins.
func New(allowedOrigins []string) *Relay {
	allowedMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		allowedMap[origin] = true
	}

	return &Relay{
		sessions: make(map[*Session]bool),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedMap[origin]
			},
		},
	}
}

// HandleWebSocket upgrades the request and runs the session until the
// connection drops.
func (r *Relay) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	s := &Session{conn: conn}

	r.mu.Lock()
	r.sessions[s] = true
	total := len(r.sessions)
	r.mu.Unlock()

	log.Printf("🔌 New WebSocket connection established. Total clients: %d", total)

	// 登録してからウェルカムメッセージを送信、失敗したら接続ごと破棄
	welcome := model.ConnectionEvent{
		Type:      model.TypeConnection,
		Message:   "Connected to comments WebSocket",
		Timestamp: model.ISOTime(time.Now()),
	}
	if err := s.writeJSON(welcome); err != nil {
		log.Printf("[WebSocket] ❌ Failed to greet new client, dropping: %v", err)
		conn.Close()
		r.remove(s)
		return
	}

	r.readLoop(s)
}

// readLoop receives frames from one session until the transport fails.
func (r *Relay) readLoop(s *Session) {
	defer func() {
		s.conn.Close()
		remaining := r.remove(s)
		log.Printf("🔌 WebSocket connection closed. Total clients: %d", remaining)
	}()

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		r.handleFrame(s, data)
	}
}

// handleFrame validates one inbound frame and dispatches it by type.
// Parse failures are reported to the originating session only and are
// never fatal to the connection.
func (r *Relay) handleFrame(s *Session, data []byte) {
	env, err := model.ParseEnvelope(data)
	if err != nil {
		log.Printf("[WebSocket] ❌ Error parsing message: %v", err)
		reply := model.ErrorEvent{
			Type:      model.TypeError,
			Message:   "Invalid message format",
			Timestamp: model.ISOTime(time.Now()),
		}
		if werr := s.writeJSON(reply); werr != nil {
			log.Printf("[WebSocket] ❌ Failed to send error reply: %v", werr)
		}
		return
	}

	log.Printf("📨 Received WebSocket message: type=%s", env.Type)

	switch env.Type {
	case model.TypeComment:
		var payload model.CommentPayload
		if err := env.Decode(&payload); err != nil {
			return
		}
		user := payload.User
		if user == "" {
			user = "Anonymous"
		}
		now := time.Now()
		event := model.NewCommentEvent{
			Type: model.TypeNewComment,
			Comment: model.Comment{
				ID:        now.UnixMilli(),
				User:      user,
				Message:   payload.Message,
				Timestamp: model.ClockTime(now),
			},
		}
		r.broadcastJSON(event)

	case model.TypePing:
		pong := model.PongEvent{
			Type:      model.TypePong,
			Timestamp: model.ISOTime(time.Now()),
		}
		if err := s.writeJSON(pong); err != nil {
			log.Printf("[WebSocket] ❌ Failed to send pong: %v", err)
		}

	default:
		// 未知のtypeはペイロードを検証せず、そのまま全クライアントへ中継
		r.broadcastRaw(env.Raw)
	}
}

// broadcastJSON fans an event out to every registered session,
// including the one that triggered it. Senders reconcile their own echo
// by message id; the echo also keeps multiple tabs of one user in sync.
func (r *Relay) broadcastJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[WebSocket] ❌ Failed to marshal broadcast: %v", err)
		return
	}
	r.broadcastRaw(data)
}

// broadcastRaw writes a frame to all sessions. The registry is
// snapshotted under the read lock first so no network write happens
// while the lock is held; a session whose transport fails is closed and
// removed without aborting delivery to the rest.
func (r *Relay) broadcastRaw(data []byte) {
	r.mu.RLock()
	snapshot := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		snapshot = append(snapshot, s)
	}
	r.mu.RUnlock()

	for _, s := range snapshot {
		if err := s.writeRaw(data); err != nil {
			s.conn.Close()
			r.remove(s)
		}
	}
}

// remove deregisters a session and reports how many remain.
func (r *Relay) remove(s *Session) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, s)
	return len(r.sessions)
}

// ClientCount reports the number of registered sessions.
func (r *Relay) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
