// Package inbox reconciles conversation state against the relay:
// optimistic local sends, echo absorption by message id, the one-shot
// "Today" separator and block bookkeeping.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"refractor/internal/client"
	"refractor/internal/model"
)

// ErrConversationBlocked rejects sends into a blocked conversation.
var ErrConversationBlocked = errors.New("conversation is blocked")

// Sender is the slice of the connection manager the reconciler needs
// for publishing. A failed send leaves the optimistic copy standing.
type Sender interface {
	Send(v any) bool
}

// HistoryLoader fetches conversation state from the HTTP collaborator.
type HistoryLoader interface {
	Conversations(ctx context.Context) ([]model.Conversation, error)
	Conversation(ctx context.Context, id string) (model.ConversationDetail, error)
}

// conversationState is the per-conversation merge table. live keeps the
// messages that arrived after load (local sends and relay deliveries)
// so a reload can replay anything the fetched history doesn't contain.
type conversationState struct {
	opened         bool
	messages       []model.ChatMessage
	initialCount   int
	separatorAdded bool
	live           []model.ChatMessage
}

// Reconciler merges optimistically-sent local messages with relay
// echoes across all conversations of one client session.
type Reconciler struct {
	api       HistoryLoader
	sender    Sender
	localUser string

	mu            sync.Mutex
	conversations []model.Conversation
	states        map[string]*conversationState
	users         map[string]model.User
	active        string
}

// New creates a Reconciler. localUser is the author stamped onto
// optimistic sends.
func New(api HistoryLoader, sender Sender, localUser string) *Reconciler {
	if localUser == "" {
		localUser = "user"
	}
	return &Reconciler{
		api:       api,
		sender:    sender,
		localUser: localUser,
		states:    make(map[string]*conversationState),
		users:     make(map[string]model.User),
	}
}

// Bind subscribes the reconciler to the relay event types it consumes
// and returns an unbind function.
func (r *Reconciler) Bind(c *client.Client) func() {
	s1 := c.Subscribe(model.TypeConversationMessage, r.HandleEnvelope)
	s2 := c.Subscribe(model.TypeBlockConversation, r.HandleEnvelope)
	return func() {
		c.Unsubscribe(s1)
		c.Unsubscribe(s2)
	}
}

// LoadConversations fetches the summary list from the collaborator.
func (r *Reconciler) LoadConversations(ctx context.Context) error {
	convs, err := r.api.Conversations(ctx)
	if err != nil {
		log.Printf("Failed to load conversations: %v", err)
		return fmt.Errorf("failed to load conversations: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// ブロック済みフラグはローカルで単調なので、再取得で巻き戻さない
	blocked := make(map[string]bool)
	for _, conv := range r.conversations {
		if conv.Blocked {
			blocked[conv.ID] = true
		}
	}
	for i := range convs {
		if blocked[convs[i].ID] {
			convs[i].Blocked = true
		}
	}
	r.conversations = convs
	return nil
}

// OpenConversation fetches history for one conversation and makes it
// the active one. The fetched sequence replaces the stored one; live
// messages the history doesn't contain are replayed after it. On fetch
// failure the sequence is cleared rather than left stale, and the error
// is recoverable (callers may retry).
func (r *Reconciler) OpenConversation(ctx context.Context, id string) error {
	detail, err := r.api.Conversation(ctx, id)

	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state(id)
	st.opened = true
	r.active = id

	if err != nil {
		log.Printf("Failed to load conversation details: %v", err)
		st.messages = nil
		st.initialCount = 0
		st.separatorAdded = false
		return fmt.Errorf("failed to load conversation %s: %w", id, err)
	}

	seq := make([]model.ChatMessage, 0, len(detail.Messages)+len(st.live))
	seq = append(seq, detail.Messages...)

	// セパレーターの基準になるのは取得した履歴の実メッセージ数
	initial := 0
	for _, m := range detail.Messages {
		if !m.Synthetic() {
			initial++
		}
	}

	// 履歴に含まれないライブ分をidで重複排除しつつ再生
	for _, m := range st.live {
		if !containsID(seq, m.ID) {
			seq = append(seq, m)
		}
	}

	st.messages = seq
	st.initialCount = initial
	st.separatorAdded = false

	for name, u := range detail.Users {
		r.users[name] = u
	}

	// 開いた会話の未読は消える
	for i := range r.conversations {
		if r.conversations[i].ID == id {
			r.conversations[i].Unread = false
		}
	}

	return nil
}

// SendLocal builds a message from the draft, appends it optimistically
// and publishes a conversation_message envelope. The synthesized id is
// assigned exactly once; the relay echo carrying the same id is later
// absorbed by presence check. Sends into blocked conversations are
// rejected before anything is published.
func (r *Reconciler) SendLocal(conversationID string, draft model.ChatMessage) (model.ChatMessage, error) {
	now := time.Now()

	r.mu.Lock()

	if r.blockedLocked(conversationID) {
		r.mu.Unlock()
		return model.ChatMessage{}, ErrConversationBlocked
	}

	msg := draft
	msg.ID = fmt.Sprintf("local-%d", now.UnixMilli())
	msg.ConversationID = conversationID
	msg.User = r.localUser
	msg.Time = model.ClockTime(now)
	if msg.Kind == "" {
		msg.Kind = model.KindText
	}
	msg.Provisional = true

	st := r.state(conversationID)
	r.appendWithSeparatorLocked(st, msg)
	st.live = append(st.live, msg)
	r.touchSummaryLocked(conversationID, msg, true)

	r.mu.Unlock()

	event := model.ConversationMessageEvent{
		Type:           model.TypeConversationMessage,
		ConversationID: conversationID,
		Message:        msg,
		Timestamp:      model.ISOTime(now),
	}
	if !r.sender.Send(event) {
		// エコーは来ないが楽観コピーはそのまま残す
		log.Println("WebSocket not available, message not sent")
	}

	return msg, nil
}

// HandleEnvelope routes relay envelopes to the reconciler.
func (r *Reconciler) HandleEnvelope(env model.Envelope) {
	switch env.Type {
	case model.TypeConversationMessage:
		var event model.ConversationMessageEvent
		if err := env.Decode(&event); err != nil {
			log.Printf("Failed to decode conversation_message: %v", err)
			return
		}
		r.applyMessage(event.ConversationID, event.Message)

	case model.TypeBlockConversation:
		var event model.BlockConversationEvent
		if err := env.Decode(&event); err != nil {
			log.Printf("Failed to decode block_conversation: %v", err)
			return
		}
		r.applyBlock(event)
	}
}

// applyMessage merges one relayed message. A message whose id is
// already present is the sender's own echo (or a duplicate delivery)
// and is absorbed: the stored entry just loses its provisional mark.
func (r *Reconciler) applyMessage(conversationID string, msg model.ChatMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.state(conversationID)
	if st.opened {
		if idx := indexOfID(st.messages, msg.ID); idx >= 0 {
			st.messages[idx].Provisional = false
			return
		}
		msg.Provisional = false
		r.appendWithSeparatorLocked(st, msg)
	}
	// 未オープンの会話はライブキャッシュとサマリーだけ追従させる

	if !containsID(st.live, msg.ID) {
		st.live = append(st.live, msg)
	}

	r.touchSummaryLocked(conversationID, msg, conversationID == r.active)
}

// applyBlock marks the conversation blocked and appends the system
// notice under the same id-dedup rule. No separator logic applies.
func (r *Reconciler) applyBlock(event model.BlockConversationEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := false
	for i := range r.conversations {
		if r.conversations[i].ID == event.ConversationID {
			r.conversations[i].Blocked = true
			found = true
		}
	}
	if !found {
		r.conversations = append(r.conversations, model.Conversation{
			ID:      event.ConversationID,
			Name:    event.ConversationName,
			Blocked: true,
		})
	}

	notice := event.Message
	if notice.ID == "" {
		return
	}
	if notice.Kind == "" {
		notice.Kind = model.KindBlockNotice
	}

	st := r.state(event.ConversationID)
	if st.opened && !containsID(st.messages, notice.ID) {
		st.messages = append(st.messages, notice)
	}
	if !containsID(st.live, notice.ID) {
		st.live = append(st.live, notice)
	}
}

// appendWithSeparatorLocked appends msg, inserting the one-shot "Today"
// separator right before it when this is the first message beyond the
// load-time count.
func (r *Reconciler) appendWithSeparatorLocked(st *conversationState, msg model.ChatMessage) {
	regular := 0
	for _, m := range st.messages {
		if !m.Synthetic() {
			regular++
		}
	}

	if !st.separatorAdded && regular >= st.initialCount {
		st.separatorAdded = true
		st.messages = append(st.messages, model.ChatMessage{
			ID:   fmt.Sprintf("date-today-%d", time.Now().UnixMilli()),
			Kind: model.KindDate,
			Date: "Today",
		})
	}

	st.messages = append(st.messages, msg)
}

// touchSummaryLocked updates a conversation's summary line. The unread
// flag is raised only for messages landing outside the viewed
// conversation.
func (r *Reconciler) touchSummaryLocked(conversationID string, msg model.ChatMessage, viewing bool) {
	if msg.Synthetic() {
		return
	}

	last := msg.Text
	switch msg.Kind {
	case model.KindPhoto:
		last = "📷 Photo"
	case model.KindAudio:
		last = "🎤 Voice message"
	}

	for i := range r.conversations {
		if r.conversations[i].ID != conversationID {
			continue
		}
		r.conversations[i].LastMessage = last
		r.conversations[i].LastMessageTime = msg.Time
		if !viewing {
			r.conversations[i].Unread = true
		}
		return
	}
}

func (r *Reconciler) blockedLocked(conversationID string) bool {
	for _, conv := range r.conversations {
		if conv.ID == conversationID {
			return conv.Blocked
		}
	}
	return false
}

// state returns (creating if needed) the per-conversation state.
func (r *Reconciler) state(id string) *conversationState {
	st := r.states[id]
	if st == nil {
		st = &conversationState{}
		r.states[id] = st
	}
	return st
}

// Messages returns a copy of the merged sequence for one conversation.
func (r *Reconciler) Messages(conversationID string) []model.ChatMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.states[conversationID]
	if st == nil {
		return nil
	}
	out := make([]model.ChatMessage, len(st.messages))
	copy(out, st.messages)
	return out
}

// Conversations returns a copy of the summary list.
func (r *Reconciler) Conversations() []model.Conversation {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.Conversation, len(r.conversations))
	copy(out, r.conversations)
	return out
}

// Conversation returns one summary by id.
func (r *Reconciler) Conversation(id string) (model.Conversation, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, conv := range r.conversations {
		if conv.ID == id {
			return conv, true
		}
	}
	return model.Conversation{}, false
}

// Active returns the currently viewed conversation id.
func (r *Reconciler) Active() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// User looks up a participant by name.
func (r *Reconciler) User(name string) (model.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[name]
	return u, ok
}

func containsID(msgs []model.ChatMessage, id string) bool {
	return indexOfID(msgs, id) >= 0
}

func indexOfID(msgs []model.ChatMessage, id string) int {
	for i, m := range msgs {
		if m.ID == id {
			return i
		}
	}
	return -1
}
