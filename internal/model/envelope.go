package model

import (
	"encoding/json"
	"time"
)

// WebSocketで交換するエンベロープのtypeタグ
const (
	TypeConnection          = "connection"
	TypeComment             = "comment"
	TypeNewComment          = "new_comment"
	TypePing                = "ping"
	TypePong                = "pong"
	TypeError               = "error"
	TypeConversationMessage = "conversation_message"
	TypeBlockConversation   = "block_conversation"
	TypeUnreadMessage       = "unreadMessage"
	TypeClearUnreadMessage  = "clearUnreadMessage"

	// TypeAll is the wildcard subscription type: listeners registered
	// under it receive every envelope in addition to typed listeners.
	TypeAll = "all"
)

// Envelope is one wire frame: a JSON object tagged by "type".
// Raw keeps the original bytes so envelopes the relay does not
// understand can be rebroadcast verbatim.
type Envelope struct {
	Type string
	Raw  json.RawMessage
}

// ParseEnvelope parses a raw frame into an Envelope. Only the top-level
// JSON parse is validated; a missing type tag leaves Type empty and the
// payload fields are left to the consumer.
func ParseEnvelope(data []byte) (Envelope, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		// 有効なJSONでさえあればtypeタグなしのフレームとして扱う
		if !json.Valid(data) {
			return Envelope{}, err
		}
		head.Type = ""
	}
	raw := make(json.RawMessage, len(data))
	copy(raw, data)
	return Envelope{Type: head.Type, Raw: raw}, nil
}

// Decode unmarshals the envelope payload into a typed event struct.
func (e Envelope) Decode(v any) error {
	return json.Unmarshal(e.Raw, v)
}

// ConnectionEvent greets a freshly registered session.
type ConnectionEvent struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// CommentPayload is the client→server live-comment submission.
type CommentPayload struct {
	Type      string `json:"type"`
	User      string `json:"user"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Comment is a live comment as synthesized by the relay.
type Comment struct {
	ID        int64  `json:"id"`
	User      string `json:"user"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// NewCommentEvent wraps a synthesized comment for broadcast.
type NewCommentEvent struct {
	Type    string  `json:"type"`
	Comment Comment `json:"comment"`
}

// PongEvent answers a ping, sender only.
type PongEvent struct {
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// ErrorEvent reports a protocol error to the offending sender.
type ErrorEvent struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// ConversationMessageEvent carries one conversation message to every
// session, including the sender (the echo the reconciler absorbs by id).
type ConversationMessageEvent struct {
	Type           string      `json:"type"`
	ConversationID string      `json:"conversationId"`
	Message        ChatMessage `json:"message"`
	Timestamp      string      `json:"timestamp"`
}

// BlockConversationEvent marks a conversation blocked and carries the
// accompanying system notice.
type BlockConversationEvent struct {
	Type             string      `json:"type"`
	ConversationID   string      `json:"conversationId"`
	ConversationName string      `json:"conversationName"`
	Message          ChatMessage `json:"message"`
	Timestamp        string      `json:"timestamp"`
}

// UnreadEvent toggles the cross-conversation unread badge. SessionID
// identifies the originating session so receivers can silence alerts
// triggered by their own echo.
type UnreadEvent struct {
	Type      string `json:"type"`
	User      string `json:"user,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ClockTime formats a display timestamp the way comments show it.
func ClockTime(t time.Time) string {
	return t.Format("3:04 PM")
}

// ISOTime formats an envelope-level timestamp.
func ISOTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
