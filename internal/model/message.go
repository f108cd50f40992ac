package model

// ChatMessage Kind values. The zero value means a plain text message;
// date and block notices are synthetic entries that never count toward
// a conversation's regular message total.
const (
	KindText        = "text"
	KindPhoto       = "photo"
	KindAudio       = "audio"
	KindDate        = "date"
	KindBlockNotice = "block_notification"
)

// ChatMessage is one entry in a conversation sequence. IDs are assigned
// exactly once: `local-<ms>` for optimistic sends, numeric strings for
// loaded history. Provisional is client-side bookkeeping only and never
// crosses the wire.
type ChatMessage struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversationId,omitempty"`
	User           string `json:"user,omitempty"`
	Text           string `json:"text,omitempty"`
	Time           string `json:"time,omitempty"`
	Avatar         string `json:"avatar,omitempty"`
	Emoji          string `json:"emoji,omitempty"`
	Kind           string `json:"type,omitempty"`
	Date           string `json:"date,omitempty"`
	Photo          string `json:"photo,omitempty"`
	Audio          string `json:"audio,omitempty"`
	Provisional    bool   `json:"-"`
}

// Synthetic reports whether the entry is a date separator or a block
// notice rather than a regular message.
func (m ChatMessage) Synthetic() bool {
	return m.Kind == KindDate || m.Kind == KindBlockNotice
}

// Conversation is the summary row shown in the inbox list. Blocked is
// monotonic: it flips to true on a block_conversation envelope and
// never reverts here.
type Conversation struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	LastMessage     string `json:"lastMessage"`
	Time            string `json:"time,omitempty"`
	LastMessageTime string `json:"lastMessageTime,omitempty"`
	Unread          bool   `json:"unread,omitempty"`
	Participants    int    `json:"participants,omitempty"`
	IsGroup         bool   `json:"isGroup,omitempty"`
	Status          string `json:"status,omitempty"`
	Blocked         bool   `json:"blocked,omitempty"`
}

// User is a conversation participant.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Avatar    string `json:"avatar,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// ConversationDetail is the GET /api/conversations/{id} response.
type ConversationDetail struct {
	Conversation Conversation    `json:"conversation"`
	Messages     []ChatMessage   `json:"messages"`
	Users        map[string]User `json:"users"`
}

// Video is a catalogue entry for the browse page.
type Video struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
	Channel     string `json:"channel"`
	Views       int    `json:"views"`
	Duration    string `json:"duration,omitempty"`
	UploadDate  string `json:"uploadDate"`
	Likes       int    `json:"likes,omitempty"`
	Dislikes    int    `json:"dislikes,omitempty"`
}
